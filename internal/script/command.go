package script

import (
	"strings"

	"github.com/dshills/hookstorm/internal/hostapi"
)

const luaHelpText = `Usage: /LUA LOAD   <filename>
           UNLOAD <filename|name>
           RELOAD <filename|name>
           LIST
           EXEC <command>
           CONSOLE
           ABOUT`

// onSay intercepts plain input lines. Lines typed into the console query
// window are echoed and evaluated; everything else passes through.
func (b *Bridge) onSay(word, wordEOL *hostapi.Words) hostapi.Eat {
	if b.host.Info("channel") != ConsoleChannel {
		return hostapi.EatNone
	}
	line := wordEOL[1]
	b.host.Print(">>> " + line)
	b.consoleEval(line)
	return hostapi.EatAll
}

// onLoadCommand claims /LOAD for arguments with the scripting extension.
func (b *Bridge) onLoadCommand(word, wordEOL *hostapi.Words) hostapi.Eat {
	if !strings.HasSuffix(word[2], Extension) {
		return hostapi.EatNone
	}
	b.Load(word[2])
	return hostapi.EatAll
}

// onUnloadCommand claims /UNLOAD for arguments with the scripting extension.
func (b *Bridge) onUnloadCommand(word, wordEOL *hostapi.Words) hostapi.Eat {
	if !strings.HasSuffix(word[2], Extension) {
		return hostapi.EatNone
	}
	b.Unload(word[2])
	return hostapi.EatAll
}

// onReloadCommand claims /RELOAD for arguments with the scripting extension.
func (b *Bridge) onReloadCommand(word, wordEOL *hostapi.Words) hostapi.Eat {
	if !strings.HasSuffix(word[2], Extension) {
		return hostapi.EatNone
	}
	b.Reload(word[2])
	return hostapi.EatAll
}

// onLuaCommand dispatches the /LUA sub-commands. The event is always eaten;
// unknown sub-commands fall back to the host's help.
func (b *Bridge) onLuaCommand(word, wordEOL *hostapi.Words) hostapi.Eat {
	switch strings.ToLower(word[2]) {
	case "exec":
		b.consoleEval(wordEOL[3])
	case "load":
		b.Load(word[3])
	case "unload":
		b.Unload(word[3])
	case "reload":
		b.Reload(word[3])
	case "console":
		b.host.Command("QUERY " + ConsoleChannel)
	case "list":
		b.List()
	case "about":
		b.host.Print("Hookstorm Lua interface version " + b.version)
	default:
		b.host.Command("HELP LUA")
	}
	return hostapi.EatAll
}
