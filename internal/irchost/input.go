package irchost

import (
	"fmt"
	"strings"

	"github.com/dshills/hookstorm/internal/hostapi"
)

// HandleInput posts one line of user input onto the event loop. Lines
// starting with "/" run as commands; everything else goes to the active
// conversation, subject to the catch-all input hooks.
func (h *Host) HandleInput(line string) {
	h.Post(func() {
		h.handleInput(line)
	})
}

func (h *Host) handleInput(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	if strings.HasPrefix(line, "/") {
		h.runCommand(strings.TrimPrefix(line, "/"))
		return
	}

	tokens := strings.Fields(line)
	w, we := tokensToWords(tokens)
	we[1] = line // preserve original spacing for the full-line slot
	if h.dispatchCommandHooks("", &w, &we) {
		return
	}
	h.sendMessage(h.channel, line)
}

// Command executes a host command string, exactly as if the user had typed
// it with a leading slash.
func (h *Host) Command(cmd string) {
	h.runCommand(cmd)
}

func (h *Host) runCommand(cmd string) {
	tokens := strings.Fields(cmd)
	if len(tokens) == 0 {
		return
	}
	name := strings.ToUpper(tokens[0])
	tokens[0] = name
	w, we := tokensToWords(tokens)

	if h.dispatchCommandHooks(name, &w, &we) {
		return
	}
	h.builtinCommand(name, tokens)
}

func (h *Host) builtinCommand(name string, args []string) {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch name {
	case "QUERY":
		if arg(1) == "" {
			h.Print("Usage: /QUERY <nick>")
			return
		}
		h.channel = arg(1)
		h.Print("Talking to " + h.channel)
	case "JOIN":
		if arg(1) == "" {
			h.Print("Usage: /JOIN <channel>")
			return
		}
		if h.client != nil && h.client.IsConnected() {
			h.client.Cmd.Join(arg(1))
		}
		h.channel = arg(1)
	case "PART":
		target := arg(1)
		if target == "" {
			target = h.channel
		}
		if target == "" {
			return
		}
		if h.client != nil && h.client.IsConnected() {
			h.client.Cmd.Part(target)
		}
		if target == h.channel {
			h.channel = ""
		}
	case "MSG":
		if arg(1) == "" || len(args) < 3 {
			h.Print("Usage: /MSG <target> <text>")
			return
		}
		h.sendMessage(arg(1), strings.Join(args[2:], " "))
	case "NICK":
		if arg(1) == "" {
			h.Print("Usage: /NICK <nick>")
			return
		}
		if h.client != nil && h.client.IsConnected() {
			h.client.Cmd.Nick(arg(1))
		} else {
			h.cfg.Server.Nick = arg(1)
		}
	case "RAW", "QUOTE":
		if h.client == nil || !h.client.IsConnected() {
			h.Print("Not connected")
			return
		}
		h.client.Cmd.SendRaw(strings.Join(args[1:], " "))
	case "HELP":
		h.printHelp(arg(1))
	case "PLUGINS":
		h.printPluginEntries()
	default:
		h.Print("Unknown command " + name + ". Try /HELP")
	}
}

// printHelp shows the help text registered with a command hook, or the
// builtin command list when no command is named.
func (h *Host) printHelp(name string) {
	if name == "" {
		h.Print("Commands: QUERY JOIN PART MSG NICK RAW HELP PLUGINS")
		return
	}
	name = strings.ToUpper(name)
	for _, hk := range h.commands {
		if hk.name == name && hk.help != "" {
			for _, line := range strings.Split(hk.help, "\n") {
				h.Print(line)
			}
			return
		}
	}
	h.Print("No help available for " + name)
}

func (h *Host) printPluginEntries() {
	list := h.PluginEntries()
	if len(list) == 0 {
		h.Print("No plugins loaded")
		return
	}
	for _, entry := range list {
		version := entry.Version
		if version == "" {
			version = "?"
		}
		h.Print(fmt.Sprintf("%s %s: %s (%s)", entry.Name, version, entry.Desc, entry.Filename))
	}
}

// ActiveChannel returns the current conversation context name.
func (h *Host) ActiveChannel() string {
	return h.channel
}

var _ hostapi.Host = (*Host)(nil)
