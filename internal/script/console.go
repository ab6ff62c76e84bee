package script

import (
	"strings"

	glua "github.com/yuin/gopher-lua"

	hlua "github.com/dshills/hookstorm/internal/lua"
)

// ConsoleChannel is the query-window name the console session lives in.
const ConsoleChannel = ">>lua<<"

// Console is the interactive evaluation session: one persistent namespace
// with the hs module installed, created lazily on first use and kept until
// the bridge deactivates. It participates in hook dispatch like a plugin but
// never appears in the script list.
type Console struct {
	bridge *Bridge
	plugin *Plugin
}

func newConsole(b *Bridge) *Console {
	p := newPlugin(b, consolePath)
	p.name = "lua console"
	p.state = hlua.NewState()
	p.lbridge = hlua.NewBridge(p.state.LuaState())
	b.installAPI(p)
	return &Console{bridge: b, plugin: p}
}

// consoleEval routes a line to the console session, creating it on first use.
func (b *Bridge) consoleEval(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if b.console == nil {
		b.console = newConsole(b)
	}
	b.console.Eval(line)
}

// Eval evaluates one input line. The line is first compiled as an expression
// ("return <line>") so bare expressions print their results; when that does
// not parse, it runs as a statement. Errors print to the session instead of
// propagating.
func (c *Console) Eval(line string) {
	st := c.plugin.state

	if fn, err := st.Load("return "+line, "console"); err == nil {
		c.plugin.enter()
		results, err := st.CallFunction(fn)
		c.plugin.leave()
		if err != nil {
			c.bridge.out.Println(err.Error())
			return
		}
		for _, r := range results {
			if r != glua.LNil {
				c.bridge.out.Println(c.plugin.lbridge.Repr(r))
			}
		}
		return
	}

	c.plugin.enter()
	err := st.DoString(line)
	c.plugin.leave()
	if err != nil {
		c.bridge.out.Println(err.Error())
	}
}

// close tears the session down with full plugin teardown ordering.
func (c *Console) close() {
	c.plugin.destroy()
}
