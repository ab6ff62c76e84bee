package script

import (
	"strings"
	"time"

	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/hookstorm/internal/hostapi"
	"github.com/dshills/hookstorm/internal/words"
)

// installAPI builds the hs module inside the plugin's namespace and overrides
// the global print so script output flows through the redirector.
func (b *Bridge) installAPI(p *Plugin) {
	L := p.state.LuaState()

	mod := L.SetFuncs(L.NewTable(), map[string]glua.LGFunction{
		"register":          p.luaRegister,
		"hook_command":      p.luaHookCommand,
		"hook_print":        p.luaHookPrint,
		"hook_print_attrs":  p.luaHookPrintAttrs,
		"hook_server":       p.luaHookServer,
		"hook_server_attrs": p.luaHookServerAttrs,
		"hook_timer":        p.luaHookTimer,
		"hook_unload":       p.luaHookUnload,
		"unhook":            p.luaUnhook,
		"prnt":              p.luaPrnt,
		"command":           p.luaCommand,
		"get_info":          p.luaGetInfo,
	})
	mod.RawSetString("EAT_NONE", glua.LNumber(hostapi.EatNone))
	mod.RawSetString("EAT_HOST", glua.LNumber(hostapi.EatHost))
	mod.RawSetString("EAT_PLUGIN", glua.LNumber(hostapi.EatPlugin))
	mod.RawSetString("EAT_ALL", glua.LNumber(hostapi.EatAll))
	mod.RawSetString("version", glua.LString(b.version))
	L.SetGlobal("hs", mod)

	L.SetGlobal("print", L.NewFunction(p.luaPrintOverride))
}

// hookOpts are the optional third-argument table fields shared by the hook
// registration functions.
type hookOpts struct {
	priority int
	help     string
	userdata glua.LValue
}

func readHookOpts(L *glua.LState, idx int) hookOpts {
	o := hookOpts{userdata: glua.LNil}
	t, ok := L.Get(idx).(*glua.LTable)
	if !ok {
		return o
	}
	if n, ok := t.RawGetString("priority").(glua.LNumber); ok {
		o.priority = int(n)
	}
	if s, ok := t.RawGetString("help").(glua.LString); ok {
		o.help = string(s)
	}
	if ud := t.RawGetString("userdata"); ud != glua.LNil {
		o.userdata = ud
	}
	return o
}

// finishHook completes a native registration, rolling the hook back if the
// host refused it, and pushes the opaque handle.
func (p *Plugin) finishHook(L *glua.LState, h *Hook, native hostapi.HookID, err error) int {
	if err != nil {
		p.forgetHook(h)
		delete(p.bridge.hooks, h.id)
		L.RaiseError("hook registration failed: %s", err.Error())
		return 0
	}
	h.native = native
	L.Push(glua.LNumber(h.id))
	return 1
}

// hs.register(name [, version [, description]])
func (p *Plugin) luaRegister(L *glua.LState) int {
	p.name = L.CheckString(1)
	p.version = L.OptString(2, "")
	p.desc = L.OptString(3, "")
	return 0
}

// hs.hook_command(name, fn [, {priority=, help=, userdata=}])
func (p *Plugin) luaHookCommand(L *glua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	opts := readHookOpts(L, 3)

	h := p.addHook(fn, opts.userdata, false)
	native, err := p.bridge.host.HookCommand(name, opts.priority, opts.help, p.bridge.commandTrampoline(h))
	return p.finishHook(L, h, native, err)
}

// hs.hook_print(event, fn [, opts])
func (p *Plugin) luaHookPrint(L *glua.LState) int {
	event := L.CheckString(1)
	fn := L.CheckFunction(2)
	opts := readHookOpts(L, 3)

	h := p.addHook(fn, opts.userdata, false)
	native, err := p.bridge.host.HookPrint(event, opts.priority, p.bridge.printTrampoline(h))
	return p.finishHook(L, h, native, err)
}

// hs.hook_print_attrs(event, fn [, opts])
func (p *Plugin) luaHookPrintAttrs(L *glua.LState) int {
	event := L.CheckString(1)
	fn := L.CheckFunction(2)
	opts := readHookOpts(L, 3)

	h := p.addHook(fn, opts.userdata, false)
	native, err := p.bridge.host.HookPrintAttrs(event, opts.priority, p.bridge.printAttrsTrampoline(h))
	return p.finishHook(L, h, native, err)
}

// hs.hook_server(event, fn [, opts])
func (p *Plugin) luaHookServer(L *glua.LState) int {
	event := L.CheckString(1)
	fn := L.CheckFunction(2)
	opts := readHookOpts(L, 3)

	h := p.addHook(fn, opts.userdata, false)
	native, err := p.bridge.host.HookServer(event, opts.priority, p.bridge.serverTrampoline(h))
	return p.finishHook(L, h, native, err)
}

// hs.hook_server_attrs(event, fn [, opts])
func (p *Plugin) luaHookServerAttrs(L *glua.LState) int {
	event := L.CheckString(1)
	fn := L.CheckFunction(2)
	opts := readHookOpts(L, 3)

	h := p.addHook(fn, opts.userdata, false)
	native, err := p.bridge.host.HookServerAttrs(event, opts.priority, p.bridge.serverAttrsTrampoline(h))
	return p.finishHook(L, h, native, err)
}

// hs.hook_timer(timeout_ms, fn [, opts])
func (p *Plugin) luaHookTimer(L *glua.LState) int {
	timeout := L.CheckInt(1)
	fn := L.CheckFunction(2)
	opts := readHookOpts(L, 3)

	h := p.addHook(fn, opts.userdata, false)
	native, err := p.bridge.host.HookTimer(millis(timeout), p.bridge.timerTrampoline(h))
	return p.finishHook(L, h, native, err)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// hs.hook_unload(fn [, opts])
func (p *Plugin) luaHookUnload(L *glua.LState) int {
	fn := L.CheckFunction(1)
	opts := readHookOpts(L, 2)

	h := p.addHook(fn, opts.userdata, true)
	L.Push(glua.LNumber(h.id))
	return 1
}

// hs.unhook(id) -> userdata
func (p *Plugin) luaUnhook(L *glua.LState) int {
	id := HookHandle(L.CheckInt64(1))
	L.Push(p.removeHook(id))
	return 1
}

// hs.prnt(text)
func (p *Plugin) luaPrnt(L *glua.LState) int {
	p.bridge.host.Print(L.CheckString(1))
	return 0
}

// hs.command(cmd)
func (p *Plugin) luaCommand(L *glua.LState) int {
	p.bridge.host.Command(L.CheckString(1))
	return 0
}

// hs.get_info(name) -> string or nil
func (p *Plugin) luaGetInfo(L *glua.LState) int {
	if v := p.bridge.host.Info(L.CheckString(1)); v != "" {
		L.Push(glua.LString(v))
	} else {
		L.Push(glua.LNil)
	}
	return 1
}

// print(...) joins its arguments with tabs and writes a line through the
// output redirector.
func (p *Plugin) luaPrintOverride(L *glua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.Get(i).String())
	}
	p.bridge.out.WriteString(strings.Join(parts, "\t") + "\n")
	return 0
}

// Trampolines adapt native callbacks to a hook's script callback. Each
// resolves its owner through the registry at dispatch time, so a hook whose
// plugin has been destroyed is inert even if the native side still fires it.

func (b *Bridge) commandTrampoline(h *Hook) hostapi.CommandFunc {
	return func(word, wordEOL *hostapi.Words) hostapi.Eat {
		p := b.ownerOf(h)
		if p == nil {
			return hostapi.EatNone
		}
		lb := p.lbridge
		return b.invokeHook(h,
			lb.StringsToTable(words.List(word)),
			lb.StringsToTable(words.List(wordEOL)),
			h.userdata)
	}
}

func (b *Bridge) printTrampoline(h *Hook) hostapi.PrintFunc {
	return func(word *hostapi.Words) hostapi.Eat {
		p := b.ownerOf(h)
		if p == nil {
			return hostapi.EatNone
		}
		lb := p.lbridge
		list := words.List(word)
		return b.invokeHook(h,
			lb.StringsToTable(list),
			lb.StringsToTable(words.EOL(list)),
			h.userdata)
	}
}

func (b *Bridge) printAttrsTrampoline(h *Hook) hostapi.PrintAttrsFunc {
	return func(word *hostapi.Words, attrs hostapi.Attrs) hostapi.Eat {
		p := b.ownerOf(h)
		if p == nil {
			return hostapi.EatNone
		}
		lb := p.lbridge
		list := words.List(word)
		return b.invokeHook(h,
			lb.StringsToTable(list),
			lb.StringsToTable(words.EOL(list)),
			attrsToTable(p, attrs),
			h.userdata)
	}
}

func (b *Bridge) serverTrampoline(h *Hook) hostapi.ServerFunc {
	return func(word, wordEOL *hostapi.Words) hostapi.Eat {
		p := b.ownerOf(h)
		if p == nil {
			return hostapi.EatNone
		}
		lb := p.lbridge
		return b.invokeHook(h,
			lb.StringsToTable(words.List(word)),
			lb.StringsToTable(words.List(wordEOL)),
			h.userdata)
	}
}

func (b *Bridge) serverAttrsTrampoline(h *Hook) hostapi.ServerAttrsFunc {
	return func(word, wordEOL *hostapi.Words, attrs hostapi.Attrs) hostapi.Eat {
		p := b.ownerOf(h)
		if p == nil {
			return hostapi.EatNone
		}
		lb := p.lbridge
		return b.invokeHook(h,
			lb.StringsToTable(words.List(word)),
			lb.StringsToTable(words.List(wordEOL)),
			attrsToTable(p, attrs),
			h.userdata)
	}
}

// timerTrampoline re-arms only on a literal true return. Any other result,
// or an error, demotes the hook: it leaves the registry without a native
// deregistration, because the host disarms the timer itself on false.
func (b *Bridge) timerTrampoline(h *Hook) hostapi.TimerFunc {
	return func() bool {
		p := b.ownerOf(h)
		if p == nil {
			return false
		}
		p.enter()
		results, err := p.state.CallFunction(h.callback, h.userdata)
		p.leave()
		if err != nil {
			b.out.Println(err.Error())
		}
		if err == nil && len(results) > 0 && results[0] == glua.LTrue {
			return true
		}
		h.isUnload = true
		b.dropHook(h)
		return false
	}
}

func attrsToTable(p *Plugin, attrs hostapi.Attrs) *glua.LTable {
	t := p.state.LuaState().NewTable()
	var ts int64
	if !attrs.ServerTimeUTC.IsZero() {
		ts = attrs.ServerTimeUTC.Unix()
	}
	t.RawSetString("server_time_utc", glua.LNumber(ts))
	return t
}
