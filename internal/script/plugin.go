package script

import (
	"fmt"
	"os"
	"path/filepath"

	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/hookstorm/internal/hostapi"
	hlua "github.com/dshills/hookstorm/internal/lua"
)

// Plugin is one loaded script unit: its identity is the resolved file path,
// its namespace is a persistent Lua state created at load and closed at
// teardown, and it owns its hook set outright.
type Plugin struct {
	bridge *Bridge

	path    string
	name    string
	version string
	desc    string

	state   *hlua.State
	lbridge *hlua.Bridge

	hooks []*Hook
	entry hostapi.EntryID

	// depth counts callback frames currently executing on this plugin's
	// state; closePending defers the state close started by a re-entrant
	// destroy until the stack unwinds.
	depth        int
	closePending bool
}

func newPlugin(b *Bridge, path string) *Plugin {
	return &Plugin{bridge: b, path: path}
}

// Name returns the script's declared name.
func (p *Plugin) Name() string { return p.name }

// Path returns the resolved script file path.
func (p *Plugin) Path() string { return p.path }

// Version returns the script's declared version, empty if none.
func (p *Plugin) Version() string { return p.version }

// Description returns the script's declared description, empty if none.
func (p *Plugin) Description() string { return p.desc }

// loadFile creates the plugin's namespace, executes its top-level code, and
// validates metadata. On any failure the plugin is rolled back completely:
// hooks registered by the top-level code are released and the namespace is
// closed, so no state is registered anywhere. All output is routed through
// the redirector.
func (p *Plugin) loadFile() bool {
	p.state = hlua.NewState()
	p.lbridge = hlua.NewBridge(p.state.LuaState())
	p.bridge.installAPI(p)

	data, err := os.ReadFile(p.path)
	if err != nil {
		return p.abortLoad(err)
	}

	fn, err := p.state.Load(string(data), p.path)
	if err != nil {
		return p.abortLoad(err)
	}
	if _, err := p.state.CallFunction(fn); err != nil {
		return p.abortLoad(err)
	}

	if p.name == "" {
		return p.abortLoad(ErrNoMetadata)
	}

	entry, err := p.bridge.host.AddPluginEntry(p.path, p.name, p.desc, p.version)
	if err != nil {
		return p.abortLoad(err)
	}
	p.entry = entry
	return true
}

// abortLoad reports a load failure and undoes everything the script's
// top-level code managed before failing. A hook must never outlive its
// plugin, and a failed load registers no plugin at all.
func (p *Plugin) abortLoad(err error) bool {
	p.bridge.out.Println("Failed to load script: " + err.Error())
	for _, h := range p.snapshotHooks() {
		p.bridge.releaseHook(h)
	}
	p.hooks = nil
	p.state.Close()
	return false
}

// enter and leave bracket every callback invocation on this plugin's state.
// destroy may run while a callback is on the stack (a hook that unloads its
// own plugin); closing then would kill the in-flight frame, so the close is
// deferred until the last frame unwinds.
func (p *Plugin) enter() {
	p.depth++
}

func (p *Plugin) leave() {
	p.depth--
	if p.depth == 0 && p.closePending {
		p.closePending = false
		p.state.Close()
	}
}

// addHook constructs a Hook owned by this plugin and indexes it under a
// fresh opaque handle. The caller performs any native registration.
func (p *Plugin) addHook(cb *glua.LFunction, userdata glua.LValue, isUnload bool) *Hook {
	b := p.bridge
	b.nextID++
	h := &Hook{
		id:       b.nextID,
		owner:    p.path,
		callback: cb,
		userdata: userdata,
		isUnload: isUnload,
	}
	p.hooks = append(p.hooks, h)
	b.hooks[h.id] = h
	return h
}

// removeHook removes the hook with the given handle from this plugin's set,
// deregistering its native handle first, and returns its userdata. Unknown
// handles are reported and return nil.
func (p *Plugin) removeHook(id HookHandle) glua.LValue {
	for _, h := range p.hooks {
		if h.id == id {
			ud := h.userdata
			p.bridge.releaseHook(h)
			p.forgetHook(h)
			return ud
		}
	}
	p.bridge.out.Println(ErrHookNotFound.Error())
	return glua.LNil
}

// forgetHook drops h from the plugin's hook slice.
func (p *Plugin) forgetHook(h *Hook) {
	for i, cur := range p.hooks {
		if cur == h {
			p.hooks = append(p.hooks[:i], p.hooks[i+1:]...)
			return
		}
	}
}

// snapshotHooks returns a copy of the hook set so teardown and dispatch
// survive re-entrant mutation of the live slice.
func (p *Plugin) snapshotHooks() []*Hook {
	return append([]*Hook{}, p.hooks...)
}

// destroy tears the plugin down in the contractual order: unload-marked
// hooks run first (each failure reported individually), then the hook set
// is released with every native handle deregistered exactly once, then the
// plugin-list entry is removed, then the namespace is closed.
func (p *Plugin) destroy() {
	for _, h := range p.snapshotHooks() {
		if !h.isUnload {
			continue
		}
		if _, err := p.state.CallFunction(h.callback, h.userdata); err != nil {
			p.bridge.out.Println("Failed to run hook: " + err.Error())
		}
	}

	for _, h := range p.snapshotHooks() {
		p.bridge.releaseHook(h)
	}
	p.hooks = nil

	if p.entry != "" {
		p.bridge.host.RemovePluginEntry(p.entry)
		p.entry = ""
	}

	if p.depth > 0 {
		p.closePending = true
		return
	}
	p.state.Close()
}

// describe renders the plugin's /LUA LIST row.
func (p *Plugin) describe() string {
	version := p.version
	if version == "" {
		version = "<none>"
	}
	desc := p.desc
	if desc == "" {
		desc = "<none>"
	}
	return fmt.Sprintf("%-12s %-8s %-20s %-10s", p.name, version, filepath.Base(p.path), desc)
}
