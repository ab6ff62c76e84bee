package script

import (
	"os"
	"path/filepath"
	"strings"

	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/hookstorm/internal/hostapi"
	"github.com/dshills/hookstorm/internal/logging"
	"github.com/dshills/hookstorm/internal/redirect"
	"github.com/dshills/hookstorm/internal/words"
)

// Extension is the scripting file extension the bridge claims.
const Extension = ".lua"

// Version is the bridge interface version reported by /LUA ABOUT.
const Version = "2.0"

// consolePath is the pseudo-identity of the console session's namespace.
const consolePath = "<console>"

// Bridge owns all scripting state: the active-plugin registry, the
// bridge-wide hook handle index, the console session, and the output
// redirector. It is created on host activation and torn down on
// deactivation; there is no ambient global state.
type Bridge struct {
	host hostapi.Host
	log  *logging.Logger
	out  *redirect.Redirector

	version string

	plugins map[string]*Plugin // by resolved path
	order   []string           // load order, for stable listing

	hooks  map[HookHandle]*Hook
	nextID HookHandle

	console *Console

	ownHooks []hostapi.HookID
	active   bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithVersion overrides the reported interface version.
func WithVersion(v string) Option {
	return func(b *Bridge) {
		b.version = v
	}
}

// New creates a Bridge for the given host. Activate must be called before
// the bridge does anything.
func New(host hostapi.Host, log *logging.Logger, opts ...Option) *Bridge {
	b := &Bridge{
		host:    host,
		log:     log.Sub("bridge"),
		version: Version,
		plugins: make(map[string]*Plugin),
		hooks:   make(map[HookHandle]*Hook),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.out = redirect.New(host.Print)
	return b
}

// Activate registers the bridge's command surface with the host, announces
// itself, and autoloads the addon directory. If any registration fails the
// bridge rolls back what it registered and declines to activate: no hooks
// stay registered and no autoload runs.
func (b *Bridge) Activate() error {
	if b.active {
		return nil
	}

	regs := []struct {
		name string
		help string
		fn   hostapi.CommandFunc
	}{
		{"", "", b.onSay},
		{"LOAD", "", b.onLoadCommand},
		{"UNLOAD", "", b.onUnloadCommand},
		{"RELOAD", "", b.onReloadCommand},
		{"LUA", luaHelpText, b.onLuaCommand},
	}
	for _, reg := range regs {
		id, err := b.host.HookCommand(reg.name, 0, reg.help, reg.fn)
		if err != nil {
			b.host.Print("Failed to load Lua interface: " + err.Error())
			b.unhookOwn()
			return err
		}
		b.ownHooks = append(b.ownHooks, id)
	}

	b.active = true
	b.host.Print("Lua interface loaded")
	b.log.Info().Str("version", b.version).Msg("bridge activated")
	b.Autoload()
	return nil
}

// Deactivate destroys every active plugin with full teardown ordering,
// discards the console session, and removes the bridge's own command hooks.
func (b *Bridge) Deactivate() {
	if !b.active {
		return
	}

	for i := len(b.order) - 1; i >= 0; i-- {
		if p, ok := b.plugins[b.order[i]]; ok {
			p.destroy()
		}
	}
	b.plugins = make(map[string]*Plugin)
	b.order = nil

	if b.console != nil {
		b.console.close()
		b.console = nil
	}

	b.unhookOwn()
	b.hooks = make(map[HookHandle]*Hook)
	b.out.Reset()
	b.active = false
	b.log.Info().Msg("bridge deactivated")
}

func (b *Bridge) unhookOwn() {
	for _, id := range b.ownHooks {
		if err := b.host.Unhook(id); err != nil {
			b.log.Warn().Err(err).Msg("deactivate unhook failed")
		}
	}
	b.ownHooks = nil
}

// Plugins returns the active plugins in load order.
func (b *Bridge) Plugins() []*Plugin {
	out := make([]*Plugin, 0, len(b.order))
	for _, path := range b.order {
		if p, ok := b.plugins[path]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Hook returns the hook for an opaque handle, if live.
func (b *Bridge) Hook(id HookHandle) (*Hook, bool) {
	h, ok := b.hooks[id]
	return h, ok
}

// ownerOf resolves a hook's owning plugin through the registry. The console
// session's pseudo-plugin resolves too, so console hooks dispatch normally.
func (b *Bridge) ownerOf(h *Hook) *Plugin {
	if h.owner == consolePath {
		if b.console == nil {
			return nil
		}
		return b.console.plugin
	}
	return b.plugins[h.owner]
}

// invokeHook calls a hook's script callback with the marshaled arguments,
// captures its output, and converts its return value to an eat code. Errors
// are reported through the redirector and never propagate to the host.
func (b *Bridge) invokeHook(h *Hook, args ...glua.LValue) hostapi.Eat {
	p := b.ownerOf(h)
	if p == nil {
		return hostapi.EatNone
	}
	p.enter()
	results, err := p.state.CallFunction(h.callback, args...)
	p.leave()
	if err != nil {
		b.out.Println(err.Error())
		return hostapi.EatNone
	}
	if len(results) == 0 {
		return hostapi.EatNone
	}
	return words.EatCode(results[0])
}

// resolvePath expands a leading home-directory marker and resolves relative
// paths against the host's addon directory.
func (b *Bridge) resolvePath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.addonDir(), path)
	}
	return filepath.Clean(path)
}

// addonDir is where scripts live: <configdir>/addons.
func (b *Bridge) addonDir() string {
	return filepath.Join(b.host.Info("configdir"), "addons")
}
