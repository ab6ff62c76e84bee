package script

import (
	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/hookstorm/internal/hostapi"
)

// HookHandle is the opaque id handed to scripts for later removal of a
// hook. Handles are unique per bridge instance and never reused.
type HookHandle uint64

// Hook is one live event subscription. A hook never keeps its plugin alive:
// it stores the owning plugin's resolved path and the bridge resolves the
// owner through the active-plugin registry on demand.
type Hook struct {
	id       HookHandle
	owner    string
	callback *glua.LFunction
	userdata glua.LValue

	// isUnload marks hooks that run at plugin teardown. Unload hooks are
	// never registered with the host, so there is nothing to deregister.
	// The timer trampoline also sets it when demoting a stopped timer so
	// teardown skips the already-disarmed native handle.
	isUnload bool

	// native is the host registration handle, zero for unload hooks.
	native hostapi.HookID

	// released guards native deregistration: it must happen exactly once,
	// even when a hook is removed while a dispatch over the same set is on
	// the call stack.
	released bool
}

// ID returns the hook's opaque handle.
func (h *Hook) ID() HookHandle { return h.id }

// releaseHook deregisters a hook's native handle (at most once) and drops
// it from the bridge-wide handle index.
func (b *Bridge) releaseHook(h *Hook) {
	if !h.isUnload && h.native != 0 && !h.released {
		if err := b.host.Unhook(h.native); err != nil {
			b.log.Warn().Err(err).Uint64("hook", uint64(h.id)).Msg("native unhook failed")
		}
		h.released = true
	}
	delete(b.hooks, h.id)
}

// dropHook removes a hook from its owner and the handle index without
// touching the native registration. Used by the timer trampoline after the
// host has already disarmed the timer itself.
func (b *Bridge) dropHook(h *Hook) {
	if p := b.ownerOf(h); p != nil {
		p.forgetHook(h)
	}
	delete(b.hooks, h.id)
}
