// Package script implements the Lua scripting bridge: the registry of live
// event hooks, the lifecycle manager that loads, reloads, and tears down
// script units with deterministic resource release, the interactive console
// session, and the /LUA command surface.
//
// The bridge runs entirely on the host's event-processing goroutine. Every
// callback a script registers is invoked synchronously from a host event,
// marshaled through internal/words, with script output captured by
// internal/redirect. Teardown ordering is strict: a plugin's unload-marked
// hooks run before any native hook handle is deregistered, native handles
// are deregistered exactly once, and the plugin-list entry is removed last.
package script
