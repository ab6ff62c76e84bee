package script

import "errors"

// Bridge errors.
var (
	// ErrAlreadyLoaded is returned when a script at the same resolved path
	// is already active.
	ErrAlreadyLoaded = errors.New("script is already loaded")

	// ErrScriptNotFound is returned when unload/reload cannot match a
	// path, declared name, or basename to an active script.
	ErrScriptNotFound = errors.New("script not found")

	// ErrNoMetadata is reported when a script's top-level code never
	// registered a name.
	ErrNoMetadata = errors.New("script information must be set with hs.register")

	// ErrHookNotFound is returned when an unhook targets an unknown handle.
	ErrHookNotFound = errors.New("hook not found")
)
