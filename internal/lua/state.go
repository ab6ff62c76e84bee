// Package lua wraps gopher-lua with the persistent-state and value
// conversion utilities the scripting bridge needs. Each loaded script owns
// one State for its whole lifetime; globals set by the script's top-level
// code survive until the script is unloaded.
package lua

import (
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// ErrStateClosed is returned when operating on a closed State.
var ErrStateClosed = errors.New("lua state is closed")

// State wraps a gopher-lua LState.
//
// gopher-lua's LState is not goroutine-safe. A State is only ever touched
// from the host's event-processing goroutine, so no locking is used — and
// none can be: a script callback may re-enter its own state, for example by
// issuing a host command that dispatches another of its hooks.
type State struct {
	L      *lua.LState
	closed bool
}

// NewState creates a Lua state with the full standard library open.
// Scripts are trusted; sandboxing and resource limits are explicitly not a
// goal of this bridge.
func NewState() *State {
	return &State{L: lua.NewState()}
}

// DoFile executes a Lua file. The call blocks until completion or error.
func (s *State) DoFile(path string) error {
	if s.closed {
		return ErrStateClosed
	}
	return s.withRecovery(func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes Lua source. The call blocks until completion or error.
func (s *State) DoString(code string) error {
	if s.closed {
		return ErrStateClosed
	}
	return s.withRecovery(func() error {
		return s.L.DoString(code)
	})
}

// Load compiles source as a chunk without running it. Used by the console
// to try expression compilation before falling back to statement execution.
func (s *State) Load(code, name string) (*lua.LFunction, error) {
	if s.closed {
		return nil, ErrStateClosed
	}
	return s.L.Load(strings.NewReader(code), name)
}

// CallFunction calls a Lua function value with the given arguments and
// returns all results. Panics inside the VM are recovered into errors.
func (s *State) CallFunction(fn *lua.LFunction, args ...lua.LValue) ([]lua.LValue, error) {
	if s.closed {
		return nil, ErrStateClosed
	}

	stackTop := s.L.GetTop()
	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}

	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("lua panic: %v", r)
			}
		}()
		callErr = s.L.PCall(len(args), lua.MultRet, nil)
	}()
	if callErr != nil {
		return nil, callErr
	}

	nRet := s.L.GetTop() - stackTop
	if nRet <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, nRet)
	for i := 0; i < nRet; i++ {
		results[i] = s.L.Get(stackTop + i + 1)
	}
	s.L.Pop(nRet)
	return results, nil
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// RegisterFunc registers a Go function as a global Lua function.
func (s *State) RegisterFunc(name string, fn lua.LGFunction) {
	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.L.NewFunction(fn))
}

// RegisterModule registers a named table of Go functions.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) *lua.LTable {
	if s.closed {
		return nil
	}
	mod := s.L.SetFuncs(s.L.NewTable(), funcs)
	s.L.SetGlobal(name, mod)
	return mod
}

// LuaState returns the underlying gopher-lua state.
func (s *State) LuaState() *lua.LState {
	return s.L
}

// IsClosed reports whether Close has been called.
func (s *State) IsClosed() bool {
	return s.closed
}

// Close releases the Lua state. Subsequent calls return ErrStateClosed.
func (s *State) Close() {
	if s.closed {
		return
	}
	s.L.Close()
	s.closed = true
}

// withRecovery executes fn converting VM panics into errors.
func (s *State) withRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
