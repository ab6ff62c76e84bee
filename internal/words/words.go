// Package words converts the host's fixed-capacity positional argument
// arrays into ordered word lists, derives the word-to-end-of-line variant
// needed by text events, and maps script return values to host eat codes.
package words

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/hookstorm/internal/hostapi"
)

// Len returns the index of the last populated slot in a word array,
// scanning backward from the highest slot. Empty slots may appear between
// arguments, so only trailing emptiness terminates the list. Zero means the
// array carries no arguments.
func Len(w *hostapi.Words) int {
	for i := hostapi.WordSlots; i >= 1; i-- {
		if w[i] != "" {
			return i
		}
	}
	return 0
}

// List returns the populated slots of a word array in positional order.
func List(w *hostapi.Words) []string {
	n := Len(w)
	list := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		list = append(list, w[i])
	}
	return list
}

// EOL derives a word-to-end-of-line list from a flat word list for event
// kinds that do not deliver a native one. The fold runs right to left: entry
// i is word i joined by a single space onto entry i+1, and the final entry is
// the last word alone. Empty words are carried through without extending the
// accumulated suffix. The joining order is historical behavior that scripts
// depend on and must not be "fixed".
func EOL(list []string) []string {
	out := make([]string, len(list))
	accum := ""
	have := false
	for i := len(list) - 1; i >= 0; i-- {
		switch {
		case !have:
			accum = list[i]
			have = true
		case list[i] != "":
			accum = list[i] + " " + accum
		}
		out[i] = accum
	}
	return out
}

// Join builds the suffix concatenation of list starting at word i (0-based),
// joining with single spaces. Used by hosts that synthesize a native
// word-to-end-of-line array from tokenized input.
func Join(list []string, i int) string {
	if i < 0 || i >= len(list) {
		return ""
	}
	return strings.Join(list[i:], " ")
}

// EatCode converts a hook callback's return value to a host eat code. Nil
// (or no return) propagates the event; a number is truncated to its integer
// eat code; a boolean maps true to EatAll and false to EatNone.
func EatCode(v lua.LValue) hostapi.Eat {
	switch val := v.(type) {
	case nil:
		return hostapi.EatNone
	case *lua.LNilType:
		return hostapi.EatNone
	case lua.LNumber:
		return hostapi.Eat(int(val))
	case lua.LBool:
		if val {
			return hostapi.EatAll
		}
		return hostapi.EatNone
	default:
		return hostapi.EatNone
	}
}
