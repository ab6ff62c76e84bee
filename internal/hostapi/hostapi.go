// Package hostapi defines the contract between the scripting bridge and the
// host application's native plugin API: event hook registration, command
// registration, console output, and info/path queries.
//
// The bridge consumes this interface; internal/irchost provides the real
// IRC-backed implementation. Implementations must invoke every callback on
// the single goroutine that owns the host's event loop.
package hostapi

import "time"

// Eat codes control further propagation of an event after a hook ran.
type Eat int

// Eat codes, in host order.
const (
	// EatNone lets the event continue to other hooks and the host.
	EatNone Eat = 0

	// EatHost consumes the host's own processing but lets other hooks run.
	EatHost Eat = 1

	// EatPlugin consumes other plugin hooks but lets the host process.
	EatPlugin Eat = 2

	// EatAll fully consumes the event.
	EatAll Eat = 3
)

// WordSlots is the highest usable index in an event word array.
const WordSlots = 31

// Words is the host's fixed-capacity positional argument array. Slot 0 is
// reserved; event arguments occupy slots 1..WordSlots. Trailing slots are
// empty, but empty slots may also appear between arguments, so the true
// argument count is found by scanning backward for the last non-empty slot.
type Words [WordSlots + 1]string

// Attrs carries per-event attributes for the attribute-bearing hook kinds.
type Attrs struct {
	// ServerTimeUTC is the server-supplied timestamp, zero if absent.
	ServerTimeUTC time.Time
}

// HookID identifies a native hook registration. Zero is never a valid id.
type HookID uint64

// EntryID identifies a plugin-list entry registered with the host UI.
type EntryID string

// Callback signatures, one per event kind.
type (
	// CommandFunc handles a user command. word carries the command name and
	// arguments, wordEOL the word-to-end-of-line variants.
	CommandFunc func(word, wordEOL *Words) Eat

	// PrintFunc handles a text (print) event. Print events carry no native
	// word-to-end-of-line array.
	PrintFunc func(word *Words) Eat

	// PrintAttrsFunc handles a text event with attributes.
	PrintAttrsFunc func(word *Words, attrs Attrs) Eat

	// ServerFunc handles a raw protocol line.
	ServerFunc func(word, wordEOL *Words) Eat

	// ServerAttrsFunc handles a raw protocol line with attributes.
	ServerAttrsFunc func(word, wordEOL *Words, attrs Attrs) Eat

	// TimerFunc handles a timer tick. Returning true keeps the timer armed;
	// returning false stops it, after which the host forgets the hook.
	TimerFunc func() bool
)

// Host is the native plugin API surface consumed by the bridge.
type Host interface {
	// HookCommand registers a command hook. An empty name hooks all
	// non-command input lines. help may be empty.
	HookCommand(name string, priority int, help string, fn CommandFunc) (HookID, error)

	// HookPrint registers a hook for a named text event.
	HookPrint(event string, priority int, fn PrintFunc) (HookID, error)

	// HookPrintAttrs registers an attribute-bearing text event hook.
	HookPrintAttrs(event string, priority int, fn PrintAttrsFunc) (HookID, error)

	// HookServer registers a hook for a raw protocol command ("PRIVMSG",
	// "RAW LINE" for all lines).
	HookServer(event string, priority int, fn ServerFunc) (HookID, error)

	// HookServerAttrs registers an attribute-bearing protocol hook.
	HookServerAttrs(event string, priority int, fn ServerAttrsFunc) (HookID, error)

	// HookTimer arms a repeating timer. The host re-arms it while fn
	// returns true.
	HookTimer(interval time.Duration, fn TimerFunc) (HookID, error)

	// Unhook deregisters a hook. Unknown ids return an error; a given id
	// can be deregistered at most once.
	Unhook(id HookID) error

	// Print writes a line of text to the user's active context. The host
	// appends its own line formatting; text should not end in a newline.
	Print(text string)

	// Command executes a host command string ("QUERY >>lua<<").
	Command(cmd string)

	// Info returns a host info string: "channel", "nick", "server",
	// "configdir", "libdirfs", "version". Unknown names return "".
	Info(name string) string

	// AddPluginEntry registers a plugin-list entry and returns its handle.
	AddPluginEntry(filename, name, desc, version string) (EntryID, error)

	// RemovePluginEntry removes a plugin-list entry. Unknown handles are
	// ignored.
	RemovePluginEntry(id EntryID)
}
