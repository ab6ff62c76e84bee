package irchost

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lrstanley/girc"

	"github.com/dshills/hookstorm/internal/hostapi"
	"github.com/dshills/hookstorm/internal/words"
)

// rawLineEvent is the catch-all server hook name matching every protocol line.
const rawLineEvent = "RAW LINE"

type commandHook struct {
	id       hostapi.HookID
	name     string
	priority int
	help     string
	fn       hostapi.CommandFunc
}

type printHook struct {
	id       hostapi.HookID
	event    string
	priority int
	fn       hostapi.PrintFunc
	attrsFn  hostapi.PrintAttrsFunc
}

type serverHook struct {
	id       hostapi.HookID
	event    string
	priority int
	fn       hostapi.ServerFunc
	attrsFn  hostapi.ServerAttrsFunc
}

type timerHook struct {
	id       hostapi.HookID
	interval time.Duration
	fn       hostapi.TimerFunc
	timer    *time.Timer
}

type registry struct {
	nextID   hostapi.HookID
	commands []*commandHook
	prints   []*printHook
	servers  []*serverHook
	timers   map[hostapi.HookID]*timerHook
}

func (r *registry) init() {
	r.timers = make(map[hostapi.HookID]*timerHook)
}

func (r *registry) newID() hostapi.HookID {
	r.nextID++
	return r.nextID
}

// HookCommand registers a command hook. An empty name hooks plain input.
func (h *Host) HookCommand(name string, priority int, help string, fn hostapi.CommandFunc) (hostapi.HookID, error) {
	if fn == nil {
		return 0, fmt.Errorf("hook command %q: nil callback", name)
	}
	hk := &commandHook{id: h.newID(), name: strings.ToUpper(name), priority: priority, help: help, fn: fn}
	h.commands = append(h.commands, hk)
	sortByPriority(h.commands, func(c *commandHook) int { return c.priority })
	return hk.id, nil
}

// HookPrint registers a text event hook.
func (h *Host) HookPrint(event string, priority int, fn hostapi.PrintFunc) (hostapi.HookID, error) {
	if fn == nil {
		return 0, fmt.Errorf("hook print %q: nil callback", event)
	}
	hk := &printHook{id: h.newID(), event: event, priority: priority, fn: fn}
	h.prints = append(h.prints, hk)
	sortByPriority(h.prints, func(p *printHook) int { return p.priority })
	return hk.id, nil
}

// HookPrintAttrs registers an attribute-bearing text event hook.
func (h *Host) HookPrintAttrs(event string, priority int, fn hostapi.PrintAttrsFunc) (hostapi.HookID, error) {
	if fn == nil {
		return 0, fmt.Errorf("hook print %q: nil callback", event)
	}
	hk := &printHook{id: h.newID(), event: event, priority: priority, attrsFn: fn}
	h.prints = append(h.prints, hk)
	sortByPriority(h.prints, func(p *printHook) int { return p.priority })
	return hk.id, nil
}

// HookServer registers a protocol hook for the named command, or every line
// with the "RAW LINE" event.
func (h *Host) HookServer(event string, priority int, fn hostapi.ServerFunc) (hostapi.HookID, error) {
	if fn == nil {
		return 0, fmt.Errorf("hook server %q: nil callback", event)
	}
	hk := &serverHook{id: h.newID(), event: strings.ToUpper(event), priority: priority, fn: fn}
	h.servers = append(h.servers, hk)
	sortByPriority(h.servers, func(s *serverHook) int { return s.priority })
	return hk.id, nil
}

// HookServerAttrs registers an attribute-bearing protocol hook.
func (h *Host) HookServerAttrs(event string, priority int, fn hostapi.ServerAttrsFunc) (hostapi.HookID, error) {
	if fn == nil {
		return 0, fmt.Errorf("hook server %q: nil callback", event)
	}
	hk := &serverHook{id: h.newID(), event: strings.ToUpper(event), priority: priority, attrsFn: fn}
	h.servers = append(h.servers, hk)
	sortByPriority(h.servers, func(s *serverHook) int { return s.priority })
	return hk.id, nil
}

// HookTimer arms a repeating timer. The timer fires through the event loop;
// the hook is forgotten when the callback returns false.
func (h *Host) HookTimer(interval time.Duration, fn hostapi.TimerFunc) (hostapi.HookID, error) {
	if fn == nil {
		return 0, fmt.Errorf("hook timer: nil callback")
	}
	if interval <= 0 {
		return 0, fmt.Errorf("hook timer: interval %v not positive", interval)
	}
	id := h.newID()
	th := &timerHook{id: id, interval: interval, fn: fn}
	th.timer = time.AfterFunc(interval, func() {
		h.Post(func() { h.fireTimer(id) })
	})
	h.timers[id] = th
	return id, nil
}

func (h *Host) fireTimer(id hostapi.HookID) {
	th, ok := h.timers[id]
	if !ok {
		return
	}
	if th.fn() {
		// The callback may have unhooked its own id; only a timer that is
		// still registered re-arms.
		if _, live := h.timers[id]; live {
			th.timer.Reset(th.interval)
		}
		return
	}
	delete(h.timers, id)
}

// Unhook deregisters a hook of any kind. A given id succeeds at most once.
func (h *Host) Unhook(id hostapi.HookID) error {
	for i, hk := range h.commands {
		if hk.id == id {
			h.commands = append(h.commands[:i], h.commands[i+1:]...)
			return nil
		}
	}
	for i, hk := range h.prints {
		if hk.id == id {
			h.prints = append(h.prints[:i], h.prints[i+1:]...)
			return nil
		}
	}
	for i, hk := range h.servers {
		if hk.id == id {
			h.servers = append(h.servers[:i], h.servers[i+1:]...)
			return nil
		}
	}
	if th, ok := h.timers[id]; ok {
		th.timer.Stop()
		delete(h.timers, id)
		return nil
	}
	return fmt.Errorf("unhook: unknown hook %d", id)
}

func (h *Host) stopTimers() {
	for id, th := range h.timers {
		th.timer.Stop()
		delete(h.timers, id)
	}
}

// sortByPriority keeps hooks ordered highest priority first, preserving
// registration order within a priority level.
func sortByPriority[T any](hooks []T, prio func(T) int) {
	sort.SliceStable(hooks, func(i, j int) bool {
		return prio(hooks[i]) > prio(hooks[j])
	})
}

// dispatchCommandHooks runs the command hooks registered under name and
// reports whether the host's own handling should be suppressed. EatPlugin
// stops remaining hooks; EatHost suppresses the host; EatAll does both.
func (h *Host) dispatchCommandHooks(name string, w, we *hostapi.Words) bool {
	hooks := make([]*commandHook, 0, len(h.commands))
	for _, hk := range h.commands {
		if hk.name == name {
			hooks = append(hooks, hk)
		}
	}

	hostEaten := false
	for _, hk := range hooks {
		ret := hk.fn(w, we)
		if ret == hostapi.EatHost || ret == hostapi.EatAll {
			hostEaten = true
		}
		if ret == hostapi.EatPlugin || ret == hostapi.EatAll {
			break
		}
	}
	return hostEaten
}

// dispatchServer runs protocol hooks for a girc event: hooks on the event's
// command first, then catch-all raw-line hooks.
func (h *Host) dispatchServer(e girc.Event) bool {
	tokens := strings.Fields(e.String())
	if len(tokens) == 0 {
		return false
	}
	w, we := tokensToWords(tokens)
	attrs := eventAttrs(e)
	command := strings.ToUpper(e.Command)

	hooks := make([]*serverHook, 0, len(h.servers))
	for _, hk := range h.servers {
		if hk.event == command || hk.event == rawLineEvent {
			hooks = append(hooks, hk)
		}
	}

	hostEaten := false
	for _, hk := range hooks {
		var ret hostapi.Eat
		if hk.attrsFn != nil {
			ret = hk.attrsFn(&w, &we, attrs)
		} else {
			ret = hk.fn(&w, &we)
		}
		if ret == hostapi.EatHost || ret == hostapi.EatAll {
			hostEaten = true
		}
		if ret == hostapi.EatPlugin || ret == hostapi.EatAll {
			break
		}
	}
	return hostEaten
}

// emitPrint runs text event hooks for a named event and reports whether the
// host's own rendering should be suppressed.
func (h *Host) emitPrint(event string, tags girc.Tags, args ...string) bool {
	hooks := make([]*printHook, 0, len(h.prints))
	for _, hk := range h.prints {
		if hk.event == event {
			hooks = append(hooks, hk)
		}
	}
	if len(hooks) == 0 {
		return false
	}

	var w hostapi.Words
	for i, arg := range args {
		if i+1 > hostapi.WordSlots {
			break
		}
		w[i+1] = arg
	}
	attrs := tagAttrs(tags)

	hostEaten := false
	for _, hk := range hooks {
		var ret hostapi.Eat
		if hk.attrsFn != nil {
			ret = hk.attrsFn(&w, attrs)
		} else {
			ret = hk.fn(&w)
		}
		if ret == hostapi.EatHost || ret == hostapi.EatAll {
			hostEaten = true
		}
		if ret == hostapi.EatPlugin || ret == hostapi.EatAll {
			break
		}
	}
	return hostEaten
}

// tokensToWords lays tokens into a word array starting at slot 1 and derives
// the matching word-to-end-of-line array by suffix joining.
func tokensToWords(tokens []string) (hostapi.Words, hostapi.Words) {
	if len(tokens) > hostapi.WordSlots {
		tokens = tokens[:hostapi.WordSlots]
	}
	var w, we hostapi.Words
	for i, tok := range tokens {
		w[i+1] = tok
		we[i+1] = words.Join(tokens, i)
	}
	return w, we
}

func eventAttrs(e girc.Event) hostapi.Attrs {
	return tagAttrs(e.Tags)
}

func tagAttrs(tags girc.Tags) hostapi.Attrs {
	var attrs hostapi.Attrs
	if tags == nil {
		return attrs
	}
	if v, ok := tags.Get("time"); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			attrs.ServerTimeUTC = ts.UTC()
		}
	}
	return attrs
}
