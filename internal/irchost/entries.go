package irchost

import (
	"github.com/google/uuid"

	"github.com/dshills/hookstorm/internal/hostapi"
)

// PluginEntry is one row of the host's plugin list.
type PluginEntry struct {
	Filename string
	Name     string
	Desc     string
	Version  string
}

type entries struct {
	byID  map[hostapi.EntryID]PluginEntry
	order []hostapi.EntryID
}

func (e *entries) init() {
	e.byID = make(map[hostapi.EntryID]PluginEntry)
}

// AddPluginEntry registers a plugin-list entry under a fresh opaque handle.
func (h *Host) AddPluginEntry(filename, name, desc, version string) (hostapi.EntryID, error) {
	id := hostapi.EntryID(uuid.NewString())
	h.byID[id] = PluginEntry{Filename: filename, Name: name, Desc: desc, Version: version}
	h.order = append(h.order, id)
	return id, nil
}

// RemovePluginEntry removes an entry. Unknown handles are ignored.
func (h *Host) RemovePluginEntry(id hostapi.EntryID) {
	if _, ok := h.byID[id]; !ok {
		return
	}
	delete(h.byID, id)
	for i, cur := range h.order {
		if cur == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			return
		}
	}
}

// PluginEntries returns the registered entries in registration order.
func (h *Host) PluginEntries() []PluginEntry {
	out := make([]PluginEntry, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.byID[id])
	}
	return out
}
