package navigator

import "sync"

// Mode determines how a navigation is recorded in history.
type Mode int

const (
	// ModePush adds a new history entry.
	ModePush Mode = iota

	// ModeReplace overwrites the current entry.
	ModeReplace
)

func (m Mode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "push"
}

// Location is a path plus its raw query string (without '?').
type Location struct {
	Path     string
	RawQuery string
}

// String returns the location as a relative URL.
func (l Location) String() string {
	if l.RawQuery == "" {
		return l.Path
	}
	return l.Path + "?" + l.RawQuery
}

// History is the navigation collaborator: the owner of the URL.
type History interface {
	Push(path, rawQuery string)
	Replace(path, rawQuery string)
	Location() Location
}

// Change describes a location change reported to MemoryHistory listeners.
type Change struct {
	Location Location
	Mode     Mode

	// Pop is true for back/forward traversal.
	Pop bool
}

// MemoryHistory is an in-process history stack with back/forward traversal.
// Listeners are called synchronously after every change, from the goroutine
// that made it.
type MemoryHistory struct {
	mu        sync.Mutex
	entries   []Location
	index     int
	listeners map[int]func(Change)
	nextID    int
}

// NewMemoryHistory returns a history holding a single initial entry.
func NewMemoryHistory(initial Location) *MemoryHistory {
	return &MemoryHistory{
		entries:   []Location{initial},
		listeners: make(map[int]func(Change)),
	}
}

// Listen registers fn for location changes and returns a function that
// removes it.
func (h *MemoryHistory) Listen(fn func(Change)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// Push adds an entry after the current one, dropping any forward entries.
func (h *MemoryHistory) Push(path, rawQuery string) {
	loc := Location{Path: path, RawQuery: rawQuery}
	h.mu.Lock()
	h.entries = append(h.entries[:h.index+1], loc)
	h.index++
	h.mu.Unlock()
	h.notify(Change{Location: loc, Mode: ModePush})
}

// Replace overwrites the current entry.
func (h *MemoryHistory) Replace(path, rawQuery string) {
	loc := Location{Path: path, RawQuery: rawQuery}
	h.mu.Lock()
	h.entries[h.index] = loc
	h.mu.Unlock()
	h.notify(Change{Location: loc, Mode: ModeReplace})
}

// Location returns the current entry.
func (h *MemoryHistory) Location() Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Back moves one entry back. It reports false at the oldest entry.
func (h *MemoryHistory) Back() bool { return h.Go(-1) }

// Forward moves one entry forward. It reports false at the newest entry.
func (h *MemoryHistory) Forward() bool { return h.Go(1) }

// Go moves delta entries through history. Out-of-range moves are ignored.
func (h *MemoryHistory) Go(delta int) bool {
	h.mu.Lock()
	target := h.index + delta
	if delta == 0 || target < 0 || target >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = target
	loc := h.entries[target]
	h.mu.Unlock()
	h.notify(Change{Location: loc, Pop: true})
	return true
}

// Len returns the number of entries.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns a copy of all entries, oldest first.
func (h *MemoryHistory) Entries() []Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Location, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *MemoryHistory) notify(c Change) {
	h.mu.Lock()
	fns := make([]func(Change), 0, len(h.listeners))
	for id := 0; id < h.nextID; id++ {
		if fn, ok := h.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
