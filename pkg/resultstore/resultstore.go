package resultstore

import (
	"sync"

	"github.com/xming13/GoGovSG/pkg/links"
)

// ResultSet is one page of directory search results.
type ResultSet struct {
	// Query is the query these results answer (queryEchoed).
	Query string `json:"query"`

	// TotalCount is the number of matches across all pages.
	TotalCount int `json:"totalCount"`

	Items []links.Summary `json:"items"`
}

// Snapshot is the observable state of the store.
type Snapshot struct {
	Results ResultSet

	// Loading is true between Begin and the matching Settle or Fail.
	Loading bool

	// Requested is the query of the fetch in flight while Loading.
	Requested string

	// Failed is true when the last fetch failed. Results then hold the
	// failed query with no items.
	Failed bool
	Err    error

	// Version increases with every write.
	Version uint64
}

// Store is the read side of the result container.
type Store struct {
	mu        sync.RWMutex
	snap      Snapshot
	listeners map[int]func(Snapshot)
	nextID    int
}

// Writer is the single write side of a Store.
type Writer struct {
	store *Store
}

// New creates an empty store and its only writer.
func New() (*Store, *Writer) {
	s := &Store{listeners: make(map[int]func(Snapshot))}
	return s, &Writer{store: s}
}

// Get returns the current snapshot. Before the first write it is the empty
// sentinel: no query, no items, not loading.
func (s *Store) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Subscribe registers fn to be called with a snapshot after every write.
// It returns a function that removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Begin marks a fetch for query as in flight. The previous results stay
// visible until the fetch settles.
func (w *Writer) Begin(query string) {
	w.store.write(func(snap *Snapshot) {
		snap.Loading = true
		snap.Requested = query
	})
}

// Settle replaces the results wholesale.
func (w *Writer) Settle(rs ResultSet) {
	rs.Items = links.Clone(rs.Items)
	w.store.write(func(snap *Snapshot) {
		snap.Results = rs
		snap.Loading = false
		snap.Requested = ""
		snap.Failed = false
		snap.Err = nil
	})
}

// Fail records a failed fetch for query. The result set becomes empty.
func (w *Writer) Fail(query string, err error) {
	w.store.write(func(snap *Snapshot) {
		snap.Results = ResultSet{Query: query}
		snap.Loading = false
		snap.Requested = ""
		snap.Failed = true
		snap.Err = err
	})
}

// Abandon clears the loading flag without touching the results. It is used
// when the fetch in flight stops mattering, e.g. the query was emptied.
func (w *Writer) Abandon() {
	w.store.write(func(snap *Snapshot) {
		snap.Loading = false
		snap.Requested = ""
	})
}

func (s *Store) write(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.snap.Version++
	snap := s.copyLocked()
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			fns = append(fns, l)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) copyLocked() Snapshot {
	snap := s.snap
	snap.Results.Items = links.Clone(s.snap.Results.Items)
	return snap
}
