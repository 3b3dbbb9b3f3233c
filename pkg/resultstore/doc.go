// Package resultstore holds the last settled directory search result.
//
// The store has exactly one writer. New hands the Writer out once, at
// construction, to whoever owns fetching (the search controller); everything
// else gets the read-only Store:
//
//	store, writer := resultstore.New()
//	ctrl := searchstate.New(searchstate.Config{Writer: writer, ...})
//	page := render(store.Get())
//
// Snapshots are copies. Mutating a returned Items slice does not affect the
// store.
package resultstore
