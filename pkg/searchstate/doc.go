// Package searchstate keeps the URL, the search box and the result store in
// step.
//
// The URL is the source of truth for the canonical search parameters. The
// search box shows a pending query that runs ahead of the URL while the user
// types; it is committed through the navigator's debounced path. Every other
// change (sort order, page, page size) navigates immediately so each one is a
// separate back/forward step.
//
// A host drives the controller from a single loop:
//
//	loop := searchstate.NewLoop(64)
//	ctrl := searchstate.New(searchstate.Config{
//	    Service:   dir,
//	    Navigator: nav,
//	    Store:     store,
//	    Writer:    writer,
//	    Dispatch:  loop.Dispatch,
//	})
//	history.Listen(func(c navigator.Change) { ctrl.Sync(c.Location.RawQuery) })
//	ctrl.Sync(history.Location().RawQuery) // mount
//
// Fetches run on their own goroutine and re-enter through Dispatch. Each one
// is stamped with the request key and a sequence number; a completion whose
// stamp no longer matches the canonical parameters is dropped, so the last
// request always wins regardless of network completion order.
package searchstate
