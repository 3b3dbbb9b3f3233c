// Package linkstate holds the state of a user's own links: the link table,
// the create-link form and the table configuration.
//
// State changes go through Reduce, which is pure. A Container serializes
// dispatches and notifies subscribers:
//
//	c := linkstate.NewContainer()
//	c.Subscribe(func(s linkstate.State) { render(s) })
//	c.Dispatch(linkstate.SetShortURL("cat"))
//	c.Dispatch(linkstate.SetTableConfig{Patch: linkstate.TableConfigPatch{PageNumber: linkstate.Int(2)}})
package linkstate
