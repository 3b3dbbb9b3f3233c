// Package navigator turns search state changes into history navigations.
//
// Two paths exist:
//
//	nav.Immediate(p)  // push now: sort, page, page size
//	nav.Debounced(p)  // push once input has been quiet for the window
//
// A burst of Debounced calls within the quiescence window produces exactly
// one navigation carrying the last value (trailing edge). Earlier calls are
// cancelled, not overwritten, so they never create a history entry.
//
// Time is injected through Clock. SystemClock is the wall clock; VirtualClock
// advances only when told to, which makes debouncing testable without
// sleeping. Hosts with an event loop wrap their clock with DispatchClock so
// timer callbacks run on the loop:
//
//	clock := navigator.DispatchClock(navigator.SystemClock{}, session.Dispatch)
//	nav := navigator.New(history, navigator.WithClock(clock))
//
// Navigator is not safe for concurrent use; it belongs to one host loop.
package navigator
