package navigator

import (
	"testing"
	"time"

	"github.com/xming13/GoGovSG/pkg/searchparam"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestNavigator(opts ...Option) (*Navigator, *MemoryHistory, *VirtualClock) {
	clock := NewVirtualClock(epoch)
	history := NewMemoryHistory(Location{Path: DefaultPath})
	opts = append([]Option{WithClock(clock)}, opts...)
	return New(history, opts...), history, clock
}

func params(q string) searchparam.Params {
	return searchparam.Default().WithQuery(q)
}

func TestImmediatePushes(t *testing.T) {
	nav, history, _ := newTestNavigator()

	nav.Immediate(params("a"))
	nav.Immediate(params("b"))

	entries := history.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if got := searchparam.Decode(entries[1].RawQuery).Query; got != "a" {
		t.Errorf("entry 1 query = %q, want a", got)
	}
	if got := searchparam.Decode(entries[2].RawQuery).Query; got != "b" {
		t.Errorf("entry 2 query = %q, want b", got)
	}
	if entries[2].Path != DefaultPath {
		t.Errorf("path = %q", entries[2].Path)
	}
}

func TestDebouncedBurstProducesOneNavigation(t *testing.T) {
	nav, history, clock := newTestNavigator()

	for _, q := range []string{"c", "ca", "cat"} {
		nav.Debounced(params(q))
		clock.Advance(200 * time.Millisecond)
	}
	if history.Len() != 1 {
		t.Fatalf("navigated before quiescence: %d entries", history.Len())
	}

	clock.Advance(300 * time.Millisecond)

	if history.Len() != 2 {
		t.Fatalf("entries = %d, want 2", history.Len())
	}
	if got := searchparam.Decode(history.Location().RawQuery).Query; got != "cat" {
		t.Errorf("query = %q, want cat", got)
	}
	if clock.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", clock.Pending())
	}
}

func TestDebouncedTrailingEdgePerWindow(t *testing.T) {
	nav, history, clock := newTestNavigator()

	nav.Debounced(params("one"))
	clock.Advance(DefaultWindow)
	nav.Debounced(params("two"))
	clock.Advance(DefaultWindow)

	if history.Len() != 3 {
		t.Fatalf("entries = %d, want 3", history.Len())
	}
}

func TestCancelDropsNavigation(t *testing.T) {
	nav, history, clock := newTestNavigator()

	nav.Debounced(params("x"))
	nav.Cancel()
	clock.Advance(time.Second)

	if history.Len() != 1 {
		t.Errorf("entries = %d, want 1", history.Len())
	}
	if _, ok := nav.Pending(); ok {
		t.Error("Pending should be empty after Cancel")
	}
}

func TestImmediateCancelsDebounced(t *testing.T) {
	nav, history, clock := newTestNavigator()

	nav.Debounced(params("typed"))
	nav.Immediate(params("").WithSortOrder(searchparam.Popularity))
	clock.Advance(time.Second)

	if history.Len() != 2 {
		t.Fatalf("entries = %d, want 2", history.Len())
	}
	if got := searchparam.Decode(history.Location().RawQuery).SortOrder; got != searchparam.Popularity {
		t.Errorf("sort = %q", got)
	}
}

func TestFlush(t *testing.T) {
	nav, history, clock := newTestNavigator()

	if nav.Flush() {
		t.Error("Flush with nothing armed should report false")
	}

	nav.Debounced(params("now"))
	if !nav.Flush() {
		t.Fatal("Flush should report true")
	}
	if history.Len() != 2 {
		t.Fatalf("entries = %d, want 2", history.Len())
	}

	clock.Advance(time.Second)
	if history.Len() != 2 {
		t.Errorf("timer fired after Flush: %d entries", history.Len())
	}
}

func TestDebouncedReplaceMode(t *testing.T) {
	nav, history, clock := newTestNavigator(WithDebouncedMode(ModeReplace))

	nav.Debounced(params("r"))
	clock.Advance(DefaultWindow)

	if history.Len() != 1 {
		t.Fatalf("replace mode added an entry: %d", history.Len())
	}
	if got := searchparam.Decode(history.Location().RawQuery).Query; got != "r" {
		t.Errorf("query = %q, want r", got)
	}
}

func TestCustomWindow(t *testing.T) {
	nav, history, clock := newTestNavigator(WithWindow(100 * time.Millisecond))

	nav.Debounced(params("w"))
	clock.Advance(99 * time.Millisecond)
	if history.Len() != 1 {
		t.Fatal("fired early")
	}
	clock.Advance(time.Millisecond)
	if history.Len() != 2 {
		t.Fatal("did not fire at the window")
	}
}

func TestDispatchClockStaleCallback(t *testing.T) {
	var queue []func()
	inner := NewVirtualClock(epoch)
	clock := DispatchClock(inner, func(f func()) { queue = append(queue, f) })
	history := NewMemoryHistory(Location{Path: DefaultPath})
	nav := New(history, WithClock(clock))

	nav.Debounced(params("first"))
	inner.Advance(DefaultWindow)
	if len(queue) != 1 {
		t.Fatalf("queued callbacks = %d, want 1", len(queue))
	}

	// The timer has fired into the queue, but the navigation is cancelled
	// before the loop runs it.
	nav.Cancel()
	queue[0]()

	if history.Len() != 1 {
		t.Errorf("cancelled navigation ran: %d entries", history.Len())
	}
}

func TestMemoryHistoryTraversal(t *testing.T) {
	h := NewMemoryHistory(Location{Path: "/search"})
	var changes []Change
	stop := h.Listen(func(c Change) { changes = append(changes, c) })

	h.Push("/search", "query=a")
	h.Push("/search", "query=b")

	if !h.Back() {
		t.Fatal("Back failed")
	}
	if h.Location().RawQuery != "query=a" {
		t.Errorf("after Back: %q", h.Location().RawQuery)
	}
	if !changes[len(changes)-1].Pop {
		t.Error("Back should report Pop")
	}

	h.Push("/search", "query=c")
	if h.Forward() {
		t.Error("Push should drop forward entries")
	}
	if h.Len() != 3 {
		t.Errorf("Len = %d, want 3", h.Len())
	}

	if h.Go(-10) {
		t.Error("out-of-range Go should fail")
	}

	stop()
	h.Back()
	if len(changes) != 4 {
		t.Errorf("changes = %d, want 4 (listener removed)", len(changes))
	}
}

func TestLocationString(t *testing.T) {
	if got := (Location{Path: "/search"}).String(); got != "/search" {
		t.Errorf("got %q", got)
	}
	if got := (Location{Path: "/search", RawQuery: "query=a"}).String(); got != "/search?query=a" {
		t.Errorf("got %q", got)
	}
}

func TestVirtualClockOrdering(t *testing.T) {
	clock := NewVirtualClock(epoch)
	var order []int
	clock.AfterFunc(30*time.Millisecond, func() { order = append(order, 3) })
	clock.AfterFunc(10*time.Millisecond, func() {
		order = append(order, 1)
		clock.AfterFunc(5*time.Millisecond, func() { order = append(order, 2) })
	})
	stopped := clock.AfterFunc(20*time.Millisecond, func() { order = append(order, 99) })
	stopped.Stop()

	clock.Advance(time.Second)

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if !clock.Now().Equal(epoch.Add(time.Second)) {
		t.Errorf("Now = %v", clock.Now())
	}
}
