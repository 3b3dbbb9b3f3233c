package navigator

import (
	"log/slog"
	"time"

	"github.com/xming13/GoGovSG/pkg/searchparam"
)

// DefaultWindow is the quiescence window of the debounced path.
const DefaultWindow = 500 * time.Millisecond

// DefaultPath is the path navigations point at.
const DefaultPath = "/search"

// Navigator schedules search navigations, either immediately or debounced.
type Navigator struct {
	history      History
	clock        Clock
	window       time.Duration
	path         string
	debounceMode Mode
	logger       *slog.Logger

	timer   Timer
	gen     uint64
	pending *searchparam.Params
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithClock sets the clock used for the debounce timer.
func WithClock(c Clock) Option {
	return func(n *Navigator) { n.clock = c }
}

// WithWindow sets the quiescence window.
func WithWindow(d time.Duration) Option {
	return func(n *Navigator) {
		if d > 0 {
			n.window = d
		}
	}
}

// WithPath sets the path navigations point at.
func WithPath(path string) Option {
	return func(n *Navigator) { n.path = path }
}

// WithDebouncedMode sets how debounced navigations are recorded.
// The default is ModePush.
func WithDebouncedMode(m Mode) Option {
	return func(n *Navigator) { n.debounceMode = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Navigator) { n.logger = l }
}

// New creates a Navigator writing to history.
func New(history History, opts ...Option) *Navigator {
	n := &Navigator{
		history:      history,
		clock:        SystemClock{},
		window:       DefaultWindow,
		path:         DefaultPath,
		debounceMode: ModePush,
		logger:       slog.Default().With("component", "navigator"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Window returns the quiescence window.
func (n *Navigator) Window() time.Duration {
	return n.window
}

// Immediate navigates to p now. An armed debounced navigation is cancelled.
func (n *Navigator) Immediate(p searchparam.Params) {
	n.Cancel()
	n.commit(ModePush, p)
}

// Debounced navigates to p once no further Debounced call has arrived for the
// quiescence window. Each call cancels the previously armed one.
func (n *Navigator) Debounced(p searchparam.Params) {
	if n.timer != nil {
		n.timer.Stop()
	}
	n.gen++
	gen := n.gen
	n.pending = &p
	n.timer = n.clock.AfterFunc(n.window, func() { n.fire(gen) })
}

// Pending returns the params of the armed debounced navigation, if any.
func (n *Navigator) Pending() (searchparam.Params, bool) {
	if n.pending == nil {
		return searchparam.Params{}, false
	}
	return *n.pending, true
}

// Cancel disarms the debounced navigation without navigating.
func (n *Navigator) Cancel() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.pending = nil
	// A callback already handed to a dispatcher sees a stale generation.
	n.gen++
}

// Flush performs the armed debounced navigation now. It reports whether there
// was one.
func (n *Navigator) Flush() bool {
	p, ok := n.Pending()
	if !ok {
		return false
	}
	n.Cancel()
	n.commit(n.debounceMode, p)
	return true
}

func (n *Navigator) fire(gen uint64) {
	if gen != n.gen || n.pending == nil {
		return
	}
	p := *n.pending
	n.pending = nil
	n.timer = nil
	n.commit(n.debounceMode, p)
}

func (n *Navigator) commit(mode Mode, p searchparam.Params) {
	raw := searchparam.Encode(p)
	n.logger.Debug("navigate", "mode", mode, "location", n.path+"?"+raw)
	if mode == ModeReplace {
		n.history.Replace(n.path, raw)
		return
	}
	n.history.Push(n.path, raw)
}
