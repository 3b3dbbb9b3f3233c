package searchstate

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchparam"
)

// State is the fetch state of the controller.
type State int

const (
	Idle     State = iota // No active query
	Fetching              // A fetch for the current key is in flight
	Settled               // The last fetch for the current key succeeded
	Failed                // The last fetch for the current key failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Settled:
		return "settled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Service executes directory searches.
type Service interface {
	Search(ctx context.Context, p searchparam.Params) (resultstore.ResultSet, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, p searchparam.Params) (resultstore.ResultSet, error)

func (f ServiceFunc) Search(ctx context.Context, p searchparam.Params) (resultstore.ResultSet, error) {
	return f(ctx, p)
}

// Navigator is the navigation side the controller writes to.
type Navigator interface {
	Immediate(p searchparam.Params)
	Debounced(p searchparam.Params)
	Cancel()
	Flush() bool
}

// Hooks observe the fetch lifecycle. Any field may be nil.
type Hooks struct {
	Dispatched func(key searchparam.Key)
	Settled    func(key searchparam.Key, took time.Duration)
	Failed     func(key searchparam.Key, err error, took time.Duration)
	Discarded  func(key searchparam.Key)
}

// Config holds the controller's collaborators.
type Config struct {
	Service   Service
	Navigator Navigator
	Store     *resultstore.Store
	Writer    *resultstore.Writer

	// Dispatch runs a function on the host loop. Fetch completions are
	// delivered through it. Required: completions run on the service's
	// goroutine otherwise.
	Dispatch func(func())

	// Context is the parent of every fetch context. Default: Background.
	Context context.Context

	// FetchTimeout bounds each fetch. Zero means no timeout.
	FetchTimeout time.Duration

	Logger *slog.Logger
	Hooks  Hooks
}

type request struct {
	seq     uint64
	key     searchparam.Key
	cancel  context.CancelFunc
	started time.Time
}

// Controller is the search-state synchronizer for one mounted view.
// It is not safe for concurrent use; all calls must come from the host loop.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	mounted bool
	params  searchparam.Params
	pending string

	// armed is the query handed to the debounced path and not yet seen
	// back through Sync.
	armed      string
	armedValid bool

	state    State
	err      error
	seq      uint64
	inflight *request
}

// New creates a controller. It does nothing until the first Sync.
// New panics if cfg.Dispatch is nil.
func New(cfg Config) *Controller {
	if cfg.Dispatch == nil {
		panic("searchstate: Config.Dispatch is required")
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "searchstate")
	}
	return &Controller{
		cfg:    cfg,
		logger: logger,
		params: searchparam.Default(),
	}
}

// Sync reconciles the controller with the current URL query string. Call it
// on mount and after every location change, including back/forward.
func (c *Controller) Sync(rawQuery string) {
	p := searchparam.Decode(rawQuery)
	first := !c.mounted
	if !first && p.Key() == c.params.Key() {
		if c.armedValid && p.Query == c.armed {
			// Our own navigation landed on an identical location.
			c.armedValid = false
		}
		return
	}
	prev := c.params
	c.mounted = true
	c.params = p

	if first || p.Query != prev.Query {
		c.reconcilePending(p.Query, first)
	}

	if !p.Active() {
		c.toIdle()
		return
	}
	c.fetch(p)
}

// reconcilePending resets the pending query when the URL query changed from
// outside the controller. The landing of our own debounced navigation is not
// outside: resetting then would drop keystrokes typed since it fired.
func (c *Controller) reconcilePending(query string, first bool) {
	if !first && c.armedValid && query == c.armed {
		c.armedValid = false
		return
	}
	if c.armedValid {
		// A navigation still armed would undo this external change.
		c.cfg.Navigator.Cancel()
		c.armedValid = false
	}
	c.pending = query
}

func (c *Controller) toIdle() {
	if c.inflight != nil {
		c.inflight.cancel()
		c.inflight = nil
		c.cfg.Writer.Abandon()
	}
	// Bump the sequence so a completion already queued is stale.
	c.seq++
	c.state = Idle
	c.err = nil
}

func (c *Controller) fetch(p searchparam.Params) {
	if c.inflight != nil {
		c.inflight.cancel()
	}
	c.seq++

	ctx, cancel := context.WithCancel(c.cfg.Context)
	if c.cfg.FetchTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.cfg.FetchTimeout)
		parent := cancel
		cancel = func() {
			cancelTimeout()
			parent()
		}
	}

	req := &request{seq: c.seq, key: p.Key(), cancel: cancel, started: time.Now()}
	c.inflight = req
	c.state = Fetching
	c.err = nil
	c.cfg.Writer.Begin(p.Query)

	c.logger.Debug("search dispatched",
		"query", p.Query,
		"sort_order", p.SortOrder,
		"rows", p.RowsPerPage,
		"page", p.CurrentPage,
		"seq", req.seq)
	if c.cfg.Hooks.Dispatched != nil {
		c.cfg.Hooks.Dispatched(req.key)
	}

	go func() {
		rs, err := c.search(ctx, p)
		c.cfg.Dispatch(func() { c.complete(req, rs, err) })
	}()
}

// search calls the service, turning a panic into an error.
func (c *Controller) search(ctx context.Context, p searchparam.Params) (rs resultstore.ResultSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("search service panic",
				"panic", r,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("searchstate: service panic: %v", r)
		}
	}()
	return c.cfg.Service.Search(ctx, p)
}

func (c *Controller) complete(req *request, rs resultstore.ResultSet, err error) {
	req.cancel()
	took := time.Since(req.started)

	if c.inflight != req || req.key != c.params.Key() {
		c.logger.Debug("stale search result dropped", "query", req.key.Query, "seq", req.seq)
		if c.cfg.Hooks.Discarded != nil {
			c.cfg.Hooks.Discarded(req.key)
		}
		return
	}
	c.inflight = nil

	if err != nil {
		c.state = Failed
		c.err = err
		c.cfg.Writer.Fail(req.key.Query, err)
		c.logger.Warn("search failed", "query", req.key.Query, "seq", req.seq, "error", err)
		if c.cfg.Hooks.Failed != nil {
			c.cfg.Hooks.Failed(req.key, err, took)
		}
		return
	}

	if rs.Query == "" {
		rs.Query = req.key.Query
	}
	c.state = Settled
	c.cfg.Writer.Settle(rs)
	if c.cfg.Hooks.Settled != nil {
		c.cfg.Hooks.Settled(req.key, took)
	}
}

// OnQueryChange records a keystroke. The pending query changes at once; the
// URL follows after the quiescence window. No fetch happens here: the fetch
// is triggered by the URL change coming back through Sync.
func (c *Controller) OnQueryChange(text string) {
	c.pending = text
	c.armed = text
	c.armedValid = true
	c.cfg.Navigator.Debounced(c.params.WithQuery(text))
}

// OnSortOrderChange navigates to the new sort order. The current page is
// kept.
func (c *Controller) OnSortOrderChange(o searchparam.SortOrder) {
	if _, ok := searchparam.ParseSortOrder(string(o)); !ok {
		c.logger.Warn("unknown sort order ignored", "sort_order", o)
		return
	}
	c.immediate(c.target().WithSortOrder(o))
}

// OnPageChange navigates to page n (zero-based).
func (c *Controller) OnPageChange(n int) {
	if n < 0 {
		return
	}
	c.immediate(c.target().WithPage(n))
}

// OnRowsPerPageChange navigates to a new page size and back to page 0.
func (c *Controller) OnRowsPerPageChange(n int) {
	if n <= 0 || n > searchparam.MaxRowsPerPage {
		return
	}
	c.immediate(c.target().WithRowsPerPage(n))
}

// OnClearQuery empties the search box. The URL keeps its query until the
// user types again; a debounced navigation still armed is dropped.
func (c *Controller) OnClearQuery() {
	c.pending = ""
	c.armedValid = false
	c.cfg.Navigator.Cancel()
}

// OnSubmit commits the pending query without waiting for the window.
func (c *Controller) OnSubmit() {
	c.cfg.Navigator.Flush()
}

// Close drops any armed navigation and the fetch in flight.
func (c *Controller) Close() {
	c.cfg.Navigator.Cancel()
	c.armedValid = false
	if c.inflight != nil {
		c.inflight.cancel()
		c.inflight = nil
	}
	c.seq++
}

// target is the location the user is looking at: the canonical params with
// any query still waiting out the quiescence window.
func (c *Controller) target() searchparam.Params {
	if c.armedValid {
		return c.params.WithQuery(c.armed)
	}
	return c.params
}

// immediate navigates at once. The armed query is already folded into p,
// so the debounced navigation it replaces is dropped.
func (c *Controller) immediate(p searchparam.Params) {
	c.armedValid = false
	c.cfg.Navigator.Immediate(p)
}

// Params returns the canonical parameters.
func (c *Controller) Params() searchparam.Params { return c.params }

// PendingQuery returns what the search box shows.
func (c *Controller) PendingQuery() string { return c.pending }

// State returns the fetch state.
func (c *Controller) State() State { return c.state }

// Err returns the error of the last failed fetch while in Failed.
func (c *Controller) Err() error { return c.err }

// PageCount returns ceil(total results / rows per page). It is derived on
// every call.
func (c *Controller) PageCount() int {
	return c.params.PageCount(c.cfg.Store.Get().Results.TotalCount)
}

// View is a render snapshot of the controller and the result store.
type View struct {
	Params       searchparam.Params
	PendingQuery string
	State        State

	// ShowResults is false while idle and before anything has settled.
	ShowResults bool

	// Results are the last settled results. While Fetching they answer the
	// previous key; Stale is then true if their query differs from the
	// canonical one.
	Results resultstore.ResultSet
	Stale   bool

	Loading   bool
	Failed    bool
	PageCount int

	// Header is the results heading, e.g. `Showing 23 links for “cat”`.
	Header string
}

// View builds a render snapshot.
func (c *Controller) View() View {
	snap := c.cfg.Store.Get()
	v := View{
		Params:       c.params,
		PendingQuery: c.pending,
		State:        c.state,
		Loading:      c.state == Fetching,
		Failed:       c.state == Failed,
	}
	if c.state == Idle {
		return v
	}

	echoed := strings.TrimSpace(snap.Results.Query)
	v.Results = snap.Results
	v.ShowResults = echoed != ""
	v.Stale = snap.Results.Query != c.params.Query
	v.PageCount = c.params.PageCount(snap.Results.TotalCount)
	if v.ShowResults {
		v.Header = Header(snap.Results.TotalCount, echoed)
	}
	return v
}

// Header formats the results heading.
func Header(count int, query string) string {
	return fmt.Sprintf("Showing %d links for “%s”", count, strings.TrimSpace(query))
}
