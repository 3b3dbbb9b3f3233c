// Package tui is a terminal front end for the link directory search. It
// hosts the same search controller as the web page, with an in-memory
// history standing in for the browser's.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xming13/GoGovSG/pkg/links"
	"github.com/xming13/GoGovSG/pkg/navigator"
	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchparam"
	"github.com/xming13/GoGovSG/pkg/searchstate"
	"github.com/xming13/GoGovSG/pkg/selection"
)

// RowsChoices are the page sizes ctrl+r cycles through.
var RowsChoices = []int{10, 25, 50, 100}

// Config configures a Model.
type Config struct {
	Service searchstate.Service

	// RawQuery is the initial location, e.g. "query=cat".
	RawQuery string

	Window       time.Duration
	Mode         navigator.Mode
	FetchTimeout time.Duration

	// Clock drives the debounce timer. Default: the system clock.
	Clock navigator.Clock

	Logger *slog.Logger
}

// dispatchMsg carries a function from another goroutine onto the
// bubbletea loop.
type dispatchMsg struct{ fn func() }

// Model is the bubbletea model of the terminal browser.
type Model struct {
	ctrl      *searchstate.Controller
	history   *navigator.MemoryHistory
	store     *resultstore.Store
	selection selection.State
	input     textinput.Model
	styles    styles

	inbox  chan func()
	ctx    context.Context
	cancel context.CancelFunc

	cursor int
	width  int
}

// New creates a model and syncs it to cfg.RawQuery. The first fetch, if
// any, is already in flight when New returns.
func New(cfg Config) *Model {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "tui")
	clock := cfg.Clock
	if clock == nil {
		clock = navigator.SystemClock{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		history: navigator.NewMemoryHistory(navigator.Location{Path: navigator.DefaultPath, RawQuery: cfg.RawQuery}),
		styles:  defaultStyles(),
		inbox:   make(chan func(), 64),
		ctx:     ctx,
		cancel:  cancel,
	}

	m.input = textinput.New()
	m.input.Placeholder = "Search links"
	m.input.Prompt = "› "
	m.input.Focus()

	nav := navigator.New(m.history,
		navigator.WithClock(navigator.DispatchClock(clock, m.dispatch)),
		navigator.WithWindow(cfg.Window),
		navigator.WithDebouncedMode(cfg.Mode),
		navigator.WithLogger(logger),
	)
	store, writer := resultstore.New()
	m.store = store
	m.ctrl = searchstate.New(searchstate.Config{
		Service:      cfg.Service,
		Navigator:    nav,
		Store:        store,
		Writer:       writer,
		Dispatch:     m.dispatch,
		Context:      ctx,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logger,
	})
	m.history.Listen(func(c navigator.Change) {
		m.ctrl.Sync(c.Location.RawQuery)
	})

	m.ctrl.Sync(cfg.RawQuery)
	m.input.SetValue(m.ctrl.PendingQuery())
	return m
}

func (m *Model) dispatch(fn func()) {
	select {
	case m.inbox <- fn:
	case <-m.ctx.Done():
	}
}

func (m *Model) waitDispatch() tea.Cmd {
	return func() tea.Msg {
		select {
		case fn := <-m.inbox:
			return dispatchMsg{fn: fn}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// Close stops the controller. Pending dispatches are dropped.
func (m *Model) Close() {
	m.ctrl.Close()
	m.cancel()
}

// Controller returns the search controller.
func (m *Model) Controller() *searchstate.Controller { return m.ctrl }

// Location returns the current history location.
func (m *Model) Location() navigator.Location { return m.history.Location() }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitDispatch())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case dispatchMsg:
		msg.fn()
		cmds = append(cmds, m.waitDispatch())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(10, msg.Width-4)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Close()
			return m, tea.Quit
		}
		if cmd, handled := m.handleKey(msg); handled {
			cmds = append(cmds, cmd)
			break
		}
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		if v := m.input.Value(); v != before {
			m.ctrl.OnQueryChange(v)
		}

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.reconcile()
	return m, tea.Batch(cmds...)
}

// handleKey handles the bindings that are not text editing.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	p := m.ctrl.Params()
	switch msg.String() {
	case "enter":
		m.ctrl.OnSubmit()
	case "esc":
		m.ctrl.OnClearQuery()
	case "tab":
		m.ctrl.OnSortOrderChange(p.SortOrder.Next())
	case "pgdown":
		if p.CurrentPage+1 < m.ctrl.PageCount() {
			m.ctrl.OnPageChange(p.CurrentPage + 1)
		}
	case "pgup":
		if p.CurrentPage > 0 {
			m.ctrl.OnPageChange(p.CurrentPage - 1)
		}
	case "ctrl+r":
		m.ctrl.OnRowsPerPageChange(nextRows(p.RowsPerPage))
	case "ctrl+b":
		m.history.Back()
	case "ctrl+f":
		m.history.Forward()
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down":
		m.cursor++
	case "ctrl+o":
		if item, ok := m.focused(); ok {
			m.selection.Click(item.ShortURL, true)
		}
	default:
		return nil, false
	}
	return nil, true
}

func nextRows(n int) int {
	for i, c := range RowsChoices {
		if c == n {
			return RowsChoices[(i+1)%len(RowsChoices)]
		}
	}
	return RowsChoices[0]
}

// reconcile brings the text input and cursor in line with the controller.
func (m *Model) reconcile() {
	if pending := m.ctrl.PendingQuery(); m.input.Value() != pending {
		m.input.SetValue(pending)
		m.input.CursorEnd()
	}
	n := len(m.items())
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m *Model) items() []links.Summary {
	v := m.ctrl.View()
	if !v.ShowResults {
		return nil
	}
	return v.Results.Items
}

func (m *Model) focused() (links.Summary, bool) {
	items := m.items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return links.Summary{}, false
	}
	return items[m.cursor], true
}

func (m *Model) View() string {
	v := m.ctrl.View()
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("go.gov.sg directory"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.options(v.Params))
	b.WriteString("\n\n")

	switch {
	case v.Failed:
		b.WriteString(m.styles.Error.Render("Search is unavailable right now."))
		b.WriteString("\n")
	case v.Loading && !v.ShowResults:
		b.WriteString(m.styles.Loading.Render("Searching…"))
		b.WriteString("\n")
	}

	if v.ShowResults {
		header := v.Header
		if v.Loading {
			header += m.styles.Loading.Render("  (updating)")
		}
		b.WriteString(m.styles.Header.Render(header))
		b.WriteString("\n")
		b.WriteString(m.table(v))
		if v.PageCount > 1 {
			fmt.Fprintf(&b, "\n%s\n", m.styles.Dim.Render(fmt.Sprintf("Page %d of %d", v.Params.CurrentPage+1, v.PageCount)))
		}
	}

	if item, ok := m.selection.Resolve(m.items()); ok {
		b.WriteString("\n")
		b.WriteString(m.detail(item))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Status.Render(" " + m.history.Location().String() + " "))
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("enter search · esc clear · tab sort · pgup/pgdn page · ctrl+r rows · ctrl+b/f back/forward · ctrl+o open · ctrl+c quit"))
	return b.String()
}

func (m *Model) options(p searchparam.Params) string {
	parts := make([]string, 0, len(searchparam.SortOrders())+1)
	for _, opt := range searchparam.SortOrders() {
		if opt.Order == p.SortOrder {
			parts = append(parts, m.styles.Selected.Render(opt.Label))
		} else {
			parts = append(parts, m.styles.Dim.Render(opt.Label))
		}
	}
	parts = append(parts, m.styles.Dim.Render(fmt.Sprintf("%d rows", p.RowsPerPage)))
	return strings.Join(parts, "  ")
}

func (m *Model) table(v searchstate.View) string {
	style := lipgloss.NewStyle()
	if v.Stale {
		style = m.styles.Dim
	}
	selected, _ := m.selection.Selected()

	var b strings.Builder
	for i, item := range v.Results.Items {
		marker := "  "
		if item.ShortURL == selected {
			marker = "● "
		}
		line := fmt.Sprintf("%s%-24s %-40s %8d clicks", marker, item.Path(), truncate(item.Description, 40), item.Clicks)
		if i == m.cursor {
			line = m.styles.Cursor.Render(line)
		} else {
			line = style.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) detail(item links.Summary) string {
	body := fmt.Sprintf("%s\n%s\n%s\n%d clicks · updated %s",
		m.styles.Header.Render(item.Path()),
		item.Description,
		item.LongURL,
		item.Clicks,
		item.UpdatedAt.Format("2 Jan 2006"))
	width := 60
	if m.width > 0 {
		width = min(width, m.width-2)
	}
	return m.styles.Detail.Width(width).Render(body)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, cfg Config, opts ...tea.ProgramOption) error {
	m := New(cfg)
	defer m.Close()
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}
