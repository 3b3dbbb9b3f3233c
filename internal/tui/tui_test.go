package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xming13/GoGovSG/internal/directory"
	"github.com/xming13/GoGovSG/pkg/links"
	"github.com/xming13/GoGovSG/pkg/navigator"
	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchparam"
	"github.com/xming13/GoGovSG/pkg/searchstate"
)

const window = 100 * time.Millisecond

func fixture() []links.Summary {
	return []links.Summary{
		{ShortURL: "cat-food", LongURL: "https://pets.example/cat-food", Description: "Cat food guide", Clicks: 50},
		{ShortURL: "dog", LongURL: "https://pets.example/dog", Description: "Dog licence", Clicks: 10},
		{ShortURL: "tax", LongURL: "https://iras.example", Description: "Income tax filing", Clicks: 900},
	}
}

type harness struct {
	t     *testing.T
	m     *Model
	clock *navigator.VirtualClock
}

func newHarness(t *testing.T, svc searchstate.Service, rawQuery string) *harness {
	t.Helper()
	clock := navigator.NewVirtualClock(time.Unix(0, 0))
	m := New(Config{
		Service:  svc,
		RawQuery: rawQuery,
		Window:   window,
		Clock:    clock,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(m.Close)
	h := &harness{t: t, m: m, clock: clock}
	h.settle()
	return h
}

// drain runs every function already queued for the loop.
func (h *harness) drain() {
	for {
		select {
		case fn := <-h.m.inbox:
			h.m.Update(dispatchMsg{fn: fn})
		default:
			return
		}
	}
}

// settle runs queued functions until no fetch is in flight.
func (h *harness) settle() {
	h.t.Helper()
	h.drain()
	deadline := time.After(5 * time.Second)
	for h.m.ctrl.State() == searchstate.Fetching {
		select {
		case fn := <-h.m.inbox:
			h.m.Update(dispatchMsg{fn: fn})
		case <-deadline:
			h.t.Fatal("fetch did not complete")
		}
	}
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) press(k tea.KeyType) tea.Cmd {
	_, cmd := h.m.Update(tea.KeyMsg{Type: k})
	return cmd
}

// elapse lets the debounce window pass and waits for the resulting fetch.
func (h *harness) elapse() {
	h.clock.Advance(window)
	h.settle()
}

func (h *harness) query() searchparam.Params {
	return searchparam.Decode(h.m.Location().RawQuery)
}

func TestInitialLocationSettles(t *testing.T) {
	h := newHarness(t, directory.NewMemory(fixture()), "query=cat")

	if got := h.m.input.Value(); got != "cat" {
		t.Errorf("input = %q, want cat", got)
	}
	view := h.m.View()
	if !strings.Contains(view, "Showing 1 links for “cat”") {
		t.Errorf("view missing header:\n%s", view)
	}
	if !strings.Contains(view, "/cat-food") {
		t.Errorf("view missing result:\n%s", view)
	}
}

func TestTypingNavigatesAfterWindow(t *testing.T) {
	h := newHarness(t, directory.NewMemory(fixture()), "")

	h.typeText("dog")
	if h.m.history.Len() != 1 {
		t.Fatalf("navigated before the window elapsed")
	}
	h.elapse()

	if q := h.query().Query; q != "dog" {
		t.Fatalf("location query = %q, want dog", q)
	}
	if h.m.history.Len() != 2 {
		t.Errorf("history entries = %d, want 2", h.m.history.Len())
	}
	items := h.m.items()
	if len(items) != 1 || items[0].ShortURL != "dog" {
		t.Errorf("items = %+v", items)
	}
}

func TestEnterSubmitsImmediately(t *testing.T) {
	h := newHarness(t, directory.NewMemory(fixture()), "")

	h.typeText("tax")
	h.press(tea.KeyEnter)
	if q := h.query().Query; q != "tax" {
		t.Fatalf("location query = %q, want tax", q)
	}
	h.settle()
	if h.m.ctrl.State() != searchstate.Settled {
		t.Errorf("state = %v", h.m.ctrl.State())
	}
}

func TestTabCyclesSortOrder(t *testing.T) {
	h := newHarness(t, directory.NewMemory(fixture()), "query=cat")

	h.press(tea.KeyTab)
	if got := h.query().SortOrder; got != searchparam.Recency {
		t.Errorf("sort order = %q, want recency", got)
	}
}

func TestRowsCycleResetsPage(t *testing.T) {
	h := newHarness(t, directory.NewMemory(fixture()), "query=cat&currentPage=2")

	h.press(tea.KeyCtrlR)
	p := h.query()
	if p.RowsPerPage != 25 || p.CurrentPage != 0 {
		t.Errorf("params = %+v, want 25 rows on page 0", p)
	}
}

func TestPaging(t *testing.T) {
	items := make([]links.Summary, 23)
	for i := range items {
		items[i] = links.Summary{ShortURL: fmt.Sprintf("cat-%02d", i), Description: "cat"}
	}
	h := newHarness(t, directory.NewMemory(items), "query=cat")

	h.press(tea.KeyPgDown)
	h.settle()
	h.press(tea.KeyPgDown)
	h.settle()
	h.press(tea.KeyPgDown)
	if got := h.query().CurrentPage; got != 2 {
		t.Errorf("page = %d, want 2 (last page)", got)
	}
	h.press(tea.KeyPgUp)
	if got := h.query().CurrentPage; got != 1 {
		t.Errorf("page = %d, want 1", got)
	}
}

func TestBackRestoresQuery(t *testing.T) {
	h := newHarness(t, directory.NewMemory(fixture()), "query=cat")

	h.m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	h.typeText("dog")
	h.elapse()
	if q := h.query().Query; q != "dog" {
		t.Fatalf("location query = %q, want dog", q)
	}

	h.press(tea.KeyCtrlB)
	h.settle()
	if q := h.query().Query; q != "cat" {
		t.Errorf("location query after back = %q, want cat", q)
	}
	if got := h.m.input.Value(); got != "cat" {
		t.Errorf("input after back = %q, want cat", got)
	}

	h.press(tea.KeyCtrlF)
	if got := h.m.input.Value(); got != "dog" {
		t.Errorf("input after forward = %q, want dog", got)
	}
}

func TestEscClearsInputOnly(t *testing.T) {
	h := newHarness(t, directory.NewMemory(fixture()), "query=cat")

	h.press(tea.KeyEsc)
	if got := h.m.input.Value(); got != "" {
		t.Errorf("input = %q, want empty", got)
	}
	if q := h.query().Query; q != "cat" {
		t.Errorf("location query = %q, want cat", q)
	}
	if !strings.Contains(h.m.View(), "/cat-food") {
		t.Error("results hidden after clearing the input")
	}
}

func TestOpenShowsDetail(t *testing.T) {
	h := newHarness(t, directory.NewMemory(fixture()), "query=pets")

	h.press(tea.KeyDown)
	h.press(tea.KeyCtrlO)
	focused, ok := h.m.focused()
	if !ok {
		t.Fatal("nothing focused")
	}
	if got, _ := h.m.selection.Selected(); got != focused.ShortURL {
		t.Errorf("selected = %q, want %q", got, focused.ShortURL)
	}
	if !strings.Contains(h.m.View(), focused.LongURL) {
		t.Error("detail pane missing long URL")
	}
}

func TestFailureShown(t *testing.T) {
	svc := searchstate.ServiceFunc(func(context.Context, searchparam.Params) (resultstore.ResultSet, error) {
		return resultstore.ResultSet{}, fmt.Errorf("offline")
	})
	h := newHarness(t, svc, "query=cat")

	if !strings.Contains(h.m.View(), "Search is unavailable") {
		t.Error("failure not shown")
	}
}

func TestCtrlCQuits(t *testing.T) {
	h := newHarness(t, directory.NewMemory(fixture()), "")

	cmd := h.press(tea.KeyCtrlC)
	if cmd == nil {
		t.Fatal("no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not quit")
	}
}

func TestNextRows(t *testing.T) {
	for in, want := range map[int]int{10: 25, 25: 50, 100: 10, 7: 10} {
		if got := nextRows(in); got != want {
			t.Errorf("nextRows(%d) = %d, want %d", in, got, want)
		}
	}
}
