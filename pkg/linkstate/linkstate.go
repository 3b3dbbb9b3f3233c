package linkstate

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/xming13/GoGovSG/pkg/links"
)

// SortDirection orders the link table.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// TableConfig controls the user's link table.
type TableConfig struct {
	NumberOfRows  int               `json:"numberOfRows"`
	PageNumber    int               `json:"pageNumber"`
	SortDirection SortDirection     `json:"sortDirection"`
	OrderBy       string            `json:"orderBy"`
	SearchText    string            `json:"searchText"`
	Filter        map[string]string `json:"filter"`
}

// DefaultTableConfig returns the table configuration of a fresh state.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		NumberOfRows:  10,
		PageNumber:    0,
		SortDirection: Descending,
		OrderBy:       "updatedAt",
		Filter:        map[string]string{},
	}
}

// URL is a link owned by the user.
type URL struct {
	links.Summary

	// EditedLongURL is the unsaved value of the long-URL edit box.
	EditedLongURL string `json:"editedLongUrl,omitempty"`
}

// State is the user link state.
type State struct {
	Initialised    bool
	URLs           []URL
	IsFetchingURLs bool
	ShortURL       string
	LongURL        string
	CreateURLModal bool
	TableConfig    TableConfig
	URLCount       int
}

// Initial returns the state before anything has been loaded.
func Initial() State {
	return State{TableConfig: DefaultTableConfig()}
}

// Action is a state transition understood by Reduce.
type Action interface {
	isAction()
}

type (
	// FetchingURLs marks the link table as loading or not.
	FetchingURLs bool
	// URLsLoaded replaces the link table.
	URLsLoaded []URL
	// SetShortURL sets the create form's short URL.
	SetShortURL string
	// SetLongURL sets the create form's long URL.
	SetLongURL string
	// SetRandomShortURL sets the create form's short URL to a generated key.
	SetRandomShortURL string
	// UpdateURLCount sets the total number of the user's links.
	UpdateURLCount int
)

// SetEditedLongURL updates the edit box of one link.
type SetEditedLongURL struct {
	ShortURL      string
	EditedLongURL string
}

// ToggleURLState records a link's new state.
type ToggleURLState struct {
	ShortURL string
	To       links.State
}

// SetTableConfig merges the non-nil fields of Patch into the table config.
type SetTableConfig struct {
	Patch TableConfigPatch
}

// TableConfigPatch is a partial TableConfig.
type TableConfigPatch struct {
	NumberOfRows  *int
	PageNumber    *int
	SortDirection *SortDirection
	OrderBy       *string
	SearchText    *string
	Filter        map[string]string
}

// Int returns a pointer to n, for building patches.
func Int(n int) *int { return &n }

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }

type (
	ResetInput       struct{}
	Wipe             struct{}
	OpenCreateModal  struct{}
	CloseCreateModal struct{}
)

func (FetchingURLs) isAction()      {}
func (URLsLoaded) isAction()        {}
func (SetShortURL) isAction()       {}
func (SetLongURL) isAction()        {}
func (SetRandomShortURL) isAction() {}
func (UpdateURLCount) isAction()    {}
func (SetEditedLongURL) isAction()  {}
func (ToggleURLState) isAction()    {}
func (SetTableConfig) isAction()    {}
func (ResetInput) isAction()        {}
func (Wipe) isAction()              {}
func (OpenCreateModal) isAction()   {}
func (CloseCreateModal) isAction()  {}

// Reduce returns the state after a. s is not modified; unknown actions
// return s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case FetchingURLs:
		s.IsFetchingURLs = bool(a)
	case URLsLoaded:
		s.Initialised = true
		s.URLs = append([]URL(nil), a...)
	case SetShortURL:
		s.ShortURL = string(a)
	case SetLongURL:
		s.LongURL = string(a)
	case SetRandomShortURL:
		s.ShortURL = string(a)
	case SetEditedLongURL:
		s.URLs = updateURL(s.URLs, a.ShortURL, func(u *URL) { u.EditedLongURL = a.EditedLongURL })
	case ToggleURLState:
		s.URLs = updateURL(s.URLs, a.ShortURL, func(u *URL) { u.State = a.To })
	case ResetInput:
		s.ShortURL = ""
		s.LongURL = ""
	case Wipe:
		return Initial()
	case OpenCreateModal:
		s.CreateURLModal = true
	case CloseCreateModal:
		s.CreateURLModal = false
	case SetTableConfig:
		s.TableConfig = mergeTableConfig(s.TableConfig, a.Patch)
	case UpdateURLCount:
		s.URLCount = int(a)
	}
	return s
}

// updateURL copies urls and applies fn to the entry keyed by shortURL.
func updateURL(urls []URL, shortURL string, fn func(*URL)) []URL {
	out := make([]URL, len(urls))
	copy(out, urls)
	for i := range out {
		if out[i].ShortURL == shortURL {
			fn(&out[i])
		}
	}
	return out
}

func mergeTableConfig(c TableConfig, p TableConfigPatch) TableConfig {
	if p.NumberOfRows != nil {
		c.NumberOfRows = *p.NumberOfRows
	}
	if p.PageNumber != nil {
		c.PageNumber = *p.PageNumber
	}
	if p.SortDirection != nil {
		c.SortDirection = *p.SortDirection
	}
	if p.OrderBy != nil {
		c.OrderBy = *p.OrderBy
	}
	if p.SearchText != nil {
		c.SearchText = *p.SearchText
	}
	if p.Filter != nil {
		f := make(map[string]string, len(p.Filter))
		for k, v := range p.Filter {
			f[k] = v
		}
		c.Filter = f
	}
	return c
}

// RandomShortURL returns a fresh 8-character lowercase alphanumeric key.
func RandomShortURL() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Container holds a State and applies actions to it one at a time.
type Container struct {
	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

// NewContainer returns a container holding Initial().
func NewContainer() *Container {
	return &Container{state: Initial(), listeners: make(map[int]func(State))}
}

// State returns the current state.
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch reduces a into the state and notifies subscribers with the result.
func (c *Container) Dispatch(a Action) State {
	c.mu.Lock()
	c.state = Reduce(c.state, a)
	next := c.state
	fns := make([]func(State), 0, len(c.listeners))
	for id := 0; id < c.nextID; id++ {
		if fn, ok := c.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
	return next
}

// Subscribe registers fn to run after every dispatch. The returned function
// unsubscribes.
func (c *Container) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}
