package searchparam

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// URL query keys.
const (
	KeyQuery       = "query"
	KeySortOrder   = "sortOrder"
	KeyRowsPerPage = "rowsPerPage"
	KeyCurrentPage = "currentPage"
)

// Defaults for fields absent from the URL.
const (
	DefaultSortOrder   = Relevance
	DefaultRowsPerPage = 10
	DefaultCurrentPage = 0
)

// MaxRowsPerPage is the largest page size Decode accepts.
const MaxRowsPerPage = 1000

// SortOrder is the ordering of directory search results.
type SortOrder string

const (
	Relevance  SortOrder = "relevance"
	Recency    SortOrder = "recency"
	Popularity SortOrder = "popularity"
)

// SortOption pairs a sort order with the label shown in sort panels.
type SortOption struct {
	Order SortOrder
	Label string
}

var sortOptions = []SortOption{
	{Order: Relevance, Label: "Most relevant"},
	{Order: Recency, Label: "Most recent"},
	{Order: Popularity, Label: "Most popular"},
}

// SortOrders returns the supported sort orders in display order.
func SortOrders() []SortOption {
	out := make([]SortOption, len(sortOptions))
	copy(out, sortOptions)
	return out
}

// ParseSortOrder returns the sort order for a URL token.
func ParseSortOrder(s string) (SortOrder, bool) {
	for _, opt := range sortOptions {
		if string(opt.Order) == s {
			return opt.Order, true
		}
	}
	return "", false
}

// Next returns the sort order after o in display order, wrapping around.
func (o SortOrder) Next() SortOrder {
	for i, opt := range sortOptions {
		if opt.Order == o {
			return sortOptions[(i+1)%len(sortOptions)].Order
		}
	}
	return DefaultSortOrder
}

// Label returns the display label of o.
func (o SortOrder) Label() string {
	for _, opt := range sortOptions {
		if opt.Order == o {
			return opt.Label
		}
	}
	return string(o)
}

// Params is the canonical, URL-addressable search state.
// It is a value type: the With* methods return modified copies.
type Params struct {
	Query       string
	SortOrder   SortOrder
	RowsPerPage int
	CurrentPage int
}

// Default returns the Params used for an empty query string.
func Default() Params {
	return Params{
		SortOrder:   DefaultSortOrder,
		RowsPerPage: DefaultRowsPerPage,
		CurrentPage: DefaultCurrentPage,
	}
}

// Key is the canonical tuple identifying a fetch request.
type Key struct {
	Query       string
	SortOrder   SortOrder
	RowsPerPage int
	CurrentPage int
}

// Key returns the request key for p.
func (p Params) Key() Key {
	return Key(p)
}

// Active reports whether p describes an active search.
func (p Params) Active() bool {
	return p.Query != ""
}

// WithQuery returns p with the query replaced.
func (p Params) WithQuery(q string) Params {
	p.Query = q
	return p
}

// WithSortOrder returns p with the sort order replaced. The current page is
// kept.
func (p Params) WithSortOrder(o SortOrder) Params {
	p.SortOrder = o
	return p
}

// WithPage returns p pointing at page n.
func (p Params) WithPage(n int) Params {
	p.CurrentPage = n
	return p
}

// WithRowsPerPage returns p with a new page size. The current page is reset
// to 0 because the old offset no longer means the same rows.
func (p Params) WithRowsPerPage(n int) Params {
	p.RowsPerPage = n
	p.CurrentPage = 0
	return p
}

// Offset returns the index of the first row of the current page. It
// saturates at math.MaxInt instead of wrapping.
func (p Params) Offset() int {
	if p.RowsPerPage <= 0 || p.CurrentPage <= 0 {
		return 0
	}
	if p.CurrentPage > math.MaxInt/p.RowsPerPage {
		return math.MaxInt
	}
	return p.RowsPerPage * p.CurrentPage
}

// PageCount returns ceil(total / RowsPerPage).
func (p Params) PageCount(total int) int {
	if p.RowsPerPage <= 0 || total <= 0 {
		return 0
	}
	return (total + p.RowsPerPage - 1) / p.RowsPerPage
}

func (p Params) String() string {
	return Encode(p)
}

// FieldError describes a URL field that could not be used as given.
type FieldError struct {
	Key   string
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("searchparam: invalid %s %q", e.Key, e.Value)
}

// Decode parses a raw query string into Params. A leading '?' is allowed.
// Absent or malformed fields take their defaults; Decode never fails.
func Decode(raw string) Params {
	p, _ := decode(raw)
	return p
}

// DecodeStrict is Decode that also reports every field that was defaulted
// because its value was malformed. The returned Params are the same as
// Decode's.
func DecodeStrict(raw string) (Params, error) {
	p, errs := decode(raw)
	return p, errors.Join(errs...)
}

func decode(raw string) (Params, []error) {
	p := Default()
	var errs []error

	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		// ParseQuery keeps the pairs it could decode; bad escapes are dropped.
		errs = append(errs, fmt.Errorf("searchparam: %w", err))
	}

	if v, ok := first(values, KeyQuery); ok {
		p.Query = v
	}
	if v, ok := first(values, KeySortOrder); ok {
		if o, ok := ParseSortOrder(v); ok {
			p.SortOrder = o
		} else {
			errs = append(errs, &FieldError{Key: KeySortOrder, Value: v})
		}
	}
	if v, ok := first(values, KeyRowsPerPage); ok {
		if n, ok := parseInt(v); ok && n > 0 && n <= MaxRowsPerPage {
			p.RowsPerPage = n
		} else {
			errs = append(errs, &FieldError{Key: KeyRowsPerPage, Value: v})
		}
	}
	if v, ok := first(values, KeyCurrentPage); ok {
		if n, ok := parseInt(v); ok && n >= 0 {
			p.CurrentPage = n
		} else {
			errs = append(errs, &FieldError{Key: KeyCurrentPage, Value: v})
		}
	}
	return p, errs
}

// Encode serializes p with a fixed key order.
func Encode(p Params) string {
	var b strings.Builder
	b.WriteString(KeyQuery)
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(p.Query))
	b.WriteByte('&')
	b.WriteString(KeySortOrder)
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(string(p.SortOrder)))
	b.WriteByte('&')
	b.WriteString(KeyRowsPerPage)
	b.WriteByte('=')
	b.WriteString(strconv.Itoa(p.RowsPerPage))
	b.WriteByte('&')
	b.WriteString(KeyCurrentPage)
	b.WriteByte('=')
	b.WriteString(strconv.Itoa(p.CurrentPage))
	return b.String()
}

func first(values url.Values, key string) (string, bool) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// parseInt accepts decimal integers with optional surrounding spaces.
func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
