// Package links defines the link record shared by the directory backends,
// the result store and the presentation hosts.
package links

import "time"

// State is the lifecycle state of a short link.
type State string

const (
	StateActive   State = "ACTIVE"
	StateInactive State = "INACTIVE"
)

// Summary is one entry of the public link directory.
// ShortURL is the unique key; everything else is display data.
type Summary struct {
	ShortURL    string    `json:"shortUrl"`
	LongURL     string    `json:"longUrl"`
	Description string    `json:"description,omitempty"`
	Clicks      int64     `json:"clicks"`
	State       State     `json:"state,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Path returns the redirect path for the link, e.g. "/abc".
func (s Summary) Path() string {
	return "/" + s.ShortURL
}

// Active reports whether the link is listed in the directory. A link with
// no recorded state is active.
func (s Summary) Active() bool {
	return s.State != StateInactive
}

// Clone returns a copy of items so callers can hand out slices without
// sharing the backing array.
func Clone(items []Summary) []Summary {
	if items == nil {
		return nil
	}
	out := make([]Summary, len(items))
	copy(out, items)
	return out
}
