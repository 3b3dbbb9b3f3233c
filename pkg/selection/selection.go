// Package selection tracks which search result is focused for the detail
// view. The state is local to one rendering context and is never written to
// the URL.
package selection

import "github.com/xming13/GoGovSG/pkg/links"

// State holds the selected short URL, if any. The zero value has nothing
// selected.
type State struct {
	shortURL string
	ok       bool

	// Redirect performs the external navigation used on wide viewports.
	// Nil disables it.
	Redirect func(path string)
}

// Select focuses shortURL.
func (s *State) Select(shortURL string) {
	s.shortURL = shortURL
	s.ok = true
}

// Clear removes the selection.
func (s *State) Clear() {
	s.shortURL = ""
	s.ok = false
}

// Selected returns the selected key.
func (s *State) Selected() (string, bool) {
	return s.shortURL, s.ok
}

// Resolve looks the selected key up in items. It reports false when nothing
// is selected or the item is not on the current page.
func (s *State) Resolve(items []links.Summary) (links.Summary, bool) {
	if !s.ok {
		return links.Summary{}, false
	}
	for _, item := range items {
		if item.ShortURL == s.shortURL {
			return item, true
		}
	}
	return links.Summary{}, false
}

// Click handles activation of a result. Narrow viewports open the detail
// view; wide ones redirect to the short link itself.
func (s *State) Click(shortURL string, narrow bool) {
	if narrow {
		s.Select(shortURL)
		return
	}
	if s.Redirect != nil {
		s.Redirect(links.Summary{ShortURL: shortURL}.Path())
	}
}
