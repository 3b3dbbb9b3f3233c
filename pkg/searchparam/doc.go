// Package searchparam maps the directory search state to and from the URL
// query string.
//
// The URL is the persisted, shareable form of a search. Four keys are
// recognized:
//
//	?query=cat&sortOrder=relevance&rowsPerPage=10&currentPage=0
//
// Decode is lenient: missing or malformed fields take their defaults and the
// result is always a fully populated Params. Encode writes all four keys in a
// fixed order so that equal Params always produce equal strings.
//
// Usage:
//
//	p := searchparam.Decode(r.URL.RawQuery)
//	next := p.WithRowsPerPage(25) // also resets CurrentPage
//	http.Redirect(w, r, "/search?"+searchparam.Encode(next), http.StatusFound)
package searchparam
