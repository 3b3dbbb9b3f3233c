package server

import (
	"net/http"

	"github.com/xming13/GoGovSG/pkg/navigator"
	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchstate"
)

// handlePage renders the search page for the URL it was requested with.
// The first fetch runs to completion before the page is written, so the
// page is complete without JavaScript; the live session takes over from
// there.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loop := searchstate.NewLoop(4)
	store, writer := resultstore.New()
	history := navigator.NewMemoryHistory(navigator.Location{
		Path:     navigator.DefaultPath,
		RawQuery: r.URL.RawQuery,
	})

	ctrl := searchstate.New(searchstate.Config{
		Service:      s.service,
		Navigator:    navigator.New(history, navigator.WithLogger(s.logger)),
		Store:        store,
		Writer:       writer,
		Dispatch:     loop.Dispatch,
		Context:      ctx,
		FetchTimeout: s.cfg.Search.FetchTimeout.Std(),
		Logger:       s.logger,
		Hooks:        s.hooks(),
	})
	defer ctrl.Close()

	ctrl.Sync(r.URL.RawQuery)
	if err := loop.RunUntil(ctx, func() bool { return ctrl.State() != searchstate.Fetching }); err != nil {
		// Client went away.
		return
	}

	data := pageData{
		Results: buildResults(ctrl.View(), nil),
		LiveURL: "/live?" + r.URL.RawQuery,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "page", data); err != nil {
		s.logger.Error("render page", "error", err)
	}
}
