package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/xming13/GoGovSG/internal/directory"
	"github.com/xming13/GoGovSG/internal/errors"
	"github.com/xming13/GoGovSG/pkg/links"
	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchparam"
)

// handleAPI serves GET /api/search. Unlike the page, it rejects malformed
// parameters instead of defaulting them.
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	p, err := searchparam.DecodeStrict(r.URL.RawQuery)
	if err != nil {
		body := directory.ErrorBody{Code: errors.CodeSearchParams, Message: err.Error()}
		var fe *searchparam.FieldError
		if stderrors.As(err, &fe) {
			body.Field = fe.Key
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	if !p.Active() {
		writeJSON(w, http.StatusOK, resultstore.ResultSet{Items: []links.Summary{}})
		return
	}

	ctx := r.Context()
	if d := s.cfg.Search.FetchTimeout.Std(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	rs, err := s.service.Search(ctx, p)
	if err != nil {
		status, code := http.StatusBadGateway, errors.CodeSearchFailed
		if stderrors.Is(err, context.DeadlineExceeded) {
			status, code = http.StatusGatewayTimeout, errors.CodeSearchTimeout
		}
		s.logger.Warn("search failed", "query", p.Query, "error", err)
		writeJSON(w, status, directory.ErrorBody{Code: code, Message: err.Error()})
		return
	}
	if rs.Query == "" {
		rs.Query = p.Query
	}
	if rs.Items == nil {
		rs.Items = []links.Summary{}
	}
	writeJSON(w, http.StatusOK, rs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
