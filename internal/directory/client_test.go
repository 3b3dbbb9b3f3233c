package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xming13/GoGovSG/internal/errors"
	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchparam"
)

func TestClientSearch(t *testing.T) {
	var got searchparam.Params
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != SearchPath {
			http.NotFound(w, r)
			return
		}
		got = searchparam.Decode(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resultstore.ResultSet{
			Query:      got.Query,
			TotalCount: 1,
			Items:      fixture()[:1],
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", srv.Client())
	p := params("cat food", searchparam.Recency, 25, 1)
	rs, err := c.Search(context.Background(), p)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got != p {
		t.Errorf("server saw %+v, want %+v", got, p)
	}
	if rs.Query != "cat food" || rs.TotalCount != 1 || rs.Items[0].ShortURL != "cat-food" {
		t.Errorf("result = %+v", rs)
	}
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorBody{Code: errors.CodeSearchParams, Message: "bad rows", Field: "rowsPerPage"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Search(context.Background(), searchparam.Default().WithQuery("cat"))
	if !errors.Is(err, errors.CodeRemoteStatus) {
		t.Fatalf("err = %v, want %s", err, errors.CodeRemoteStatus)
	}
	if e := errors.FromError(err, ""); e.Field != "rowsPerPage" || e.Wrapped.Error() != "bad rows" {
		t.Errorf("err = %+v", e)
	}
}

func TestClientPlainErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Search(context.Background(), searchparam.Default().WithQuery("cat"))
	if e := errors.FromError(err, ""); e == nil || e.Wrapped == nil || e.Wrapped.Error() != "upstream down" {
		t.Errorf("err = %v", err)
	}
}

func TestClientCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient(srv.URL, nil).Search(ctx, searchparam.Default().WithQuery("cat")); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}
