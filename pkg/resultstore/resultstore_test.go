package resultstore

import (
	"errors"
	"testing"

	"github.com/xming13/GoGovSG/pkg/links"
)

func TestEmptySentinel(t *testing.T) {
	store, _ := New()
	snap := store.Get()
	if snap.Results.Query != "" || snap.Results.TotalCount != 0 || len(snap.Results.Items) != 0 {
		t.Errorf("sentinel = %+v", snap)
	}
	if snap.Loading || snap.Failed || snap.Version != 0 {
		t.Errorf("sentinel flags = %+v", snap)
	}
}

func TestBeginKeepsPreviousResults(t *testing.T) {
	store, w := New()
	w.Settle(ResultSet{Query: "cat", TotalCount: 1, Items: []links.Summary{{ShortURL: "cat"}}})
	w.Begin("dog")

	snap := store.Get()
	if !snap.Loading || snap.Requested != "dog" {
		t.Errorf("Loading=%v Requested=%q", snap.Loading, snap.Requested)
	}
	if snap.Results.Query != "cat" || len(snap.Results.Items) != 1 {
		t.Errorf("previous results lost: %+v", snap.Results)
	}
}

func TestSettleReplacesWholesale(t *testing.T) {
	store, w := New()
	w.Settle(ResultSet{Query: "a", TotalCount: 2, Items: []links.Summary{{ShortURL: "a1"}, {ShortURL: "a2"}}})
	w.Settle(ResultSet{Query: "b", TotalCount: 1, Items: []links.Summary{{ShortURL: "b1"}}})

	snap := store.Get()
	if snap.Results.Query != "b" || len(snap.Results.Items) != 1 || snap.Results.Items[0].ShortURL != "b1" {
		t.Errorf("results = %+v", snap.Results)
	}
}

func TestFail(t *testing.T) {
	store, w := New()
	boom := errors.New("boom")
	w.Settle(ResultSet{Query: "a", TotalCount: 1, Items: []links.Summary{{ShortURL: "a1"}}})
	w.Begin("b")
	w.Fail("b", boom)

	snap := store.Get()
	if !snap.Failed || !errors.Is(snap.Err, boom) {
		t.Errorf("Failed=%v Err=%v", snap.Failed, snap.Err)
	}
	if snap.Results.Query != "b" || snap.Results.TotalCount != 0 || len(snap.Results.Items) != 0 {
		t.Errorf("results = %+v", snap.Results)
	}
	if snap.Loading {
		t.Error("still loading after Fail")
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	store, w := New()
	items := []links.Summary{{ShortURL: "x"}}
	w.Settle(ResultSet{Query: "x", TotalCount: 1, Items: items})

	items[0].ShortURL = "mutated-input"
	snap := store.Get()
	snap.Results.Items[0].ShortURL = "mutated-output"

	if got := store.Get().Results.Items[0].ShortURL; got != "x" {
		t.Errorf("store mutated through a slice: %q", got)
	}
}

func TestSubscribe(t *testing.T) {
	store, w := New()
	var versions []uint64
	stop := store.Subscribe(func(s Snapshot) { versions = append(versions, s.Version) })

	w.Begin("a")
	w.Settle(ResultSet{Query: "a"})
	stop()
	w.Abandon()

	if len(versions) != 2 || versions[0] != 1 || versions[1] != 2 {
		t.Errorf("versions = %v", versions)
	}
	if store.Get().Version != 3 {
		t.Errorf("Version = %d, want 3", store.Get().Version)
	}
}
