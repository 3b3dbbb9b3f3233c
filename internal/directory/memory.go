package directory

import (
	"context"
	"sync"

	"github.com/xming13/GoGovSG/pkg/links"
	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchparam"
)

// Memory is an in-process directory. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	items []links.Summary
}

// NewMemory returns a directory holding a copy of items.
func NewMemory(items []links.Summary) *Memory {
	return &Memory{items: links.Clone(items)}
}

// Set replaces the contents.
func (m *Memory) Set(items []links.Summary) {
	items = links.Clone(items)
	m.mu.Lock()
	m.items = items
	m.mu.Unlock()
}

// Replace implements Replacer.
func (m *Memory) Replace(ctx context.Context, items []links.Summary) error {
	m.Set(items)
	return nil
}

// Len returns the number of links held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Search matches every term of the query, case-insensitively, against the
// short URL, long URL and description of active links.
func (m *Memory) Search(ctx context.Context, p searchparam.Params) (resultstore.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return resultstore.ResultSet{}, err
	}
	ts := terms(p.Query)
	rs := resultstore.ResultSet{Query: p.Query}
	if len(ts) == 0 {
		return rs, nil
	}

	m.mu.RLock()
	var hits []scored
	for _, l := range m.items {
		if !l.Active() {
			continue
		}
		if s := score(l, ts); s > 0 {
			hits = append(hits, scored{link: l, score: s})
		}
	}
	m.mu.RUnlock()

	sortScored(hits, p.SortOrder)
	rs.TotalCount = len(hits)
	for _, h := range page(hits, p) {
		rs.Items = append(rs.Items, h.link)
	}
	return rs, nil
}

// Close implements Directory.
func (m *Memory) Close() error { return nil }
