// Package directory implements the link directory backends that answer
// searches: an in-memory index, SQLite with FTS5, Postgres, and a client for
// a remote gogov server.
package directory

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/xming13/GoGovSG/internal/config"
	"github.com/xming13/GoGovSG/internal/errors"
	"github.com/xming13/GoGovSG/pkg/links"
	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchparam"
)

// Directory answers searches over links. It satisfies searchstate.Service.
type Directory interface {
	Search(ctx context.Context, p searchparam.Params) (resultstore.ResultSet, error)
	Close() error
}

// Replacer is a directory whose contents can be replaced wholesale.
type Replacer interface {
	Directory
	Replace(ctx context.Context, items []links.Summary) error
}

// Open opens the directory selected by cfg.Directory. A memory directory is
// seeded from cfg.Directory.Path when set.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Directory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dc := cfg.Directory
	switch dc.Driver {
	case config.DriverMemory:
		m := NewMemory(nil)
		if dc.Path != "" {
			items, err := Load(ctx, dc.Path, cfg.Import)
			if err != nil {
				return nil, errors.FromError(err, errors.CodeDirectoryLoad).WithField(dc.Path)
			}
			m.Set(items)
			logger.Info("directory loaded", "driver", dc.Driver, "source", dc.Path, "links", len(items))
		}
		return m, nil
	case config.DriverSQLite:
		db, err := OpenSQLite(ctx, dc.Path)
		if err != nil {
			return nil, errors.FromError(err, errors.CodeDirectoryOpen).WithField(dc.Path)
		}
		return db, nil
	case config.DriverPostgres:
		db, err := OpenPostgres(ctx, dc.DSN)
		if err != nil {
			return nil, errors.FromError(err, errors.CodeDirectoryOpen).WithField("directory.dsn")
		}
		return db, nil
	case config.DriverRemote:
		return NewClient(dc.URL, nil), nil
	default:
		return nil, errors.New(errors.CodeDirectoryDriver).WithField(dc.Driver)
	}
}

// terms splits a query into lower-cased search terms.
func terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Relevance weights of a term hit in each field.
const (
	weightShortURL    = 3
	weightDescription = 2
	weightLongURL     = 1
)

// score returns the relevance of l for terms, or 0 if some term matches no
// field.
func score(l links.Summary, terms []string) int {
	short := strings.ToLower(l.ShortURL)
	desc := strings.ToLower(l.Description)
	long := strings.ToLower(l.LongURL)
	total := 0
	for _, t := range terms {
		s := 0
		if strings.Contains(short, t) {
			s += weightShortURL
		}
		if strings.Contains(desc, t) {
			s += weightDescription
		}
		if strings.Contains(long, t) {
			s += weightLongURL
		}
		if s == 0 {
			return 0
		}
		total += s
	}
	return total
}

type scored struct {
	link  links.Summary
	score int
}

func sortScored(items []scored, order searchparam.SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch order {
		case searchparam.Recency:
			if !a.link.CreatedAt.Equal(b.link.CreatedAt) {
				return a.link.CreatedAt.After(b.link.CreatedAt)
			}
		case searchparam.Popularity:
			if a.link.Clicks != b.link.Clicks {
				return a.link.Clicks > b.link.Clicks
			}
		default:
			if a.score != b.score {
				return a.score > b.score
			}
			if a.link.Clicks != b.link.Clicks {
				return a.link.Clicks > b.link.Clicks
			}
		}
		return a.link.ShortURL < b.link.ShortURL
	})
}

// page returns the slice of items for p.
func page[T any](items []T, p searchparam.Params) []T {
	start := p.Offset()
	if start >= len(items) {
		return nil
	}
	end := len(items)
	if p.RowsPerPage < end-start {
		end = start + p.RowsPerPage
	}
	return items[start:end]
}
