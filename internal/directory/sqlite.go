package directory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/xming13/GoGovSG/pkg/links"
	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchparam"
)

// sqliteTime is a fixed-width layout so that text order is time order.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS links (
	short_url   TEXT PRIMARY KEY,
	long_url    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	clicks      INTEGER NOT NULL DEFAULT 0,
	state       TEXT NOT NULL DEFAULT 'ACTIVE',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS links_created_at ON links(created_at);
CREATE INDEX IF NOT EXISTS links_clicks ON links(clicks);
CREATE VIRTUAL TABLE IF NOT EXISTS links_fts USING fts5(
	short_url,
	long_url,
	description,
	content='links',
	content_rowid='rowid'
);`

// SQLite is a directory stored in a SQLite database with an FTS5 index.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Replace swaps the contents for items and rebuilds the full-text index.
func (s *SQLite) Replace(ctx context.Context, items []links.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM links`); err != nil {
		return fmt.Errorf("clearing links: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO links (short_url, long_url, description, clicks, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, l := range items {
		state := l.State
		if state == "" {
			state = links.StateActive
		}
		if _, err := stmt.ExecContext(ctx,
			l.ShortURL, l.LongURL, l.Description, l.Clicks, string(state),
			l.CreatedAt.UTC().Format(sqliteTime), l.UpdatedAt.UTC().Format(sqliteTime),
		); err != nil {
			return fmt.Errorf("inserting link %s: %w", l.ShortURL, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO links_fts(links_fts) VALUES('rebuild')`); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}
	return tx.Commit()
}

// Search runs the query against the FTS5 index. Each term matches as a
// prefix; all terms must match.
func (s *SQLite) Search(ctx context.Context, p searchparam.Params) (resultstore.ResultSet, error) {
	rs := resultstore.ResultSet{Query: p.Query}
	match := ftsQuery(p.Query)
	if match == "" {
		return rs, nil
	}

	var order string
	switch p.SortOrder {
	case searchparam.Recency:
		order = "l.created_at DESC, l.short_url"
	case searchparam.Popularity:
		order = "l.clicks DESC, l.short_url"
	default:
		order = "bm25(links_fts, 3.0, 1.0, 2.0), l.clicks DESC, l.short_url"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT l.short_url, l.long_url, l.description, l.clicks, l.state, l.created_at, l.updated_at,
		       COUNT(*) OVER ()
		FROM links_fts
		JOIN links l ON l.rowid = links_fts.rowid
		WHERE links_fts MATCH ? AND l.state <> 'INACTIVE'
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`,
		match, p.RowsPerPage, p.Offset())
	if err != nil {
		return rs, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l links.Summary
		var state, created, updated string
		if err := rows.Scan(&l.ShortURL, &l.LongURL, &l.Description, &l.Clicks, &state, &created, &updated, &rs.TotalCount); err != nil {
			return rs, fmt.Errorf("scanning link: %w", err)
		}
		l.State = links.State(state)
		l.CreatedAt, _ = time.Parse(sqliteTime, created)
		l.UpdatedAt, _ = time.Parse(sqliteTime, updated)
		rs.Items = append(rs.Items, l)
	}
	if err := rows.Err(); err != nil {
		return rs, fmt.Errorf("reading links: %w", err)
	}

	if len(rs.Items) == 0 && p.Offset() > 0 {
		// Past the last page: the window count is unavailable.
		err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM links_fts
			JOIN links l ON l.rowid = links_fts.rowid
			WHERE links_fts MATCH ? AND l.state <> 'INACTIVE'`, match).Scan(&rs.TotalCount)
		if err != nil {
			return rs, fmt.Errorf("counting links: %w", err)
		}
	}
	return rs, nil
}

// ftsQuery quotes each term as an FTS5 string with a prefix marker, so user
// input never reaches the FTS5 query syntax.
func ftsQuery(query string) string {
	ts := terms(query)
	quoted := make([]string, 0, len(ts))
	for _, t := range ts {
		if !strings.ContainsFunc(t, isWordRune) {
			continue
		}
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"*`)
	}
	return strings.Join(quoted, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
