package directory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/xming13/GoGovSG/pkg/links"
	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchparam"
)

// Postgres is a directory stored in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and creates the links table if needed.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createLinksTable(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &Postgres{db: db}, nil
}

func createLinksTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS links (
			short_url   TEXT PRIMARY KEY,
			long_url    TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			clicks      BIGINT NOT NULL DEFAULT 0,
			state       TEXT NOT NULL DEFAULT 'ACTIVE',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Replace swaps the table contents for items.
func (p *Postgres) Replace(ctx context.Context, items []links.Summary) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM links`); err != nil {
		return fmt.Errorf("failed to clear links: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO links (short_url, long_url, description, clicks, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (short_url) DO UPDATE SET
			long_url = EXCLUDED.long_url,
			description = EXCLUDED.description,
			clicks = EXCLUDED.clicks,
			state = EXCLUDED.state,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range items {
		state := l.State
		if state == "" {
			state = links.StateActive
		}
		if _, err := stmt.ExecContext(ctx,
			l.ShortURL, l.LongURL, l.Description, l.Clicks, string(state), l.CreatedAt, l.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert link %s: %w", l.ShortURL, err)
		}
	}
	return tx.Commit()
}

// Search matches every term with ILIKE against the short URL, long URL and
// description.
func (p *Postgres) Search(ctx context.Context, params searchparam.Params) (resultstore.ResultSet, error) {
	rs := resultstore.ResultSet{Query: params.Query}
	q := buildPostgresSearch(params)
	if q.sql == "" {
		return rs, nil
	}

	rows, err := p.db.QueryContext(ctx, q.sql, q.args...)
	if err != nil {
		return rs, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l links.Summary
		var state string
		if err := rows.Scan(&l.ShortURL, &l.LongURL, &l.Description, &l.Clicks, &state, &l.CreatedAt, &l.UpdatedAt, &rs.TotalCount); err != nil {
			return rs, fmt.Errorf("failed to scan link: %w", err)
		}
		l.State = links.State(state)
		rs.Items = append(rs.Items, l)
	}
	if err := rows.Err(); err != nil {
		return rs, fmt.Errorf("rows error: %w", err)
	}

	if len(rs.Items) == 0 && params.Offset() > 0 {
		if err := p.db.QueryRowContext(ctx, q.count, q.countArgs...).Scan(&rs.TotalCount); err != nil {
			return rs, fmt.Errorf("failed to count links: %w", err)
		}
	}
	return rs, nil
}

type postgresSearch struct {
	sql       string
	args      []any
	count     string
	countArgs []any
}

// buildPostgresSearch builds the page query and its fallback count query.
// Terms are bound as ILIKE patterns; one placeholder per term is reused by
// the filter and the relevance score.
func buildPostgresSearch(p searchparam.Params) postgresSearch {
	ts := terms(p.Query)
	if len(ts) == 0 {
		return postgresSearch{}
	}

	var where, score []string
	args := make([]any, 0, len(ts)+2)
	for i, t := range ts {
		n := i + 1
		args = append(args, "%"+escapeLike(t)+"%")
		where = append(where, fmt.Sprintf(
			"(short_url ILIKE $%[1]d OR long_url ILIKE $%[1]d OR description ILIKE $%[1]d)", n))
		score = append(score, fmt.Sprintf(
			"(CASE WHEN short_url ILIKE $%[1]d THEN %[2]d ELSE 0 END + "+
				"CASE WHEN description ILIKE $%[1]d THEN %[3]d ELSE 0 END + "+
				"CASE WHEN long_url ILIKE $%[1]d THEN %[4]d ELSE 0 END)",
			n, weightShortURL, weightDescription, weightLongURL))
	}
	filter := "state <> 'INACTIVE' AND " + strings.Join(where, " AND ")

	var order string
	switch p.SortOrder {
	case searchparam.Recency:
		order = "created_at DESC, short_url"
	case searchparam.Popularity:
		order = "clicks DESC, short_url"
	default:
		order = "(" + strings.Join(score, " + ") + ") DESC, clicks DESC, short_url"
	}

	countArgs := append([]any(nil), args...)
	limit := len(args) + 1
	args = append(args, p.RowsPerPage, p.Offset())

	return postgresSearch{
		sql: fmt.Sprintf(`SELECT short_url, long_url, description, clicks, state, created_at, updated_at, COUNT(*) OVER ()
FROM links
WHERE %s
ORDER BY %s
LIMIT $%d OFFSET $%d`, filter, order, limit, limit+1),
		args:      args,
		count:     "SELECT COUNT(*) FROM links WHERE " + filter,
		countArgs: countArgs,
	}
}

// escapeLike escapes the LIKE wildcards in s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
