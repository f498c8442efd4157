package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/contact-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	position     INTEGER NOT NULL,
	base_website TEXT NOT NULL,
	url          TEXT NOT NULL,
	role         TEXT NOT NULL,
	emails       TEXT NOT NULL,
	phones       TEXT NOT NULL,
	fetched      INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS contacts (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	position    INTEGER NOT NULL,
	website     TEXT NOT NULL,
	source_page TEXT NOT NULL,
	value       TEXT NOT NULL,
	type        TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS matches (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	position     INTEGER NOT NULL,
	website      TEXT NOT NULL,
	status       TEXT NOT NULL,
	tier         TEXT NOT NULL,
	organization TEXT NOT NULL,
	result       TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS crawl_cache (
	website    TEXT PRIMARY KEY,
	pages      TEXT NOT NULL,
	crawled_at DATETIME NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_contacts_value ON contacts(value);
CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(run_id, status);
CREATE INDEX IF NOT EXISTS idx_crawl_cache_expires_at ON crawl_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, kind string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, kind, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Kind:      kind,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET summary = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(summaryJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET error = ?, status = ?, updated_at = ? WHERE id = ?`,
		reason, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, status, summary, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, kind, status, summary, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SavePages(ctx context.Context, runID string, pages []model.ScrapedPage) error {
	return s.replace(ctx, "pages", runID, len(pages),
		`INSERT INTO pages (run_id, position, base_website, url, role, emails, phones, fetched) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		func(stmt *sql.Stmt, i int) error {
			p := pages[i]
			emails, err := json.Marshal(nonNil(p.Emails))
			if err != nil {
				return err
			}
			phones, err := json.Marshal(nonNil(p.Phones))
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx, runID, i, p.BaseWebsite, p.URL, string(p.Role), string(emails), string(phones), p.Fetched)
			return err
		})
}

func (s *SQLiteStore) SaveContacts(ctx context.Context, runID string, contacts []model.ContactRecord) error {
	return s.replace(ctx, "contacts", runID, len(contacts),
		`INSERT INTO contacts (run_id, position, website, source_page, value, type) VALUES (?, ?, ?, ?, ?, ?)`,
		func(stmt *sql.Stmt, i int) error {
			c := contacts[i]
			_, err := stmt.ExecContext(ctx, runID, i, c.Website, c.SourcePage, c.Value, string(c.Type))
			return err
		})
}

func (s *SQLiteStore) ListContacts(ctx context.Context, runID string) ([]model.ContactRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT website, source_page, value, type FROM contacts WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ContactRecord
	for rows.Next() {
		var c model.ContactRecord
		if err := rows.Scan(&c.Website, &c.SourcePage, &c.Value, &c.Type); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list contacts iterate")
}

func (s *SQLiteStore) SaveMatches(ctx context.Context, runID string, records []model.ReconciledRecord) error {
	return s.replace(ctx, "matches", runID, len(records),
		`INSERT INTO matches (run_id, position, website, status, tier, organization, result) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		func(stmt *sql.Stmt, i int) error {
			r := records[i]
			org, res, err := marshalRecord(r)
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx, runID, i, r.Organization.Website,
				string(r.Match.Status), string(r.Match.Tier), string(org), string(res))
			return err
		})
}

func (s *SQLiteStore) ListMatches(ctx context.Context, runID string) ([]model.ReconciledRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT organization, result FROM matches WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list matches")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ReconciledRecord
	for rows.Next() {
		var org, res string
		if err := rows.Scan(&org, &res); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan match")
		}
		r, err := unmarshalRecord([]byte(org), []byte(res))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list matches iterate")
}

func (s *SQLiteStore) GetCachedSession(ctx context.Context, website string) (*model.CrawlSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT pages FROM crawl_cache WHERE website = ? AND expires_at > ?`,
		website, time.Now().Unix(),
	)

	var pagesJSON string
	err := row.Scan(&pagesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached session")
	}

	cs := model.CrawlSession{Website: website}
	if err := json.Unmarshal([]byte(pagesJSON), &cs.Pages); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached pages")
	}
	return &cs, nil
}

func (s *SQLiteStore) SetCachedSession(ctx context.Context, cs model.CrawlSession, ttl time.Duration) error {
	now := time.Now().UTC()
	pagesJSON, err := json.Marshal(cs.Pages)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pages")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO crawl_cache (website, pages, crawled_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(website) DO UPDATE SET pages = excluded.pages, crawled_at = excluded.crawled_at, expires_at = excluded.expires_at`,
		cs.Website, string(pagesJSON), now, now.Add(ttl).Unix(),
	)
	return eris.Wrap(err, "sqlite: set cached session")
}

// replace swaps every row of table belonging to runID in one transaction.
func (s *SQLiteStore) replace(ctx context.Context, table, runID string, n int, insert string, exec func(*sql.Stmt, int) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: begin %s tx", table)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, runID); err != nil {
		return eris.Wrapf(err, "sqlite: clear %s", table)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare %s insert", table)
	}
	defer stmt.Close() //nolint:errcheck

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return eris.Wrapf(err, "sqlite: insert %s row %d", table, i)
		}
	}
	return eris.Wrapf(tx.Commit(), "sqlite: commit %s", table)
}

// helpers

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var summaryJSON sql.NullString

	err := row.Scan(&r.ID, &r.Kind, &r.Status, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if summaryJSON.Valid && summaryJSON.String != "" {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	return &r, nil
}

func marshalRecord(r model.ReconciledRecord) (org, res []byte, err error) {
	if org, err = json.Marshal(r.Organization); err != nil {
		return nil, nil, err
	}
	if res, err = json.Marshal(r.Match); err != nil {
		return nil, nil, err
	}
	return org, res, nil
}

func unmarshalRecord(org, res []byte) (model.ReconciledRecord, error) {
	var r model.ReconciledRecord
	if err := json.Unmarshal(org, &r.Organization); err != nil {
		return r, eris.Wrap(err, "store: unmarshal organization")
	}
	if err := json.Unmarshal(res, &r.Match); err != nil {
		return r, eris.Wrap(err, "store: unmarshal match")
	}
	return r, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
