package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/contact-cli/internal/db"
	"github.com/sells-group/contact-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pages (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	position     INTEGER NOT NULL,
	base_website TEXT NOT NULL,
	url          TEXT NOT NULL,
	role         TEXT NOT NULL,
	emails       TEXT[] NOT NULL,
	phones       TEXT[] NOT NULL,
	fetched      BOOLEAN NOT NULL,
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
	organization JSONB NOT NULL,
	result       JSONB NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS crawl_cache (
	website    TEXT PRIMARY KEY,
	pages      JSONB NOT NULL,
	crawled_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_contacts_value ON contacts(value);
CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(run_id, status);
CREATE INDEX IF NOT EXISTS idx_crawl_cache_expires_at ON crawl_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, kind string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, kind, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, kind, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Kind:      kind,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET summary = $1, status = $2, updated_at = $3 WHERE id = $4`,
		summaryJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET error = $1, status = $2, updated_at = $3 WHERE id = $4`,
		reason, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, kind, status, summary, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, kind, status, summary, error, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Kind != "" {
		query += fmt.Sprintf(` AND kind = $%d`, argIdx)
		args = append(args, filter.Kind)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

var (
	pageColumns    = []string{"run_id", "position", "base_website", "url", "role", "emails", "phones", "fetched"}
	contactColumns = []string{"run_id", "position", "website", "source_page", "value", "type"}
	matchColumns   = []string{"run_id", "position", "website", "status", "tier", "organization", "result"}
)

func (s *PostgresStore) SavePages(ctx context.Context, runID string, pages []model.ScrapedPage) error {
	rows := make([][]any, len(pages))
	for i, p := range pages {
		rows[i] = []any{runID, int32(i), p.BaseWebsite, p.URL, string(p.Role), nonNil(p.Emails), nonNil(p.Phones), p.Fetched}
	}
	_, err := db.ReplaceRows(ctx, s.pool, "pages", "run_id", runID, pageColumns, rows)
	return eris.Wrap(err, "postgres: save pages")
}

func (s *PostgresStore) SaveContacts(ctx context.Context, runID string, contacts []model.ContactRecord) error {
	rows := make([][]any, len(contacts))
	for i, c := range contacts {
		rows[i] = []any{runID, int32(i), c.Website, c.SourcePage, c.Value, string(c.Type)}
	}
	_, err := db.ReplaceRows(ctx, s.pool, "contacts", "run_id", runID, contactColumns, rows)
	return eris.Wrap(err, "postgres: save contacts")
}

func (s *PostgresStore) ListContacts(ctx context.Context, runID string) ([]model.ContactRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT website, source_page, value, type FROM contacts WHERE run_id = $1 ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts")
	}
	defer rows.Close()

	var out []model.ContactRecord
	for rows.Next() {
		var c model.ContactRecord
		var typ string
		if err := rows.Scan(&c.Website, &c.SourcePage, &c.Value, &typ); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		c.Type = model.ContactType(typ)
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list contacts iterate")
}

func (s *PostgresStore) SaveMatches(ctx context.Context, runID string, records []model.ReconciledRecord) error {
	rows := make([][]any, len(records))
	for i, r := range records {
		org, res, err := marshalRecord(r)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal match")
		}
		rows[i] = []any{runID, int32(i), r.Organization.Website, string(r.Match.Status), string(r.Match.Tier), org, res}
	}
	_, err := db.ReplaceRows(ctx, s.pool, "matches", "run_id", runID, matchColumns, rows)
	return eris.Wrap(err, "postgres: save matches")
}

func (s *PostgresStore) ListMatches(ctx context.Context, runID string) ([]model.ReconciledRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT organization, result FROM matches WHERE run_id = $1 ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list matches")
	}
	defer rows.Close()

	var out []model.ReconciledRecord
	for rows.Next() {
		var org, res []byte
		if err := rows.Scan(&org, &res); err != nil {
			return nil, eris.Wrap(err, "postgres: scan match")
		}
		r, err := unmarshalRecord(org, res)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list matches iterate")
}

func (s *PostgresStore) GetCachedSession(ctx context.Context, website string) (*model.CrawlSession, error) {
	var pagesJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT pages FROM crawl_cache WHERE website = $1 AND expires_at > now()`,
		website,
	).Scan(&pagesJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached session")
	}

	cs := model.CrawlSession{Website: website}
	if err := json.Unmarshal(pagesJSON, &cs.Pages); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached pages")
	}
	return &cs, nil
}

func (s *PostgresStore) SetCachedSession(ctx context.Context, cs model.CrawlSession, ttl time.Duration) error {
	now := time.Now().UTC()
	pagesJSON, err := json.Marshal(cs.Pages)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pages")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO crawl_cache (website, pages, crawled_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (website) DO UPDATE SET pages = EXCLUDED.pages, crawled_at = EXCLUDED.crawled_at, expires_at = EXCLUDED.expires_at`,
		cs.Website, pagesJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached session")
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var status string
	var summaryJSON []byte

	if err := row.Scan(&r.ID, &r.Kind, &status, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)
	if len(summaryJSON) > 0 {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	return &r, nil
}
