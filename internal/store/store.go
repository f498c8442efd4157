// Package store persists pipeline runs, their output tables and the crawl
// session cache.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contact-cli/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Kind   string          `json:"kind,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the contact pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, kind string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Run outputs
	SavePages(ctx context.Context, runID string, pages []model.ScrapedPage) error
	SaveContacts(ctx context.Context, runID string, contacts []model.ContactRecord) error
	ListContacts(ctx context.Context, runID string) ([]model.ContactRecord, error)
	SaveMatches(ctx context.Context, runID string, records []model.ReconciledRecord) error
	ListMatches(ctx context.Context, runID string) ([]model.ReconciledRecord, error)

	// Crawl session cache
	GetCachedSession(ctx context.Context, website string) (*model.CrawlSession, error)
	SetCachedSession(ctx context.Context, s model.CrawlSession, ttl time.Duration) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func listLimit(f RunFilter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}
