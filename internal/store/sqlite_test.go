package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contact-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

// --- Runs ---

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "run")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	summary := &model.RunSummary{
		Organizations: 3,
		Pages:         7,
		CapReached:    true,
		StillMissing:  []string{"https://www.x.cz"},
		Statuses:      map[model.MatchStatus]int{model.StatusMatched: 2, model.StatusUnmatched: 1},
	}
	require.NoError(t, st.CompleteRun(ctx, run.ID, summary))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "run", got.Kind)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, summary.Statuses, got.Summary.Statuses)
	assert.Equal(t, []string{"https://www.x.cz"}, got.Summary.StillMissing)
	assert.True(t, got.Summary.CapReached)
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "crawl")
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, run.ID, "input: missing column"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "input: missing column", got.Error)
	assert.Nil(t, got.Summary)
}

func TestSQLite_RunNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = st.CompleteRun(ctx, "missing", &model.RunSummary{})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = st.FailRun(ctx, "missing", "x")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateRun(ctx, "crawl")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	b, err := st.CreateRun(ctx, "run")
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(ctx, b.ID, &model.RunSummary{}))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID, "newest first")

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, b.ID, complete[0].ID)

	crawls, err := st.ListRuns(ctx, RunFilter{Kind: "crawl"})
	require.NoError(t, err)
	require.Len(t, crawls, 1)
	assert.Equal(t, a.ID, crawls[0].ID)

	page, err := st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, a.ID, page[0].ID)
}

// --- Outputs ---

func TestSQLite_Contacts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "validate")
	require.NoError(t, err)

	contacts := []model.ContactRecord{
		{Website: "https://www.x.cz", SourcePage: "https://www.x.cz/kontakt", Value: "+420605123456", Type: model.ContactPhone},
		{Website: "https://www.x.cz", SourcePage: "https://www.x.cz", Value: "info@x.cz", Type: model.ContactEmail},
	}
	require.NoError(t, st.SaveContacts(ctx, run.ID, contacts))

	got, err := st.ListContacts(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, contacts, got)

	// saving again replaces the previous rows
	require.NoError(t, st.SaveContacts(ctx, run.ID, contacts[:1]))
	got, err = st.ListContacts(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, contacts[:1], got)
}

func TestSQLite_ContactsUnknownRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	got, err := st.ListContacts(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_Pages(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "crawl")
	require.NoError(t, err)

	pages := []model.ScrapedPage{
		{BaseWebsite: "https://www.x.cz", URL: "https://www.x.cz", Role: model.PageRoleMain,
			Emails: []string{"info@x.cz"}, Phones: []string{"605 123 456"}, Fetched: true},
		{BaseWebsite: "https://www.x.cz", URL: "https://www.x.cz/kontakt", Role: model.PageRoleContact},
	}
	require.NoError(t, st.SavePages(ctx, run.ID, pages))

	var n int
	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM pages WHERE run_id = ?`, run.ID).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSQLite_Matches(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "validate")
	require.NoError(t, err)

	records := []model.ReconciledRecord{
		{
			Organization: model.Organization{Name: "Obec", Website: "www.x.cz", Phone: "605123456", Row: []string{"Obec", "www.x.cz"}},
			Match:        model.MatchResult{Status: model.StatusMatched, Sources: []string{model.SourceScrapedPhone}},
		},
		{
			Organization: model.Organization{Name: "Spolek", Website: "www.y.cz"},
			Match: model.MatchResult{
				Status:      model.MatchStatus(model.TierEmailMatch),
				Tier:        model.TierEmailMatch,
				Candidates:  []model.Candidate{{Value: "info@y.cz", Type: model.ContactEmail}},
				FilledEmail: "info@y.cz",
			},
		},
	}
	require.NoError(t, st.SaveMatches(ctx, run.ID, records))

	got, err := st.ListMatches(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

// --- Crawl cache ---

func TestSQLite_SessionCache(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	s := model.CrawlSession{Website: "https://www.x.cz", Pages: []model.ScrapedPage{
		{BaseWebsite: "https://www.x.cz", URL: "https://www.x.cz", Role: model.PageRoleMain,
			Emails: []string{"info@x.cz"}, Phones: []string{"605123456"}, Fetched: true},
	}}
	require.NoError(t, st.SetCachedSession(ctx, s, time.Hour))

	got, err := st.GetCachedSession(ctx, "https://www.x.cz")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s, *got)
}

func TestSQLite_SessionCache_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)
	got, err := st.GetCachedSession(context.Background(), "https://nowhere.cz")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_SessionCache_Expired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedSession(ctx, model.CrawlSession{Website: "https://old.cz"}, -time.Hour))

	got, err := st.GetCachedSession(ctx, "https://old.cz")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_SessionCache_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := model.CrawlSession{Website: "https://www.x.cz", Pages: []model.ScrapedPage{{URL: "a"}}}
	second := model.CrawlSession{Website: "https://www.x.cz", Pages: []model.ScrapedPage{{URL: "b"}}}
	require.NoError(t, st.SetCachedSession(ctx, first, time.Hour))
	require.NoError(t, st.SetCachedSession(ctx, second, time.Hour))

	got, err := st.GetCachedSession(ctx, "https://www.x.cz")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Pages, 1)
	assert.Equal(t, "b", got.Pages[0].URL)
}
