// Package pipeline wires crawling, the places lookup, the contact tables
// and reconciliation into one persisted run.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/contacts"
	"github.com/sells-group/contact-cli/internal/crawl"
	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/reconcile"
	"github.com/sells-group/contact-cli/internal/store"
)

// Kind names which stages a run executes.
type Kind string

const (
	KindCrawl    Kind = "crawl"
	KindMaps     Kind = "maps"
	KindValidate Kind = "validate"
	KindRun      Kind = "run"
)

// Crawler produces scraped pages for a list of websites.
type Crawler interface {
	Run(ctx context.Context, websites []string) (*crawl.Result, error)
}

// MapsLookup produces places results for organizations.
type MapsLookup interface {
	Run(ctx context.Context, orgs []model.Organization) ([]model.MapsResult, error)
}

// Input carries the organizations plus any stage output loaded from disk.
// Non-nil Pages or Maps are used as-is instead of crawling or looking up.
type Input struct {
	Organizations []model.Organization
	Pages         []model.ScrapedPage
	Maps          []model.MapsResult
}

// Output holds every table a run produced.
type Output struct {
	Run          *model.Run
	Pages        []model.ScrapedPage
	Maps         []model.MapsResult
	Contacts     []model.ContactRecord
	MapsContacts []model.MapsContact
	Records      []model.ReconciledRecord
	Summary      model.RunSummary
}

// Pipeline executes runs. crawler and maps may be nil when the run kinds
// used never need them.
type Pipeline struct {
	store   store.Store
	crawler Crawler
	maps    MapsLookup
}

// New creates a Pipeline.
func New(st store.Store, crawler Crawler, maps MapsLookup) *Pipeline {
	return &Pipeline{store: st, crawler: crawler, maps: maps}
}

// Run executes the stages of kind and persists the run. A failed stage marks
// the run failed and returns the error.
func (p *Pipeline) Run(ctx context.Context, kind Kind, in Input) (*Output, error) {
	start := time.Now()
	run, err := p.store.CreateRun(ctx, string(kind))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("kind", string(kind)))
	log.Info("pipeline: starting run", zap.Int("organizations", len(in.Organizations)))

	out, err := p.execute(ctx, kind, run.ID, in)
	if err != nil {
		if failErr := p.store.FailRun(context.WithoutCancel(ctx), run.ID, err.Error()); failErr != nil {
			log.Warn("pipeline: failed to mark run failed", zap.Error(failErr))
		}
		log.Error("pipeline: run failed", zap.Error(err))
		return nil, err
	}

	out.Summary.Duration = time.Since(start)
	if err := p.store.CompleteRun(ctx, run.ID, &out.Summary); err != nil {
		return nil, eris.Wrap(err, "pipeline: complete run")
	}

	run.Status = model.RunStatusComplete
	run.Summary = &out.Summary
	out.Run = run
	log.Info("pipeline: run complete",
		zap.Int("pages", out.Summary.Pages),
		zap.Int("contacts", out.Summary.Contacts),
		zap.Any("statuses", out.Summary.Statuses),
		zap.Duration("duration", out.Summary.Duration),
	)
	return out, nil
}

func (p *Pipeline) execute(ctx context.Context, kind Kind, runID string, in Input) (*Output, error) {
	out := &Output{Pages: in.Pages, Maps: in.Maps}
	out.Summary.Organizations = len(in.Organizations)

	crawlStage := kind == KindCrawl || (kind == KindRun && in.Pages == nil)
	mapsStage := kind == KindMaps || (kind == KindRun && in.Maps == nil && p.maps != nil)
	reconcileStage := kind == KindValidate || kind == KindRun

	if crawlStage {
		if err := p.crawl(ctx, in.Organizations, out); err != nil {
			return nil, err
		}
		if err := p.store.SavePages(ctx, runID, out.Pages); err != nil {
			return nil, eris.Wrap(err, "pipeline: save pages")
		}
	}

	if mapsStage {
		if p.maps == nil {
			return nil, eris.New("pipeline: no places lookup configured")
		}
		results, err := p.maps.Run(ctx, in.Organizations)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: places lookup")
		}
		out.Maps = results
	}

	if !reconcileStage {
		return out, nil
	}

	out.Contacts = contacts.BuildScraped(out.Pages)
	out.MapsContacts = contacts.BuildMaps(out.Maps)
	out.Records = reconcile.NewEngine(contacts.NewIndex(out.Contacts, out.MapsContacts)).Reconcile(in.Organizations)

	out.Summary.Pages = len(out.Pages)
	out.Summary.Contacts = len(out.Contacts)
	out.Summary.MapsContacts = len(out.MapsContacts)
	out.Summary.Statuses = reconcile.Summarize(out.Records)

	if err := p.store.SaveContacts(ctx, runID, out.Contacts); err != nil {
		return nil, eris.Wrap(err, "pipeline: save contacts")
	}
	if err := p.store.SaveMatches(ctx, runID, out.Records); err != nil {
		return nil, eris.Wrap(err, "pipeline: save matches")
	}
	return out, nil
}

func (p *Pipeline) crawl(ctx context.Context, orgs []model.Organization, out *Output) error {
	if p.crawler == nil {
		return eris.New("pipeline: no crawler configured")
	}

	var websites []string
	for _, o := range orgs {
		if o.HasWebsite() {
			websites = append(websites, o.Website)
		}
	}

	res, err := p.crawler.Run(ctx, websites)
	if err != nil {
		return eris.Wrap(err, "pipeline: crawl")
	}
	out.Pages = res.Pages
	out.Summary.Websites = res.Summary.Websites
	out.Summary.Pages = res.Summary.Pages
	out.Summary.Iterations = res.Summary.Iterations
	out.Summary.CapReached = res.Summary.CapReached
	out.Summary.StillMissing = res.Summary.StillMissing
	return nil
}
