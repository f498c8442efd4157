package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/crawl"
	"github.com/sells-group/contact-cli/internal/dataset"
	"github.com/sells-group/contact-cli/internal/pipeline"
	"github.com/sells-group/contact-cli/internal/places"
	"github.com/sells-group/contact-cli/internal/resilience"
	"github.com/sells-group/contact-cli/internal/scrape"
	"github.com/sells-group/contact-cli/internal/store"
	"github.com/sells-group/contact-cli/pkg/google"
	"github.com/sells-group/contact-cli/pkg/mapy"
)

// pipelineEnv holds the store and the pipeline built for one command.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates the config for mode, opens the store and builds
// the pipeline. The places lookup is only wired when withMaps is set and a
// Google key is configured. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string, withMaps bool) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	var lookup pipeline.MapsLookup
	switch {
	case !withMaps:
	case cfg.Places.GoogleKey == "":
		zap.L().Warn("places lookup disabled: no google key configured")
	default:
		lookup = newPlacesLookup()
	}

	return &pipelineEnv{
		Store:    st,
		Pipeline: pipeline.New(st, newOrchestrator(st), lookup),
	}, nil
}

func newOrchestrator(st store.Store) *crawl.Orchestrator {
	fetcher := scrape.NewHTTPFetcher(scrape.FetchOptions{
		MaxRetries:  cfg.Crawl.MaxRetries,
		BackoffBase: cfg.Crawl.Backoff(),
		Timeout:     cfg.Crawl.Timeout(),
		UserAgent:   cfg.Crawl.UserAgent,
	})

	var cache crawl.SessionCache
	if cfg.Crawl.CacheTTLHours > 0 {
		cache = st
	}

	return crawl.NewOrchestrator(crawl.NewCrawler(fetcher), crawl.Options{
		PoolWidth:          cfg.Crawl.PoolWidth,
		BatchCount:         cfg.Crawl.BatchCount,
		MaxIterations:      cfg.Crawl.MaxReconcileIterations,
		Blocklist:          cfg.Crawl.Blocklist,
		IncludeRootVariant: cfg.Crawl.IncludeRootVariant,
		CacheTTL:           time.Duration(cfg.Crawl.CacheTTLHours) * time.Hour,
	}, cache)
}

func newPlacesLookup() *places.Lookup {
	googleClient := google.NewClient(cfg.Places.GoogleKey, google.WithBaseURL(cfg.Places.GoogleBaseURL))

	var mapyClient mapy.Client
	if cfg.Places.MapyKey != "" {
		mapyClient = mapy.NewClient(cfg.Places.MapyKey, mapy.WithBaseURL(cfg.Places.MapyBaseURL))
	} else {
		zap.L().Info("mapy street check disabled: no mapy key configured")
	}

	return places.New(googleClient, mapyClient, places.Options{
		RateLimit: cfg.Places.RateLimit,
		PoolWidth: cfg.Places.PoolWidth,
		Retry:     resilience.DefaultRetryConfig(),
		Breaker:   resilience.FromCircuitConfig(cfg.Places.FailureThreshold, cfg.Places.ResetTimeoutSecs),
	})
}

// loadExport reads the organization export using the configured columns.
func loadExport(path string) (*dataset.Export, error) {
	export, err := dataset.LoadOrganizations(path, dataset.Columns(cfg.Input.Columns))
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded organization export",
		zap.String("path", path),
		zap.Int("organizations", len(export.Organizations)),
		zap.Int("websites", len(export.CrawlTargets())),
	)
	return export, nil
}
