package crawl

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/normalize"
)

// SessionCache stores complete crawl sessions between runs.
type SessionCache interface {
	GetCachedSession(ctx context.Context, website string) (*model.CrawlSession, error)
	SetCachedSession(ctx context.Context, s model.CrawlSession, ttl time.Duration) error
}

// Options configures an Orchestrator.
type Options struct {
	PoolWidth          int
	BatchCount         int
	MaxIterations      int
	Blocklist          []string
	IncludeRootVariant bool
	CacheTTL           time.Duration
}

// Summary reports how a crawl ended.
type Summary struct {
	Websites     int      `json:"websites"`
	Pages        int      `json:"pages"`
	Iterations   int      `json:"iterations"`
	StillMissing []string `json:"still_missing,omitempty"`
	CapReached   bool     `json:"cap_reached"`
}

// Result holds every page of the final crawl, grouped by website in input order.
type Result struct {
	Pages   []model.ScrapedPage
	Summary Summary
}

// Orchestrator crawls websites in batches on a bounded worker pool and
// re-crawls websites still missing emails or phones.
type Orchestrator struct {
	crawler SiteCrawler
	opts    Options
	cache   SessionCache
}

// NewOrchestrator creates an Orchestrator. cache may be nil.
func NewOrchestrator(crawler SiteCrawler, opts Options, cache SessionCache) *Orchestrator {
	if opts.PoolWidth <= 0 {
		opts.PoolWidth = 1
	}
	if opts.BatchCount <= 0 {
		opts.BatchCount = 1
	}
	if opts.MaxIterations < 0 {
		opts.MaxIterations = 0
	}
	return &Orchestrator{crawler: crawler, opts: opts, cache: cache}
}

// Run crawls every target derived from websites. Running out of retry
// passes is reported in the summary; only context cancellation is an error.
func (o *Orchestrator) Run(ctx context.Context, websites []string) (*Result, error) {
	log := zap.L().With(zap.String("component", "crawl"))
	targets := Targets(websites, o.opts.Blocklist, o.opts.IncludeRootVariant)
	log.Info("starting crawl",
		zap.Int("websites", len(targets)),
		zap.Int("batches", o.opts.BatchCount),
		zap.Int("pool_width", o.opts.PoolWidth),
	)

	sessions := make(map[string][]model.ScrapedPage, len(targets))
	pages, err := o.crawlAll(ctx, targets, true)
	if err != nil {
		return nil, err
	}
	for i, w := range targets {
		sessions[w] = pages[i]
	}

	missing := missingWebsites(targets, sessions)
	iterations := 0
	for len(missing) > 0 && iterations < o.opts.MaxIterations {
		iterations++
		log.Info("re-crawling websites missing data",
			zap.Int("iteration", iterations),
			zap.Int("websites", len(missing)),
		)
		pages, err := o.crawlAll(ctx, missing, false)
		if err != nil {
			return nil, err
		}
		for i, w := range missing {
			sessions[w] = pages[i]
		}
		missing = missingWebsites(targets, sessions)
	}

	res := &Result{Summary: Summary{
		Websites:     len(targets),
		Iterations:   iterations,
		StillMissing: missing,
		CapReached:   len(missing) > 0,
	}}
	for _, w := range targets {
		res.Pages = append(res.Pages, sessions[w]...)
	}
	res.Summary.Pages = len(res.Pages)

	if res.Summary.CapReached {
		log.Warn("iteration cap reached with websites still missing data",
			zap.Int("max_iterations", o.opts.MaxIterations),
			zap.Int("still_missing", len(missing)),
		)
	}
	log.Info("crawl complete",
		zap.Int("websites", res.Summary.Websites),
		zap.Int("pages", res.Summary.Pages),
		zap.Int("iterations", iterations),
		zap.Int("still_missing", len(missing)),
	)
	return res, nil
}

// crawlAll crawls websites batch by batch. Each task writes only its own
// slot of the returned slice.
func (o *Orchestrator) crawlAll(ctx context.Context, websites []string, firstPass bool) ([][]model.ScrapedPage, error) {
	out := make([][]model.ScrapedPage, len(websites))
	for b, span := range Partition(len(websites), o.opts.BatchCount) {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(o.opts.PoolWidth)
		for i := span[0]; i < span[1]; i++ {
			g.Go(func() error {
				out[i] = o.crawlOne(gCtx, websites[i], firstPass)
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "crawl: cancelled")
		}
		zap.L().Debug("batch complete",
			zap.Int("batch", b+1),
			zap.Int("websites", span[1]-span[0]),
		)
	}
	return out, nil
}

func (o *Orchestrator) crawlOne(ctx context.Context, website string, firstPass bool) []model.ScrapedPage {
	caching := o.cache != nil && o.opts.CacheTTL > 0
	if caching && firstPass {
		cached, err := o.cache.GetCachedSession(ctx, website)
		if err != nil {
			zap.L().Warn("session cache lookup failed", zap.String("website", website), zap.Error(err))
		} else if cached != nil && cached.Complete() {
			return cached.Pages
		}
	}

	pages := o.crawler.CrawlSite(ctx, website)

	s := model.CrawlSession{Website: website, Pages: pages}
	if caching && s.Complete() {
		if err := o.cache.SetCachedSession(ctx, s, o.opts.CacheTTL); err != nil {
			zap.L().Warn("session cache write failed", zap.String("website", website), zap.Error(err))
		}
	}
	return pages
}

// Targets normalizes websites into crawl roots: blank and blocklisted
// entries are dropped, duplicates removed in first-seen order, and deep
// .cz links optionally followed by their site root.
func Targets(websites, blocklist []string, rootVariant bool) []string {
	blocked := make(map[string]bool, len(blocklist)*2)
	for _, b := range blocklist {
		blocked[strings.TrimSpace(b)] = true
		blocked[normalize.WebsiteURL(b)] = true
	}

	var out []string
	seen := make(map[string]bool, len(websites))
	add := func(u string) {
		if u == "" || seen[u] || blocked[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}
	for _, w := range websites {
		if blocked[strings.TrimSpace(w)] {
			continue
		}
		u := normalize.WebsiteURL(w)
		add(u)
		if rootVariant {
			if root, ok := normalize.RootVariant(u); ok {
				add(root)
			}
		}
	}
	return out
}

// Partition splits n items into at most k contiguous spans whose sizes
// differ by at most one. Spans are [start, end) pairs.
func Partition(n, k int) [][2]int {
	if n <= 0 {
		return nil
	}
	if k <= 0 {
		k = 1
	}
	if k > n {
		k = n
	}
	spans := make([][2]int, 0, k)
	size, extra := n/k, n%k
	start := 0
	for i := 0; i < k; i++ {
		end := start + size
		if i < extra {
			end++
		}
		spans = append(spans, [2]int{start, end})
		start = end
	}
	return spans
}

// MissingData returns the base websites whose pages, taken together, lack
// any email or any phone, in first-seen order.
func MissingData(pages []model.ScrapedPage) []string {
	var order []string
	sessions := make(map[string][]model.ScrapedPage)
	for _, p := range pages {
		if _, ok := sessions[p.BaseWebsite]; !ok {
			order = append(order, p.BaseWebsite)
		}
		sessions[p.BaseWebsite] = append(sessions[p.BaseWebsite], p)
	}
	return missingWebsites(order, sessions)
}

func missingWebsites(websites []string, sessions map[string][]model.ScrapedPage) []string {
	var missing []string
	for _, w := range websites {
		if !(model.CrawlSession{Website: w, Pages: sessions[w]}).Complete() {
			missing = append(missing, w)
		}
	}
	return missing
}
