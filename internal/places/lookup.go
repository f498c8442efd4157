// Package places looks organizations up in Google Places, using Mapy.cz to
// decide whether the registered address is specific enough to include in
// the query.
package places

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/normalize"
	"github.com/sells-group/contact-cli/internal/reconcile"
	"github.com/sells-group/contact-cli/internal/resilience"
	"github.com/sells-group/contact-cli/pkg/google"
	"github.com/sells-group/contact-cli/pkg/mapy"
)

// Options configures a Lookup.
type Options struct {
	RateLimit float64
	PoolWidth int
	Retry     resilience.RetryConfig
	Breaker   resilience.CircuitBreakerConfig
}

// Lookup resolves organizations against the places APIs.
type Lookup struct {
	google  google.Client
	mapy    mapy.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	// mapyBreaker tracks street-check failures separately.
	mapyBreaker *resilience.CircuitBreaker
	opts        Options
}

// New creates a Lookup. mapyClient may be nil, in which case the street
// check is skipped and every query uses the name only.
func New(googleClient google.Client, mapyClient mapy.Client, opts Options) *Lookup {
	if opts.PoolWidth < 1 {
		opts.PoolWidth = 1
	}
	limit := rate.Inf
	burst := 1
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
		burst = max(1, int(opts.RateLimit))
	}
	return &Lookup{
		google:  googleClient,
		mapy:    mapyClient,
		limiter: rate.NewLimiter(limit, burst),
		breaker: resilience.NewCircuitBreaker(opts.Breaker),
		opts:    opts,

		mapyBreaker: resilience.NewCircuitBreaker(opts.Breaker),
	}
}

// Run resolves every organization with a website and returns one result per
// such organization, in input order. Lookup failures produce placeholder
// rows and never abort the run.
func (l *Lookup) Run(ctx context.Context, orgs []model.Organization) ([]model.MapsResult, error) {
	var targets []model.Organization
	for _, o := range orgs {
		if o.HasWebsite() {
			targets = append(targets, o)
		}
	}

	log := zap.L().With(zap.String("stage", "places"))
	log.Info("places lookup starting", zap.Int("organizations", len(targets)))

	results := make([]model.MapsResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.PoolWidth)
	for i, org := range targets {
		g.Go(func() error {
			results[i] = l.Resolve(gctx, org)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "places: lookup")
	}

	found := 0
	for _, r := range results {
		if r.APIAddress != model.MapsNotFound {
			found++
		}
	}
	log.Info("places lookup complete", zap.Int("found", found), zap.Int("total", len(results)))
	return results, nil
}

// Resolve looks up a single organization.
func (l *Lookup) Resolve(ctx context.Context, org model.Organization) model.MapsResult {
	res := model.MapsResult{
		Name:       org.Name,
		Phone:      org.Phone,
		APIPhone:   model.MapsNoPhone,
		Address:    org.Address,
		APIAddress: model.MapsNotFound,
		Email:      org.Email,
		Web:        org.Website,
	}

	query := l.Query(ctx, org)
	place, err := l.search(ctx, query)
	if err != nil {
		zap.L().Debug("places search failed",
			zap.String("name", org.Name),
			zap.String("query", query),
			zap.Error(err),
		)
		return res
	}
	if place == nil {
		return res
	}

	res.APIName = place.DisplayName.Text
	res.APIAddress = place.FormattedAddress
	res.APIWeb = place.WebsiteURI
	if p := place.Phone(); p != "" {
		res.APIPhone = p
	}
	if place.RegularOpeningHours != nil {
		res.APIOpeningHours = strings.Join(place.RegularOpeningHours.WeekdayDescriptions, "; ")
	}
	res.PhoneMatch = PhoneMatch(res.APIPhone, org.Phone)
	return res
}

// Query returns "name address" when Mapy.cz confirms the registered street
// for the organization's name, and the bare name otherwise.
func (l *Lookup) Query(ctx context.Context, org model.Organization) string {
	name := strings.TrimSpace(org.Name)
	if l.mapy == nil || model.Missing(org.Address) {
		return name
	}
	street := normalize.Key(normalize.Street(org.Address))
	if street == "" {
		return name
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return name
	}
	items, err := resilience.ExecuteVal(ctx, l.mapyBreaker, func(ctx context.Context) ([]mapy.Item, error) {
		return l.mapy.Geocode(ctx, name)
	})
	if err != nil {
		zap.L().Debug("mapy geocode failed", zap.String("name", name), zap.Error(err))
		return name
	}

	for _, s := range mapy.Streets(items) {
		if normalize.Key(s) == street {
			return name + " " + strings.TrimSpace(org.Address)
		}
	}
	return name
}

func (l *Lookup) search(ctx context.Context, query string) (*google.Place, error) {
	retry := l.opts.Retry
	retry.OnRetry = resilience.RetryLogger("google_places", query)

	resp, err := resilience.ExecuteVal(ctx, l.breaker, func(ctx context.Context) (*google.TextSearchResponse, error) {
		return resilience.DoVal(ctx, retry, func(ctx context.Context) (*google.TextSearchResponse, error) {
			if err := l.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			resp, err := l.google.TextSearch(ctx, google.TextSearchRequest{
				TextQuery:      query,
				LanguageCode:   "cs",
				RegionCode:     "CZ",
				MaxResultCount: 1,
			})
			return resp, classify(err)
		})
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Places) == 0 {
		return nil, nil
	}
	return &resp.Places[0], nil
}

// classify marks retryable API statuses as transient.
func classify(err error) error {
	var apiErr *google.APIError
	if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
		return resilience.NewTransientError(err, apiErr.StatusCode)
	}
	return err
}

// PhoneMatch reports whether the API phone is one of the registered phones.
// Both sides are compared in canonical form, falling back to the trimmed
// raw text when the API value does not parse.
func PhoneMatch(apiPhone, registered string) bool {
	if apiPhone == "" || apiPhone == model.MapsNoPhone {
		return false
	}
	if e164, ok := normalize.CanonicalPhone(apiPhone); ok {
		return slices.Contains(reconcile.RegisteredPhones(registered), e164)
	}
	for _, p := range strings.Split(registered, ",") {
		if strings.TrimSpace(p) == strings.TrimSpace(apiPhone) {
			return true
		}
	}
	return false
}
