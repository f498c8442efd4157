package scrape

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/sells-group/contact-cli/internal/resilience"
)

const maxBodyBytes = 2 << 20

// Page is the outcome of fetching one URL. OK is false when every attempt
// failed; HTML is then empty.
type Page struct {
	URL        string
	HTML       string
	StatusCode int
	OK         bool
}

// Fetcher retrieves pages. Implementations never return errors: a failed
// fetch is an empty Page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) Page
}

// FetchOptions configures an HTTPFetcher.
type FetchOptions struct {
	MaxRetries  int
	BackoffBase time.Duration
	Timeout     time.Duration
	UserAgent   string
	Client      *http.Client
}

// HTTPFetcher fetches pages over HTTP with a per-attempt timeout and
// exponential backoff between attempts.
type HTTPFetcher struct {
	client    *http.Client
	policy    resilience.RetryConfig
	timeout   time.Duration
	userAgent string
}

// NewHTTPFetcher creates an HTTPFetcher. Zero options take the defaults of
// 3 attempts, 300ms base backoff and a 10s timeout.
func NewHTTPFetcher(opts FetchOptions) *HTTPFetcher {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BackoffBase < 0 {
		opts.BackoffBase = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; ContactBot/1.0)"
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: opts.Timeout,
				}).DialContext,
				TLSHandshakeTimeout: opts.Timeout,
				MaxIdleConnsPerHost: 4,
			},
		}
	}
	return &HTTPFetcher{
		client:    client,
		policy:    RetryPolicy(opts.MaxRetries, opts.BackoffBase),
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
	}
}

// RetryPolicy returns the page fetch policy: attempts tries sleeping
// base*2^attempt in between. Anti-bot pages are not retried.
func RetryPolicy(attempts int, base time.Duration) resilience.RetryConfig {
	cfg := resilience.FixedBackoff(attempts, base)
	cfg.ShouldRetry = func(err error) bool {
		var blocked *BlockedError
		return err != nil && !errors.As(err, &blocked)
	}
	return cfg
}

// BlockedError reports an anti-bot interstitial in place of the page.
type BlockedError struct {
	URL  string
	Type BlockType
}

func (e *BlockedError) Error() string {
	return "blocked (" + string(e.Type) + "): " + e.URL
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) Page {
	policy := f.policy
	policy.OnRetry = resilience.RetryLogger("fetch", url)

	page, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (Page, error) {
		return f.fetchOnce(ctx, url)
	})
	if err != nil {
		zap.L().Debug("fetch failed", zap.String("url", url), zap.Error(err))
		return Page{URL: url}
	}
	return page
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "cs,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, eris.Wrap(err, "fetch: get")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, eris.Wrap(err, "fetch: read body")
	}

	if blocked, bt := DetectBlock(resp, body); blocked {
		return Page{}, &BlockedError{URL: url, Type: bt}
	}
	if err := resilience.CheckStatus(url, resp.StatusCode); err != nil {
		return Page{}, err
	}

	return Page{
		URL:        url,
		HTML:       decode(body, resp.Header.Get("Content-Type")),
		StatusCode: resp.StatusCode,
		OK:         true,
	}, nil
}

// decode converts body to UTF-8 using the declared or sniffed charset.
func decode(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(out)
}
