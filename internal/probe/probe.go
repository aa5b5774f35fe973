// Package probe checks whether bookmark URLs are reachable.
package probe

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 5 * time.Second

// Prober reports whether a URL is reachable. It never fails: any error
// counts as unreachable.
type Prober interface {
	Probe(ctx context.Context, url string) bool
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, url string) bool

// Probe implements Prober.
func (f ProberFunc) Probe(ctx context.Context, url string) bool { return f(ctx, url) }

// HTTPProber issues HEAD requests (GET as fallback) without credentials.
// Any response counts as reachable regardless of status; only transport
// errors and timeouts count as unreachable.
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
	log     *zap.Logger
}

// NewHTTPProber creates a prober with the given per-probe timeout.
// A zero timeout uses DefaultTimeout.
func NewHTTPProber(timeout time.Duration, log *zap.Logger) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPProber{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Follow redirects but limit to 10
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		timeout: timeout,
		log:     log,
	}
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// Try HEAD first (faster, less bandwidth)
	err := p.do(ctx, http.MethodHead, url)
	if err != nil && ctx.Err() == nil {
		// Some servers refuse HEAD at the connection level
		err = p.do(ctx, http.MethodGet, url)
	}
	if err != nil {
		p.log.Debug("bookmark unreachable", zap.String("url", url), zap.String("reason", normalizeError(err.Error())))
		return false
	}
	return true
}

func (p *HTTPProber) do(ctx context.Context, method, url string) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.Body.Close()
}

// CachedProber memoizes another prober's verdict per key.
type CachedProber struct {
	next  Prober
	key   func(string) string
	cache *lru.Cache[string, bool]
}

// NewCachedProber wraps next with an LRU of the given size. key maps a URL to
// its cache key (e.g. a normalized form); nil uses the URL as-is.
func NewCachedProber(next Prober, size int, key func(string) string) (*CachedProber, error) {
	cache, err := lru.New[string, bool](size)
	if err != nil {
		return nil, err
	}
	if key == nil {
		key = func(s string) string { return s }
	}
	return &CachedProber{next: next, key: key, cache: cache}, nil
}

// Probe implements Prober.
func (c *CachedProber) Probe(ctx context.Context, url string) bool {
	k := c.key(url)
	if ok, hit := c.cache.Get(k); hit {
		return ok
	}
	ok := c.next.Probe(ctx, url)
	// A cancelled context says nothing about the URL.
	if ctx.Err() == nil {
		c.cache.Add(k, ok)
	}
	return ok
}

// normalizeError simplifies verbose error messages into readable categories.
func normalizeError(errStr string) string {
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "no such host"):
		return "DNS failure"
	case strings.Contains(lower, "context deadline exceeded"),
		strings.Contains(lower, "timeout"):
		return "Timeout"
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	case strings.Contains(lower, "certificate"):
		return "TLS/certificate error"
	case strings.Contains(lower, "network is unreachable"):
		return "Network unreachable"
	case strings.Contains(lower, "tls:"):
		return "TLS error"
	case strings.Contains(lower, "unsupported protocol scheme"):
		return "Unsupported scheme"
	default:
		return errStr
	}
}
