package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const maxResponseBytes = 5 << 20

// Fetcher performs rate-limited GET requests shared by every crawler
// goroutine.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// NewFetcher creates a fetcher. A non-positive requestsPerSec disables
// rate limiting.
func NewFetcher(timeout time.Duration, requestsPerSec float64, userAgent string) *Fetcher {
	limit := rate.Inf
	burst := 1
	if requestsPerSec > 0 {
		limit = rate.Limit(requestsPerSec)
		burst = max(1, int(requestsPerSec))
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		userAgent:  userAgent,
	}
}

// Get returns the response body and the final URL after redirects.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, *url.URL, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, resp.Request.URL, nil
}
