package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	defaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultHTTPTimeout = 30 * time.Second
	maxBodyBytes       = 8 << 20
)

var defaultBlockMarkers = []string{"captcha", "cf-challenge", "access denied"}

// fetcher performs rate-limited GETs through a session pool and maps
// transport outcomes onto the extraction error taxonomy.
type fetcher struct {
	store        string
	sessions     *SessionPool
	limiter      *RateLimiter
	blockMarkers [][]byte
}

func newFetcher(store string, sessions *SessionPool, limiter *RateLimiter, markers []string) *fetcher {
	if len(markers) == 0 {
		markers = defaultBlockMarkers
	}
	f := &fetcher{store: store, sessions: sessions, limiter: limiter}
	for _, m := range markers {
		f.blockMarkers = append(f.blockMarkers, bytes.ToLower([]byte(m)))
	}
	return f
}

func (f *fetcher) get(ctx context.Context, url, accept string) ([]byte, error) {
	sess, err := f.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer f.sessions.Release(sess)

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", sess.UserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "he-IL,he;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := sess.Client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%s returned %d: %w", f.store, resp.StatusCode, ErrNotFound)
	case resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%s returned %d: %w", f.store, resp.StatusCode, ErrBlocked)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%s returned unexpected status %d", f.store, resp.StatusCode)
	}

	if f.blocked(body) {
		return nil, fmt.Errorf("%s served a challenge page: %w", f.store, ErrBlocked)
	}

	return body, nil
}

func (f *fetcher) blocked(body []byte) bool {
	// Challenge pages are small; real listing pages may mention the words.
	if len(body) > 64<<10 {
		return false
	}
	lower := bytes.ToLower(body)
	for _, m := range f.blockMarkers {
		if bytes.Contains(lower, m) {
			return true
		}
	}
	return false
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("executing request: %w", ctxErr(ctx))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("executing request: %w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("executing request: %w", err)
}

// ctxErr maps a done context onto the extraction taxonomy.
func ctxErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ctx.Err()
}
