package torznab

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	capsRequestTimeout = 30 * time.Second
	maxCapsBodySize    = 2 * 1024 * 1024 // 2 MB
)

// CapabilitiesProvider returns the capability snapshot for an indexer
// identified by its connection settings. Implementations may cache per
// connection identity; callers must tolerate stale snapshots.
type CapabilitiesProvider interface {
	Capabilities(ctx context.Context, settings Settings) (*Capabilities, error)
}

// Client fetches capability documents over HTTP.
type Client struct {
	httpClient *http.Client
	logger     *zerolog.Logger
}

// NewClient creates a capabilities HTTP client.
func NewClient(logger *zerolog.Logger) *Client {
	subLogger := logger.With().Str("component", "torznab-caps").Logger()
	return &Client{
		httpClient: &http.Client{Timeout: capsRequestTimeout},
		logger:     &subLogger,
	}
}

// Capabilities fetches and parses the remote ?t=caps document.
func (c *Client) Capabilities(ctx context.Context, settings Settings) (*Capabilities, error) {
	endpoint, err := settings.APIEndpoint()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("t", "caps")
	if settings.APIKey != "" {
		params.Set("apikey", settings.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create capabilities request: %w", err)
	}

	c.logger.Debug().Str("url", endpoint).Msg("Fetching indexer capabilities")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("capabilities request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("capabilities request returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCapsBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read capabilities response: %w", err)
	}

	return ParseCaps(body)
}

// CachedProvider caches capability snapshots per connection identity.
// A failed refresh never evicts a previously fetched snapshot; the stale
// value is returned instead so transient network errors don't degrade an
// otherwise working indexer.
type CachedProvider struct {
	inner CapabilitiesProvider
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]*capsEntry
}

type capsEntry struct {
	caps      *Capabilities
	fetchedAt time.Time
}

// NewCachedProvider wraps inner with a TTL cache.
func NewCachedProvider(inner CapabilitiesProvider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[string]*capsEntry),
	}
}

// Capabilities returns a cached snapshot when fresh, otherwise fetches.
func (p *CachedProvider) Capabilities(ctx context.Context, settings Settings) (*Capabilities, error) {
	key := settings.connectionIdentity()

	p.mu.Lock()
	entry, ok := p.entries[key]
	p.mu.Unlock()

	if ok && time.Since(entry.fetchedAt) < p.ttl {
		return entry.caps, nil
	}

	caps, err := p.inner.Capabilities(ctx, settings)
	if err != nil {
		if ok {
			// Stale is better than nothing for a best-effort snapshot.
			return entry.caps, nil
		}
		return nil, err
	}

	p.mu.Lock()
	p.entries[key] = &capsEntry{caps: caps, fetchedAt: time.Now()}
	p.mu.Unlock()

	return caps, nil
}
