package torznab

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubCapsProvider struct {
	caps  *Capabilities
	err   error
	calls int
}

func (p *stubCapsProvider) Capabilities(ctx context.Context, settings Settings) (*Capabilities, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.caps, nil
}

func TestCachedProviderCachesPerConnection(t *testing.T) {
	inner := &stubCapsProvider{caps: &Capabilities{SearchParams: []string{"q"}}}
	provider := NewCachedProvider(inner, time.Hour)

	settings := NewSettings("https://indexer.example.com")

	for i := 0; i < 3; i++ {
		caps, err := provider.Capabilities(context.Background(), settings)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !caps.HasSearchParam("q") {
			t.Fatal("expected cached capabilities")
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 fetch for repeated identical settings, got %d", inner.calls)
	}

	other := NewSettings("https://other.example.com")
	if _, err := provider.Capabilities(context.Background(), other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected separate fetch for different connection, got %d calls", inner.calls)
	}
}

func TestCachedProviderStaleOnRefreshFailure(t *testing.T) {
	inner := &stubCapsProvider{caps: &Capabilities{DefaultPageSize: 50, MaxPageSize: 80}}
	provider := NewCachedProvider(inner, 0)

	settings := NewSettings("https://indexer.example.com")

	if _, err := provider.Capabilities(context.Background(), settings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inner.err = errors.New("connection refused")
	caps, err := provider.Capabilities(context.Background(), settings)
	if err != nil {
		t.Fatalf("expected stale snapshot instead of error, got %v", err)
	}
	if caps.MaxPageSize != 80 {
		t.Errorf("expected stale snapshot to survive failed refresh, got %+v", caps)
	}
}

func TestCachedProviderErrorWithoutCache(t *testing.T) {
	inner := &stubCapsProvider{err: errors.New("connection refused")}
	provider := NewCachedProvider(inner, time.Hour)

	_, err := provider.Capabilities(context.Background(), NewSettings("https://indexer.example.com"))
	if err == nil {
		t.Fatal("expected error when no snapshot was ever fetched")
	}
}
