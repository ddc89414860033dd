package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/driftarr/driftarr/internal/indexer/torznab"
	"github.com/driftarr/driftarr/internal/indexer/types"
	"github.com/driftarr/driftarr/internal/localization"
	"github.com/driftarr/driftarr/internal/testutil"
)

type stubCapsProvider struct {
	caps  *torznab.Capabilities
	err   error
	calls int
}

func (p *stubCapsProvider) Capabilities(ctx context.Context, settings torznab.Settings) (*torznab.Capabilities, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.caps, nil
}

type stubConnectivityTester struct {
	failures types.ValidationFailures
}

func (s *stubConnectivityTester) Test(ctx context.Context, settings torznab.Settings) types.ValidationFailures {
	return s.failures
}

func newTestService(t *testing.T, provider torznab.CapabilitiesProvider, tester torznab.ConnectivityTester) *Service {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	logger := testutil.NopLogger()

	localizer, err := localization.NewService(&logger)
	if err != nil {
		t.Fatalf("failed to create localization service: %v", err)
	}

	if provider == nil {
		provider = &stubCapsProvider{caps: &torznab.Capabilities{SearchParams: []string{"q"}}}
	}
	if tester == nil {
		tester = &stubConnectivityTester{}
	}

	return NewService(tdb.Conn, provider, tester, localizer, &logger)
}

func testSettingsJSON(t *testing.T) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(torznab.NewSettings("https://indexer.example.com"))
	if err != nil {
		t.Fatalf("failed to marshal settings: %v", err)
	}
	return data
}

func TestParseTorznabSettingsCategoryOverrides(t *testing.T) {
	defaultCats := []int{types.CategoryTVSD, types.CategoryTVHD}

	tests := []struct {
		name string
		raw  string
		want []int
	}{
		{
			name: "absent keeps default",
			raw:  `{"baseUrl": "https://indexer.example.com"}`,
			want: defaultCats,
		},
		{
			name: "null keeps default",
			raw:  `{"baseUrl": "https://indexer.example.com", "categories": null}`,
			want: defaultCats,
		},
		{
			name: "explicit empty clears",
			raw:  `{"baseUrl": "https://indexer.example.com", "categories": []}`,
			want: []int{},
		},
		{
			name: "explicit list wins",
			raw:  `{"baseUrl": "https://indexer.example.com", "categories": [5045]}`,
			want: []int{5045},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := parseTorznabSettings(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(settings.Categories, tt.want) {
				t.Errorf("expected categories %v, got %v", tt.want, settings.Categories)
			}
			if settings.APIPath != torznab.DefaultAPIPath {
				t.Errorf("expected default API path, got %q", settings.APIPath)
			}
		})
	}
}

func TestServiceCreateAndGet(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateIndexerInput{
		Name:     "My Indexer",
		Settings: testSettingsJSON(t),
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected assigned ID")
	}
	if created.Implementation != torznab.Implementation {
		t.Errorf("expected default implementation, got %q", created.Implementation)
	}
	if !created.SupportsRSS || !created.SupportsSearch {
		t.Error("expected implementation capability flags to be set")
	}
	if created.Protocol != types.ProtocolTorrent {
		t.Errorf("unexpected protocol %q", created.Protocol)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "My Indexer" {
		t.Errorf("unexpected name %q", got.Name)
	}

	var settings torznab.Settings
	if err := json.Unmarshal(got.Settings, &settings); err != nil {
		t.Fatalf("failed to parse stored settings: %v", err)
	}
	if settings.BaseURL != "https://indexer.example.com" {
		t.Errorf("unexpected stored base url %q", settings.BaseURL)
	}
}

func TestServiceCreateInvalidSettings(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.Create(context.Background(), &CreateIndexerInput{
		Name:     "Broken",
		Settings: json.RawMessage(`{"baseUrl": ""}`),
	})
	if !errors.Is(err, ErrInvalidIndexer) {
		t.Errorf("expected ErrInvalidIndexer, got %v", err)
	}
}

func TestServiceCreateUnknownImplementation(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.Create(context.Background(), &CreateIndexerInput{
		Name:           "Other",
		Implementation: "newznab",
		Settings:       testSettingsJSON(t),
	})
	if !errors.Is(err, ErrUnknownImplementation) {
		t.Errorf("expected ErrUnknownImplementation, got %v", err)
	}
}

func TestServicePartialUpdate(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateIndexerInput{
		Name:     "My Indexer",
		Settings: testSettingsJSON(t),
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, &UpdateIndexerInput{
		Enabled: testutil.BoolPtr(false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Enabled {
		t.Error("expected indexer to be disabled")
	}
	if updated.Name != "My Indexer" {
		t.Errorf("expected untouched fields to survive, got name %q", updated.Name)
	}
}

func TestServiceDelete(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateIndexerInput{
		Name:     "My Indexer",
		Settings: testSettingsJSON(t),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, ErrIndexerNotFound) {
		t.Errorf("expected ErrIndexerNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrIndexerNotFound) {
		t.Errorf("expected ErrIndexerNotFound for second delete, got %v", err)
	}
}

func TestServiceSeedDefaults(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	if err := svc.SeedDefaults(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defs, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) == 0 {
		t.Fatal("expected seeded definitions")
	}

	for _, def := range defs {
		if def.Enabled || def.EnableRSS || def.EnableAutomaticSearch || def.EnableInteractiveSearch {
			t.Errorf("seeded definition %q must start fully disabled", def.Name)
		}
		if !def.SupportsRSS || !def.SupportsSearch {
			t.Errorf("seeded definition %q should keep capability flags", def.Name)
		}
	}

	// Seeding again must not duplicate.
	if err := svc.SeedDefaults(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := svc.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != int64(len(defs)) {
		t.Errorf("expected idempotent seeding, had %d now %d", len(defs), again)
	}
}

func TestServiceTestConfig(t *testing.T) {
	tests := []struct {
		name        string
		provider    *stubCapsProvider
		wantSuccess bool
	}{
		{
			name:        "usable indexer",
			provider:    &stubCapsProvider{caps: &torznab.Capabilities{SearchParams: []string{"q"}}},
			wantSuccess: true,
		},
		{
			name:        "no usable search mode",
			provider:    &stubCapsProvider{caps: &torznab.Capabilities{}},
			wantSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.provider, nil)

			result, err := svc.TestConfig(context.Background(), TestConfigInput{
				Settings: testSettingsJSON(t),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Success != tt.wantSuccess {
				t.Errorf("expected success=%v, got %+v", tt.wantSuccess, result)
			}
			if !tt.wantSuccess && len(result.Failures) == 0 {
				t.Error("expected failures on unsuccessful test")
			}
		})
	}
}

func TestServiceHandleAction(t *testing.T) {
	provider := &stubCapsProvider{caps: &torznab.Capabilities{
		Categories: []types.CategoryMapping{{ID: 5000, Name: "TV"}},
	}}
	svc := newTestService(t, provider, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateIndexerInput{
		Name:     "My Indexer",
		Settings: testSettingsJSON(t),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.HandleAction(ctx, created.ID, "newznabCategories", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts, ok := result.(torznab.CategoryOptions)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if len(opts.Options) != 1 || opts.Options[0].Value != 5000 {
		t.Errorf("unexpected options %+v", opts.Options)
	}

	if _, err := svc.HandleAction(ctx, created.ID, "bogus", nil); !errors.Is(err, torznab.ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestServiceRefreshCapabilities(t *testing.T) {
	provider := &stubCapsProvider{caps: &torznab.Capabilities{SearchParams: []string{"q"}}}
	svc := newTestService(t, provider, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateIndexerInput{
		Name:     "Enabled",
		Settings: testSettingsJSON(t),
		Enabled:  true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(ctx, &CreateIndexerInput{
		Name:     "Disabled",
		Settings: testSettingsJSON(t),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.RefreshCapabilities(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("expected refresh for enabled indexers only, got %d calls", provider.calls)
	}
}
