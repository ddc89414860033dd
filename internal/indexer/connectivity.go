package indexer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftarr/driftarr/internal/indexer/torznab"
	"github.com/driftarr/driftarr/internal/indexer/types"
)

const (
	connectivityTimeout = 30 * time.Second
	maxTestBodySize     = 2 * 1024 * 1024 // 2 MB
	keyUnableToConnect  = "indexer-validation-unable-to-connect"
)

// Localizer resolves message keys to user-facing strings.
type Localizer interface {
	GetLocalizedString(key string, args ...any) string
}

// HTTPConnectivityTester verifies that a Torznab endpoint is reachable
// and accepts the configured credentials by issuing a minimal search.
type HTTPConnectivityTester struct {
	httpClient *http.Client
	localizer  Localizer
	logger     *zerolog.Logger
}

// NewHTTPConnectivityTester creates a connectivity tester.
func NewHTTPConnectivityTester(localizer Localizer, logger *zerolog.Logger) *HTTPConnectivityTester {
	subLogger := logger.With().Str("component", "connectivity").Logger()
	return &HTTPConnectivityTester{
		httpClient: &http.Client{Timeout: connectivityTimeout},
		localizer:  localizer,
		logger:     &subLogger,
	}
}

// Test performs the reachability check. Any problem is reported as an
// error-level failure so later validation stages are skipped.
func (t *HTTPConnectivityTester) Test(ctx context.Context, settings torznab.Settings) types.ValidationFailures {
	if err := settings.Validate(); err != nil {
		return types.ValidationFailures{{
			Field:   "baseUrl",
			Message: t.localizer.GetLocalizedString(keyUnableToConnect, err.Error()),
		}}
	}

	endpoint, err := settings.APIEndpoint()
	if err != nil {
		return types.ValidationFailures{{
			Field:   "baseUrl",
			Message: t.localizer.GetLocalizedString(keyUnableToConnect, err.Error()),
		}}
	}

	params := url.Values{}
	params.Set("t", "search")
	params.Set("q", "")
	params.Set("limit", "1")
	if settings.APIKey != "" {
		params.Set("apikey", settings.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return t.failure(err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Warn().Err(err).Str("url", endpoint).Msg("Connectivity test failed")
		return t.failure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP %d", resp.StatusCode)
		t.logger.Warn().Int("status", resp.StatusCode).Str("url", endpoint).Msg("Connectivity test failed")
		return t.failure(err)
	}

	// A 200 carrying a Torznab error document still means the indexer is
	// rejecting us, commonly for a bad API key.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTestBodySize))
	if err != nil {
		return t.failure(err)
	}
	if _, err := torznab.NewParser("connectivity").Parse(body); err != nil {
		t.logger.Warn().Err(err).Str("url", endpoint).Msg("Connectivity test failed")
		return t.failure(err)
	}

	return nil
}

func (t *HTTPConnectivityTester) failure(err error) types.ValidationFailures {
	return types.ValidationFailures{{
		Message: t.localizer.GetLocalizedString(keyUnableToConnect, err.Error()),
	}}
}
