// Package torznab implements the Torznab indexer adapter: capability
// negotiation, validation and request/response handling for indexers
// speaking the Torznab XML search convention.
package torznab

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/driftarr/driftarr/internal/indexer/types"
)

// Implementation identifies this adapter in stored indexer definitions.
const Implementation = "torznab"

// maxPageSize bounds memory and latency per result page regardless of
// what the remote indexer advertises.
const maxPageSize = 100

// Jackett's aggregate "all indexers" proxy endpoint, in its two known
// forms. Pointing a single-indexer entry at it works but performs badly,
// so it is flagged as a warning, not an error.
//
// The substring match is fragile against upstream path changes; keep the
// two forms in sync with Jackett rather than growing the list.
var jackettAllPaths = []string{
	"/api/v2.0/indexers/all/results/torznab",
	"/torznab/all",
}

const actionNewznabCategories = "newznabCategories"

// ErrUnknownAction is returned for action names no handler recognizes.
var ErrUnknownAction = errors.New("unknown action")

// Localization keys for validation messages.
const (
	keySearchParamsNotSupported = "indexer-validation-search-parameters-not-supported"
	keyUnableToConnect          = "indexer-validation-unable-to-connect"
	keyJackettAll               = "indexer-validation-jackett-all-not-supported"
	keyJackettAllHelp           = "indexer-validation-jackett-all-not-supported-help"
)

// ConnectivityTester performs the generic reachability/auth check that
// gates the rest of the validation pipeline.
type ConnectivityTester interface {
	Test(ctx context.Context, settings Settings) types.ValidationFailures
}

// Localizer resolves message keys to user-facing strings.
type Localizer interface {
	GetLocalizedString(key string, args ...any) string
}

// FallbackActionHandler handles action names the adapter itself does not
// recognize.
type FallbackActionHandler func(ctx context.Context, action string, query url.Values) (any, error)

// Torznab is the indexer adapter for one configured Torznab instance.
type Torznab struct {
	name         string
	settings     Settings
	capabilities CapabilitiesProvider
	connectivity ConnectivityTester
	localizer    Localizer
	fallback     FallbackActionHandler
	logger       *zerolog.Logger
}

// New creates a Torznab adapter for the given instance settings.
func New(name string, settings Settings, caps CapabilitiesProvider, connectivity ConnectivityTester, localizer Localizer, logger *zerolog.Logger) *Torznab {
	subLogger := logger.With().Str("component", "torznab").Str("indexer", name).Logger()
	return &Torznab{
		name:         name,
		settings:     settings,
		capabilities: caps,
		connectivity: connectivity,
		localizer:    localizer,
		logger:       &subLogger,
	}
}

// SetFallbackActionHandler sets the handler for unrecognized actions.
func (t *Torznab) SetFallbackActionHandler(fn FallbackActionHandler) {
	t.fallback = fn
}

func (t *Torznab) Name() string             { return t.name }
func (t *Torznab) Protocol() types.Protocol { return types.ProtocolTorrent }
func (t *Torznab) SupportsRSS() bool        { return true }
func (t *Torznab) SupportsSearch() bool     { return true }

// Settings returns the instance configuration.
func (t *Torznab) Settings() Settings { return t.settings }

// PageSize derives the effective page size from the advertised limits,
// preferring the larger of default and max (some indexers report a
// conservative default alongside a larger safe maximum) and clamping to
// the system ceiling. A failed capability fetch falls back to the ceiling
// rather than propagating: page size is an optimization, not correctness.
func (t *Torznab) PageSize(ctx context.Context) int {
	caps, err := t.capabilities.Capabilities(ctx, t.settings)
	if err != nil {
		t.logger.Debug().Err(err).Msg("Using default page size, capabilities unavailable")
		return maxPageSize
	}

	size := caps.DefaultPageSize
	if caps.MaxPageSize > size {
		size = caps.MaxPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return size
}

// RequestGenerator returns a generator bound to the current settings and
// the negotiated page size.
func (t *Torznab) RequestGenerator(ctx context.Context) types.RequestGenerator {
	return &RequestGenerator{
		settings: t.settings,
		pageSize: t.PageSize(ctx),
		logger:   t.logger,
	}
}

// Parser returns the response parser for this instance.
func (t *Torznab) Parser() types.ResponseParser {
	return NewParser(t.name)
}

// Test runs the validation pipeline for this instance. A connectivity
// error short-circuits the remaining stages so the root cause is not
// buried under secondary noise; otherwise the aggregator-endpoint check
// and the capability check both run and both accumulate.
func (t *Torznab) Test(ctx context.Context) types.ValidationFailures {
	failures := t.connectivity.Test(ctx, t.settings)
	if failures.HasErrors() {
		return failures
	}

	if f := t.checkAggregatorEndpoint(); f != nil {
		failures = append(failures, *f)
	}
	if f := t.testCapabilities(ctx); f != nil {
		failures = append(failures, *f)
	}
	return failures
}

// checkAggregatorEndpoint flags settings pointed at Jackett's combined
// "all" endpoint. The configuration still functions, so this is a
// warning only.
func (t *Torznab) checkAggregatorEndpoint() *types.ValidationFailure {
	for _, p := range jackettAllPaths {
		if strings.Contains(t.settings.APIPath, p) || strings.Contains(t.settings.BaseURL, p) {
			return &types.ValidationFailure{
				Field:               "apiPath",
				Message:             t.localizer.GetLocalizedString(keyJackettAll),
				IsWarning:           true,
				DetailedDescription: t.localizer.GetLocalizedString(keyJackettAllHelp),
			}
		}
	}
	return nil
}

// testCapabilities verifies the indexer supports at least one usable
// search mode: free-text, or episodic search with an identifier plus
// season and episode parameters.
func (t *Torznab) testCapabilities(ctx context.Context) *types.ValidationFailure {
	caps, err := t.capabilities.Capabilities(ctx, t.settings)
	if err != nil {
		// Connectivity problem, not a logic bug.
		t.logger.Warn().Err(err).Msg("Unable to connect to indexer")
		return &types.ValidationFailure{
			Message: t.localizer.GetLocalizedString(keyUnableToConnect, err.Error()),
		}
	}

	if caps.HasSearchParam("q") {
		return nil
	}

	hasIdentifier := caps.HasTVSearchParam("q") ||
		caps.HasTVSearchParam("tvdbid") ||
		caps.HasTVSearchParam("rid")
	if hasIdentifier && caps.HasTVSearchParam("season") && caps.HasTVSearchParam("ep") {
		return nil
	}

	return &types.ValidationFailure{
		Message: t.localizer.GetLocalizedString(keySearchParamsNotSupported),
	}
}

// SelectOption is one selectable value exposed to configuration UIs.
type SelectOption struct {
	Value int    `json:"value"`
	Name  string `json:"name"`
	Hint  string `json:"hint,omitempty"`
}

// CategoryOptions is the result shape of the category metadata action.
type CategoryOptions struct {
	Options []SelectOption `json:"options"`
}

// HandleAction serves named on-demand queries from configuration UIs.
// Unknown actions are delegated to the fallback handler.
func (t *Torznab) HandleAction(ctx context.Context, action string, query url.Values) (any, error) {
	switch action {
	case actionNewznabCategories:
		return CategoryOptions{Options: t.categoryOptions(ctx)}, nil
	default:
		if t.fallback != nil {
			return t.fallback(ctx, action, query)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

// categoryOptions builds the selectable category list from the remote
// taxonomy, falling back to the system default set on any failure. This
// is a UI convenience query and must never block or error the caller.
func (t *Torznab) categoryOptions(ctx context.Context) []SelectOption {
	mappings := types.DefaultCategoryMappings()

	caps, err := t.capabilities.Capabilities(ctx, t.settings)
	if err != nil {
		t.logger.Debug().Err(err).Msg("Using default categories, capabilities unavailable")
	} else if len(caps.Categories) > 0 {
		mappings = caps.Categories
	}

	options := make([]SelectOption, 0, len(mappings))
	for _, m := range mappings {
		opt := SelectOption{Value: m.ID, Name: m.Name}
		if m.ParentID != 0 {
			opt.Hint = fmt.Sprintf("(%d)", m.ParentID)
		}
		options = append(options, opt)
	}
	return options
}
