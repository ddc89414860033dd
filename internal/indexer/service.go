package indexer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/driftarr/driftarr/internal/indexer/torznab"
	"github.com/driftarr/driftarr/internal/indexer/types"
)

var (
	ErrIndexerNotFound       = errors.New("indexer not found")
	ErrInvalidIndexer        = errors.New("invalid indexer configuration")
	ErrUnknownImplementation = errors.New("unknown indexer implementation")
)

const (
	keyTestSuccessful = "indexer-test-successful"
	keyTestFailed     = "indexer-test-failed"
)

// Service provides indexer operations backed by the definition store.
type Service struct {
	store        *Store
	capabilities torznab.CapabilitiesProvider
	connectivity torznab.ConnectivityTester
	localizer    Localizer
	logger       *zerolog.Logger
}

// NewService creates a new indexer service.
func NewService(db *sql.DB, capabilities torznab.CapabilitiesProvider, connectivity torznab.ConnectivityTester, localizer Localizer, logger *zerolog.Logger) *Service {
	subLogger := logger.With().Str("component", "indexer").Logger()
	return &Service{
		store:        NewStore(db),
		capabilities: capabilities,
		connectivity: connectivity,
		localizer:    localizer,
		logger:       &subLogger,
	}
}

// Get retrieves an indexer by ID.
func (s *Service) Get(ctx context.Context, id int64) (*types.IndexerDefinition, error) {
	return s.store.Get(ctx, id)
}

// List returns all indexers.
func (s *Service) List(ctx context.Context) ([]*types.IndexerDefinition, error) {
	return s.store.List(ctx)
}

// ListEnabled returns all enabled indexers.
func (s *Service) ListEnabled(ctx context.Context) ([]*types.IndexerDefinition, error) {
	return s.store.ListEnabled(ctx)
}

// Count returns the total number of indexers.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

// CreateIndexerInput is the input for creating a new indexer.
type CreateIndexerInput struct {
	Name                    string          `json:"name"`
	Implementation          string          `json:"implementation"`
	Settings                json.RawMessage `json:"settings,omitempty"`
	Priority                int             `json:"priority"`
	Enabled                 bool            `json:"enabled"`
	EnableRSS               *bool           `json:"enableRss,omitempty"`
	EnableAutomaticSearch   *bool           `json:"enableAutomaticSearch,omitempty"`
	EnableInteractiveSearch *bool           `json:"enableInteractiveSearch,omitempty"`
}

// UpdateIndexerInput is the input for updating an indexer. Nil fields
// keep their stored value.
type UpdateIndexerInput struct {
	Name                    *string         `json:"name,omitempty"`
	Settings                json.RawMessage `json:"settings,omitempty"`
	Priority                *int            `json:"priority,omitempty"`
	Enabled                 *bool           `json:"enabled,omitempty"`
	EnableRSS               *bool           `json:"enableRss,omitempty"`
	EnableAutomaticSearch   *bool           `json:"enableAutomaticSearch,omitempty"`
	EnableInteractiveSearch *bool           `json:"enableInteractiveSearch,omitempty"`
}

// Create creates a new indexer.
func (s *Service) Create(ctx context.Context, input *CreateIndexerInput) (*types.IndexerDefinition, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidIndexer)
	}

	def := &types.IndexerDefinition{
		Name:                    input.Name,
		Implementation:          input.Implementation,
		Settings:                input.Settings,
		Priority:                input.Priority,
		Enabled:                 input.Enabled,
		EnableRSS:               optBool(input.EnableRSS, true),
		EnableAutomaticSearch:   optBool(input.EnableAutomaticSearch, true),
		EnableInteractiveSearch: optBool(input.EnableInteractiveSearch, true),
	}
	if def.Priority == 0 {
		def.Priority = 25
	}

	if err := s.applyImplementation(def); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, def)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("id", created.ID).Str("name", created.Name).
		Str("implementation", created.Implementation).Msg("Created indexer")
	return created, nil
}

// Update updates an existing indexer with partial update support.
func (s *Service) Update(ctx context.Context, id int64, input *UpdateIndexerInput) (*types.IndexerDefinition, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidIndexer)
		}
		existing.Name = *input.Name
	}
	if input.Settings != nil {
		existing.Settings = input.Settings
	}
	if input.Priority != nil {
		existing.Priority = *input.Priority
	}
	existing.Enabled = optBool(input.Enabled, existing.Enabled)
	existing.EnableRSS = optBool(input.EnableRSS, existing.EnableRSS)
	existing.EnableAutomaticSearch = optBool(input.EnableAutomaticSearch, existing.EnableAutomaticSearch)
	existing.EnableInteractiveSearch = optBool(input.EnableInteractiveSearch, existing.EnableInteractiveSearch)

	if err := s.applyImplementation(existing); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("id", id).Str("name", updated.Name).Msg("Updated indexer")
	return updated, nil
}

// Delete deletes an indexer.
func (s *Service) Delete(ctx context.Context, id int64) error {
	indexer, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("id", id).Str("name", indexer.Name).Msg("Deleted indexer")
	return nil
}

// applyImplementation validates the implementation-specific settings and
// stamps the capability flags the implementation dictates.
func (s *Service) applyImplementation(def *types.IndexerDefinition) error {
	switch def.Implementation {
	case torznab.Implementation, "":
		def.Implementation = torznab.Implementation
		settings, err := parseTorznabSettings(def.Settings)
		if err != nil {
			return err
		}
		if err := settings.Validate(); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidIndexer, err.Error())
		}
		def.Protocol = types.ProtocolTorrent
		if def.Privacy == "" {
			def.Privacy = types.PrivacyPublic
		}
		def.SupportsRSS = true
		def.SupportsSearch = true
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownImplementation, def.Implementation)
	}
}

// BuildIndexer constructs the protocol adapter for a stored definition.
func (s *Service) BuildIndexer(def *types.IndexerDefinition) (SearchIndexer, error) {
	switch def.Implementation {
	case torznab.Implementation:
		settings, err := parseTorznabSettings(def.Settings)
		if err != nil {
			return nil, err
		}
		return torznab.New(def.Name, settings, s.capabilities, s.connectivity, s.localizer, s.logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownImplementation, def.Implementation)
	}
}

// TestResult represents the outcome of validating an indexer.
type TestResult struct {
	Success  bool                     `json:"success"`
	Message  string                   `json:"message"`
	Failures types.ValidationFailures `json:"failures,omitempty"`
}

// Test validates a stored indexer by ID.
func (s *Service) Test(ctx context.Context, id int64) (*TestResult, error) {
	def, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.testDefinition(ctx, def)
}

// TestConfigInput is the input for testing a configuration without saving.
type TestConfigInput struct {
	Name           string          `json:"name"`
	Implementation string          `json:"implementation"`
	Settings       json.RawMessage `json:"settings"`
}

// TestConfig validates an indexer configuration without saving it.
func (s *Service) TestConfig(ctx context.Context, input TestConfigInput) (*TestResult, error) {
	name := input.Name
	if name == "" {
		name = "unsaved"
	}
	return s.testDefinition(ctx, &types.IndexerDefinition{
		Name:           name,
		Implementation: implementationOrDefault(input.Implementation),
		Settings:       input.Settings,
	})
}

func (s *Service) testDefinition(ctx context.Context, def *types.IndexerDefinition) (*TestResult, error) {
	idx, err := s.BuildIndexer(def)
	if err != nil {
		return nil, err
	}

	failures := idx.Test(ctx)
	result := &TestResult{
		Success:  !failures.HasErrors(),
		Failures: failures,
	}
	if result.Success {
		result.Message = s.localizer.GetLocalizedString(keyTestSuccessful)
	} else {
		result.Message = s.localizer.GetLocalizedString(keyTestFailed)
	}

	s.logger.Info().Str("name", def.Name).Bool("success", result.Success).
		Int("failures", len(failures)).Msg("Indexer test finished")
	return result, nil
}

// HandleAction serves a named on-demand query for a stored indexer.
func (s *Service) HandleAction(ctx context.Context, id int64, action string, query url.Values) (any, error) {
	def, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	idx, err := s.BuildIndexer(def)
	if err != nil {
		return nil, err
	}
	return idx.HandleAction(ctx, action, query)
}

// HandleConfigAction serves a named query for an unsaved configuration,
// used by UIs while the user is still filling in the form.
func (s *Service) HandleConfigAction(ctx context.Context, input TestConfigInput, action string, query url.Values) (any, error) {
	idx, err := s.BuildIndexer(&types.IndexerDefinition{
		Name:           "unsaved",
		Implementation: implementationOrDefault(input.Implementation),
		Settings:       input.Settings,
	})
	if err != nil {
		return nil, err
	}
	return idx.HandleAction(ctx, action, query)
}

// SeedDefaults inserts the built-in indexer definitions that are not
// already present. Seeded instances start with RSS sync and search
// disabled so nothing queries a remote indexer before a user opts in.
func (s *Service) SeedDefaults(ctx context.Context) error {
	for def := range torznab.DefaultDefinitions() {
		if _, err := s.store.GetByName(ctx, def.Name); err == nil {
			continue
		} else if !errors.Is(err, ErrIndexerNotFound) {
			return err
		}

		settingsJSON, err := json.Marshal(def.Settings)
		if err != nil {
			return fmt.Errorf("failed to serialize default settings: %w", err)
		}

		record := &types.IndexerDefinition{
			Name:           def.Name,
			Implementation: torznab.Implementation,
			Settings:       settingsJSON,
			Priority:       25,
			Enabled:        false,
		}
		if err := s.applyImplementation(record); err != nil {
			return fmt.Errorf("invalid default definition %q: %w", def.Name, err)
		}

		if _, err := s.store.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to seed default indexer %q: %w", def.Name, err)
		}
		s.logger.Info().Str("name", def.Name).Msg("Seeded default indexer")
	}
	return nil
}

// RefreshCapabilities warms the capability cache for all enabled
// indexers. Failures are logged and skipped; a stale snapshot stays
// usable until the next refresh succeeds.
func (s *Service) RefreshCapabilities(ctx context.Context) error {
	defs, err := s.store.ListEnabled(ctx)
	if err != nil {
		return err
	}

	for _, def := range defs {
		if def.Implementation != torznab.Implementation {
			continue
		}
		settings, err := parseTorznabSettings(def.Settings)
		if err != nil {
			s.logger.Warn().Err(err).Str("name", def.Name).Msg("Skipping capability refresh, bad settings")
			continue
		}
		if _, err := s.capabilities.Capabilities(ctx, settings); err != nil {
			s.logger.Warn().Err(err).Str("name", def.Name).Msg("Capability refresh failed")
		}
	}
	return nil
}

// parseTorznabSettings builds Settings from a stored or submitted JSON
// payload. Fields are staged through pointers so a null or absent
// category override keeps the built-in default; only an explicit empty
// list clears it.
func parseTorznabSettings(raw json.RawMessage) (torznab.Settings, error) {
	settings := torznab.NewSettings("")
	if raw == nil {
		return settings, nil
	}

	var staged struct {
		BaseURL         *string `json:"baseUrl"`
		APIPath         *string `json:"apiPath"`
		APIKey          *string `json:"apiKey"`
		Categories      *[]int  `json:"categories"`
		AnimeCategories *[]int  `json:"animeCategories"`
	}
	if err := json.Unmarshal(raw, &staged); err != nil {
		return settings, fmt.Errorf("%w: %s", ErrInvalidIndexer, err.Error())
	}

	if staged.BaseURL != nil {
		settings.BaseURL = *staged.BaseURL
	}
	if staged.APIPath != nil && strings.TrimSpace(*staged.APIPath) != "" {
		settings.APIPath = *staged.APIPath
	}
	if staged.APIKey != nil {
		settings.APIKey = *staged.APIKey
	}
	if staged.Categories != nil {
		settings.Categories = *staged.Categories
	}
	if staged.AnimeCategories != nil {
		settings.AnimeCategories = *staged.AnimeCategories
	}
	return settings, nil
}

func implementationOrDefault(impl string) string {
	if impl == "" {
		return torznab.Implementation
	}
	return impl
}

func optBool(ptr *bool, defaultVal bool) bool {
	if ptr != nil {
		return *ptr
	}
	return defaultVal
}
