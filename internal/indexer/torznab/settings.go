package torznab

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/driftarr/driftarr/internal/indexer/types"
)

// DefaultAPIPath is the protocol-standard search API location.
const DefaultAPIPath = "/api"

// Settings holds the connection configuration for one Torznab indexer
// instance.
type Settings struct {
	BaseURL string `json:"baseUrl"`
	APIPath string `json:"apiPath"`
	APIKey  string `json:"apiKey,omitempty"`

	// Categories searched by default; empty means no category restriction.
	Categories []int `json:"categories"`

	// AnimeCategories are used for anime-flagged searches only and are
	// independent of Categories.
	AnimeCategories []int `json:"animeCategories"`
}

// SettingsOption overrides one field of a Settings value. Supplying an
// option with an empty value is distinct from not supplying it at all: an
// explicitly empty category list clears the built-in default, an absent
// option keeps it.
type SettingsOption func(*Settings)

// WithAPIPath overrides the API path. A blank path keeps the default.
func WithAPIPath(path string) SettingsOption {
	return func(s *Settings) {
		if strings.TrimSpace(path) != "" {
			s.APIPath = path
		}
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) SettingsOption {
	return func(s *Settings) {
		s.APIKey = key
	}
}

// WithCategories overrides the default category set. Passing an empty
// slice clears it.
func WithCategories(categories []int) SettingsOption {
	return func(s *Settings) {
		s.Categories = append([]int{}, categories...)
	}
}

// WithAnimeCategories overrides the anime category set. Passing an empty
// slice clears it.
func WithAnimeCategories(categories []int) SettingsOption {
	return func(s *Settings) {
		s.AnimeCategories = append([]int{}, categories...)
	}
}

// NewSettings creates Settings for baseURL with built-in defaults, then
// applies the given overrides.
func NewSettings(baseURL string, opts ...SettingsOption) Settings {
	s := Settings{
		BaseURL:         baseURL,
		APIPath:         DefaultAPIPath,
		Categories:      []int{types.CategoryTVSD, types.CategoryTVHD},
		AnimeCategories: []int{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Validate checks that the settings identify a usable endpoint.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(s.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if strings.TrimSpace(s.APIPath) == "" {
		return fmt.Errorf("API path must not be blank")
	}
	return nil
}

// APIEndpoint joins the base URL and API path into the search endpoint.
func (s Settings) APIEndpoint() (string, error) {
	endpoint, err := url.JoinPath(s.BaseURL, s.APIPath)
	if err != nil {
		return "", fmt.Errorf("invalid indexer endpoint: %w", err)
	}
	return endpoint, nil
}

// connectionIdentity keys capability snapshots: two Settings values with
// the same identity talk to the same remote API.
func (s Settings) connectionIdentity() string {
	return s.BaseURL + "|" + s.APIPath + "|" + s.APIKey
}
