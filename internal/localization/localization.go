// Package localization provides lookup of user-facing message strings.
package localization

import (
	"embed"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

//go:embed strings.yaml
var stringsFS embed.FS

// Service resolves message keys to localized strings.
type Service struct {
	strings map[string]string
	logger  *zerolog.Logger
}

// NewService creates a localization service from the embedded string table.
func NewService(logger *zerolog.Logger) (*Service, error) {
	data, err := stringsFS.ReadFile("strings.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read string table: %w", err)
	}

	table := make(map[string]string)
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse string table: %w", err)
	}

	subLogger := logger.With().Str("component", "localization").Logger()
	return &Service{strings: table, logger: &subLogger}, nil
}

// GetLocalizedString returns the message for key, applying printf-style
// substitutions when args are given. Unknown keys return the key itself so
// a missing translation never hides an error message entirely.
func (s *Service) GetLocalizedString(key string, args ...any) string {
	msg, ok := s.strings[key]
	if !ok {
		s.logger.Warn().Str("key", key).Msg("Missing localization key")
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
