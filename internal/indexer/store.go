package indexer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/driftarr/driftarr/internal/indexer/types"
)

// Store persists indexer definitions.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const indexerColumns = `id, name, implementation, settings, protocol, privacy, priority,
	enabled, enable_rss, enable_automatic_search, enable_interactive_search,
	supports_rss, supports_search, created_at, updated_at`

// Get retrieves one definition by ID.
func (s *Store) Get(ctx context.Context, id int64) (*types.IndexerDefinition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+indexerColumns+` FROM indexers WHERE id = ?`, id)
	def, err := scanIndexer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIndexerNotFound
		}
		return nil, fmt.Errorf("failed to get indexer: %w", err)
	}
	return def, nil
}

// GetByName retrieves one definition by its display name.
func (s *Store) GetByName(ctx context.Context, name string) (*types.IndexerDefinition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+indexerColumns+` FROM indexers WHERE name = ?`, name)
	def, err := scanIndexer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIndexerNotFound
		}
		return nil, fmt.Errorf("failed to get indexer: %w", err)
	}
	return def, nil
}

// List returns all definitions ordered by priority then name.
func (s *Store) List(ctx context.Context) ([]*types.IndexerDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+indexerColumns+` FROM indexers ORDER BY priority, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexers: %w", err)
	}
	defer rows.Close()
	return collectIndexers(rows)
}

// ListEnabled returns all enabled definitions ordered by priority then name.
func (s *Store) ListEnabled(ctx context.Context) ([]*types.IndexerDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+indexerColumns+` FROM indexers WHERE enabled = 1 ORDER BY priority, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled indexers: %w", err)
	}
	defer rows.Close()
	return collectIndexers(rows)
}

// Create inserts a definition and returns it with its assigned ID.
func (s *Store) Create(ctx context.Context, def *types.IndexerDefinition) (*types.IndexerDefinition, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO indexers (name, implementation, settings, protocol, privacy, priority,
			enabled, enable_rss, enable_automatic_search, enable_interactive_search,
			supports_rss, supports_search, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.Name, def.Implementation, settingsValue(def.Settings),
		string(def.Protocol), string(def.Privacy), def.Priority,
		def.Enabled, def.EnableRSS, def.EnableAutomaticSearch, def.EnableInteractiveSearch,
		def.SupportsRSS, def.SupportsSearch, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted indexer id: %w", err)
	}
	return s.Get(ctx, id)
}

// Update replaces a definition's stored fields.
func (s *Store) Update(ctx context.Context, def *types.IndexerDefinition) (*types.IndexerDefinition, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE indexers SET name = ?, implementation = ?, settings = ?, protocol = ?,
			privacy = ?, priority = ?, enabled = ?, enable_rss = ?,
			enable_automatic_search = ?, enable_interactive_search = ?,
			supports_rss = ?, supports_search = ?, updated_at = ?
		 WHERE id = ?`,
		def.Name, def.Implementation, settingsValue(def.Settings),
		string(def.Protocol), string(def.Privacy), def.Priority,
		def.Enabled, def.EnableRSS, def.EnableAutomaticSearch, def.EnableInteractiveSearch,
		def.SupportsRSS, def.SupportsSearch, time.Now().UTC(), def.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update indexer: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return nil, ErrIndexerNotFound
	}
	return s.Get(ctx, def.ID)
}

// Delete removes a definition.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM indexers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete indexer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrIndexerNotFound
	}
	return nil
}

// Count returns the total number of definitions.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM indexers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count indexers: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIndexer(row rowScanner) (*types.IndexerDefinition, error) {
	var (
		def      types.IndexerDefinition
		settings sql.NullString
		protocol string
		privacy  string
	)
	err := row.Scan(&def.ID, &def.Name, &def.Implementation, &settings, &protocol, &privacy,
		&def.Priority, &def.Enabled, &def.EnableRSS, &def.EnableAutomaticSearch,
		&def.EnableInteractiveSearch, &def.SupportsRSS, &def.SupportsSearch,
		&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return nil, err
	}

	def.Protocol = types.Protocol(protocol)
	def.Privacy = types.Privacy(privacy)
	if settings.Valid && settings.String != "" {
		def.Settings = json.RawMessage(settings.String)
	}
	return &def, nil
}

func collectIndexers(rows *sql.Rows) ([]*types.IndexerDefinition, error) {
	var defs []*types.IndexerDefinition
	for rows.Next() {
		def, err := scanIndexer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan indexer row: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read indexer rows: %w", err)
	}
	return defs, nil
}

func settingsValue(raw json.RawMessage) string {
	if raw == nil {
		return "{}"
	}
	return string(raw)
}
