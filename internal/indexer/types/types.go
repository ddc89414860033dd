// Package types contains shared type definitions for indexer packages.
package types

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Protocol represents the download protocol.
type Protocol string

const (
	ProtocolTorrent Protocol = "torrent"
	ProtocolUsenet  Protocol = "usenet"
)

// Privacy represents indexer privacy level.
type Privacy string

const (
	PrivacyPublic      Privacy = "public"
	PrivacySemiPrivate Privacy = "semi-private"
	PrivacyPrivate     Privacy = "private"
)

// IndexerDefinition represents a configured indexer instance.
type IndexerDefinition struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Implementation string          `json:"implementation"` // e.g. "torznab"
	Settings       json.RawMessage `json:"settings,omitempty"`
	Protocol       Protocol        `json:"protocol"`
	Privacy        Privacy         `json:"privacy"`
	Priority       int             `json:"priority"`
	Enabled        bool            `json:"enabled"`

	// Per-instance feature toggles. A freshly seeded definition ships with
	// all three disabled so it cannot start querying the remote indexer
	// before a user opts in.
	EnableRSS               bool `json:"enableRss"`
	EnableAutomaticSearch   bool `json:"enableAutomaticSearch"`
	EnableInteractiveSearch bool `json:"enableInteractiveSearch"`

	// What the implementation itself is able to do, independent of the
	// per-instance toggles above.
	SupportsRSS    bool `json:"supportsRss"`
	SupportsSearch bool `json:"supportsSearch"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// SearchCriteria defines search parameters handed to a request generator.
type SearchCriteria struct {
	Query      string `json:"query,omitempty"`
	Type       string `json:"type"` // search, tvsearch
	Categories []int  `json:"categories,omitempty"`

	// TV-specific identifiers
	TvdbID  int `json:"tvdbId,omitempty"`
	RageID  int `json:"rageId,omitempty"`
	Season  int `json:"season,omitempty"`
	Episode int `json:"episode,omitempty"`

	// Anime-flagged searches use the indexer's anime category set.
	Anime bool `json:"anime,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ReleaseInfo represents a search result from an indexer.
type ReleaseInfo struct {
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DownloadURL string    `json:"downloadUrl"`
	InfoURL     string    `json:"infoUrl,omitempty"`
	Size        int64     `json:"size"`
	PublishDate time.Time `json:"publishDate"`
	Categories  []int     `json:"categories,omitempty"`

	IndexerID   int64    `json:"indexerId"`
	IndexerName string   `json:"indexer"`
	Protocol    Protocol `json:"protocol"`
}

// TorrentInfo extends ReleaseInfo with torrent-specific fields.
type TorrentInfo struct {
	ReleaseInfo
	Seeders              int     `json:"seeders"`
	Leechers             int     `json:"leechers"`
	InfoHash             string  `json:"infoHash,omitempty"`
	MagnetURL            string  `json:"magnetUrl,omitempty"`
	DownloadVolumeFactor float64 `json:"downloadVolumeFactor"` // 0 = freeleech
	UploadVolumeFactor   float64 `json:"uploadVolumeFactor"`   // 2 = double upload
}

// CategoryMapping describes one selectable indexer category.
type CategoryMapping struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ParentID int    `json:"parentId,omitempty"`
}

// ValidationFailure is the outcome of a single validation check.
type ValidationFailure struct {
	// Field names the offending setting; empty means the failure applies
	// to the whole instance.
	Field               string `json:"field,omitempty"`
	Message             string `json:"message"`
	IsWarning           bool   `json:"isWarning,omitempty"`
	DetailedDescription string `json:"detailedDescription,omitempty"`
}

// ValidationFailures accumulates the results of a validation pipeline.
type ValidationFailures []ValidationFailure

// HasErrors reports whether the list contains at least one non-warning
// entry. An indexer with errors must not be activated.
func (v ValidationFailures) HasErrors() bool {
	for _, f := range v {
		if !f.IsWarning {
			return true
		}
	}
	return false
}

// Warnings returns only the warning-level entries.
func (v ValidationFailures) Warnings() ValidationFailures {
	var out ValidationFailures
	for _, f := range v {
		if f.IsWarning {
			out = append(out, f)
		}
	}
	return out
}

// RequestGenerator builds protocol-correct search requests from
// application-level search criteria.
type RequestGenerator interface {
	SearchRequests(ctx context.Context, criteria SearchCriteria) ([]*http.Request, error)
}

// ResponseParser turns a raw indexer response body into release records.
type ResponseParser interface {
	Parse(data []byte) ([]TorrentInfo, error)
}
