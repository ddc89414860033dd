// Package indexer manages configured search indexers: persistence,
// construction of protocol adapters, validation and on-demand metadata
// queries.
package indexer

import (
	"context"
	"net/url"

	"github.com/driftarr/driftarr/internal/indexer/types"
)

// SearchIndexer is the interface every indexer protocol adapter
// implements. Adapters are cheap to construct; the service builds one
// per call from the stored definition.
type SearchIndexer interface {
	// Name returns the configured display name.
	Name() string

	// Protocol returns the download protocol of results.
	Protocol() types.Protocol

	// SupportsRSS reports whether the implementation can serve feed pulls.
	SupportsRSS() bool

	// SupportsSearch reports whether the implementation can serve queries.
	SupportsSearch() bool

	// RequestGenerator returns a generator bound to the instance settings.
	RequestGenerator(ctx context.Context) types.RequestGenerator

	// Parser returns the response parser for the instance.
	Parser() types.ResponseParser

	// Test runs the instance's validation pipeline.
	Test(ctx context.Context) types.ValidationFailures

	// HandleAction serves a named on-demand query from a configuration UI.
	HandleAction(ctx context.Context, action string, query url.Values) (any, error)
}
