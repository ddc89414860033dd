package torznab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/driftarr/driftarr/internal/indexer/types"
)

// RequestGenerator builds Torznab search requests from application-level
// search criteria, honoring the negotiated page size and the instance's
// category configuration.
type RequestGenerator struct {
	settings Settings
	pageSize int
	logger   *zerolog.Logger
}

// PageSize returns the negotiated page size.
func (g *RequestGenerator) PageSize() int { return g.pageSize }

// SearchRequests builds the HTTP requests for one page of results.
func (g *RequestGenerator) SearchRequests(ctx context.Context, criteria types.SearchCriteria) ([]*http.Request, error) {
	endpoint, err := g.settings.APIEndpoint()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("t", searchType(criteria))

	if criteria.Query != "" {
		params.Set("q", criteria.Query)
	}
	if criteria.Season > 0 {
		params.Set("season", strconv.Itoa(criteria.Season))
	}
	if criteria.Episode > 0 {
		params.Set("ep", strconv.Itoa(criteria.Episode))
	}
	if criteria.TvdbID > 0 {
		params.Set("tvdbid", strconv.Itoa(criteria.TvdbID))
	}
	if criteria.RageID > 0 {
		params.Set("rid", strconv.Itoa(criteria.RageID))
	}

	if cats := g.categoriesFor(criteria); len(cats) > 0 {
		params.Set("cat", joinInts(cats))
	}

	limit := g.pageSize
	if criteria.Limit > 0 && criteria.Limit < limit {
		limit = criteria.Limit
	}
	params.Set("limit", strconv.Itoa(limit))
	if criteria.Offset > 0 {
		params.Set("offset", strconv.Itoa(criteria.Offset))
	}

	if g.settings.APIKey != "" {
		params.Set("apikey", g.settings.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	g.logger.Debug().Str("type", params.Get("t")).Str("q", criteria.Query).Msg("Built search request")
	return []*http.Request{req}, nil
}

// categoriesFor picks the category set for the criteria: explicit
// criteria categories win, anime-flagged searches use the anime set,
// everything else uses the default set.
func (g *RequestGenerator) categoriesFor(criteria types.SearchCriteria) []int {
	if len(criteria.Categories) > 0 {
		return criteria.Categories
	}
	if criteria.Anime {
		return g.settings.AnimeCategories
	}
	return g.settings.Categories
}

func searchType(criteria types.SearchCriteria) string {
	if criteria.Type != "" {
		return criteria.Type
	}
	if criteria.Season > 0 || criteria.Episode > 0 || criteria.TvdbID > 0 || criteria.RageID > 0 {
		return "tvsearch"
	}
	return "search"
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
