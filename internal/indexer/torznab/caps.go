package torznab

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/driftarr/driftarr/internal/indexer/types"
)

// Capabilities is a read-mostly snapshot of what a remote indexer reports
// it can do, fetched from its ?t=caps endpoint.
type Capabilities struct {
	SearchParams    []string                `json:"searchParams"`
	TVSearchParams  []string                `json:"tvSearchParams"`
	DefaultPageSize int                     `json:"defaultPageSize"`
	MaxPageSize     int                     `json:"maxPageSize"`
	Categories      []types.CategoryMapping `json:"categories"`
}

// HasSearchParam reports whether free-text search supports param.
func (c *Capabilities) HasSearchParam(param string) bool {
	return containsParam(c.SearchParams, param)
}

// HasTVSearchParam reports whether episodic search supports param.
func (c *Capabilities) HasTVSearchParam(param string) bool {
	return containsParam(c.TVSearchParams, param)
}

func containsParam(params []string, param string) bool {
	for _, p := range params {
		if p == param {
			return true
		}
	}
	return false
}

// Caps XML document shapes, per the Torznab convention.

type capsDoc struct {
	XMLName xml.Name `xml:"caps"`
	Limits  struct {
		Max     int `xml:"max,attr"`
		Default int `xml:"default,attr"`
	} `xml:"limits"`
	Searching struct {
		Search   capsSearchMode `xml:"search"`
		TVSearch capsSearchMode `xml:"tv-search"`
	} `xml:"searching"`
	Categories struct {
		Categories []capsCategory `xml:"category"`
	} `xml:"categories"`
}

type capsSearchMode struct {
	Available       string `xml:"available,attr"`
	SupportedParams string `xml:"supportedParams,attr"`
}

type capsCategory struct {
	ID      int            `xml:"id,attr"`
	Name    string         `xml:"name,attr"`
	Subcats []capsCategory `xml:"subcat"`
}

type errorDoc struct {
	XMLName     xml.Name `xml:"error"`
	Code        int      `xml:"code,attr"`
	Description string   `xml:"description,attr"`
}

// ParseCaps parses a caps XML document into a Capabilities snapshot.
// Missing page-size limits default to the system page size so a sparse
// caps document still yields a usable snapshot.
func ParseCaps(data []byte) (*Capabilities, error) {
	if apiErr := parseAPIError(data); apiErr != nil {
		return nil, apiErr
	}

	var doc capsDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse capabilities document: %w", err)
	}

	caps := &Capabilities{
		SearchParams:    splitParams(doc.Searching.Search),
		TVSearchParams:  splitParams(doc.Searching.TVSearch),
		DefaultPageSize: doc.Limits.Default,
		MaxPageSize:     doc.Limits.Max,
	}
	if caps.DefaultPageSize == 0 {
		caps.DefaultPageSize = maxPageSize
	}
	if caps.MaxPageSize == 0 {
		caps.MaxPageSize = maxPageSize
	}

	for _, cat := range doc.Categories.Categories {
		caps.Categories = append(caps.Categories, types.CategoryMapping{
			ID:   cat.ID,
			Name: cat.Name,
		})
		for _, sub := range cat.Subcats {
			caps.Categories = append(caps.Categories, types.CategoryMapping{
				ID:       sub.ID,
				Name:     cat.Name + "/" + sub.Name,
				ParentID: cat.ID,
			})
		}
	}

	return caps, nil
}

// parseAPIError detects a Torznab <error/> response body.
func parseAPIError(data []byte) error {
	var doc errorDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	if doc.XMLName.Local != "error" {
		return nil
	}
	return fmt.Errorf("indexer returned error %d: %s", doc.Code, doc.Description)
}

func splitParams(mode capsSearchMode) []string {
	if strings.EqualFold(mode.Available, "no") {
		return nil
	}
	if mode.SupportedParams == "" {
		return nil
	}
	var params []string
	for _, p := range strings.Split(mode.SupportedParams, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			params = append(params, p)
		}
	}
	return params
}
