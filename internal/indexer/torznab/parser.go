package torznab

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/driftarr/driftarr/internal/indexer/types"
)

// Parser parses Torznab RSS response bodies into release records. It is
// stateless apart from the indexer name stamped onto each record.
type Parser struct {
	indexerName string
}

// NewParser creates a parser for the named indexer.
func NewParser(indexerName string) *Parser {
	return &Parser{indexerName: indexerName}
}

// Torznab feed document shapes.

type feedDoc struct {
	XMLName xml.Name    `xml:"rss"`
	Channel feedChannel `xml:"channel"`
}

type feedChannel struct {
	Title string     `xml:"title"`
	Items []feedItem `xml:"item"`
}

type feedItem struct {
	Title       string        `xml:"title"`
	GUID        string        `xml:"guid"`
	Link        string        `xml:"link"`
	Comments    string        `xml:"comments"`
	PubDate     string        `xml:"pubDate"`
	Size        int64         `xml:"size"`
	Description string        `xml:"description"`
	Category    []string      `xml:"category"`
	Enclosure   feedEnclosure `xml:"enclosure"`
	Attrs       []feedAttr    `xml:"attr"`
}

type feedEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type feedAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Parse parses a Torznab RSS body. A Torznab <error/> document yields an
// error carrying the remote description.
func (p *Parser) Parse(data []byte) ([]types.TorrentInfo, error) {
	if apiErr := parseAPIError(data); apiErr != nil {
		return nil, apiErr
	}

	var feed feedDoc
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]types.TorrentInfo, 0, len(feed.Channel.Items))
	for i := range feed.Channel.Items {
		if item := p.convertItem(&feed.Channel.Items[i]); item != nil {
			results = append(results, *item)
		}
	}
	return results, nil
}

func (p *Parser) convertItem(item *feedItem) *types.TorrentInfo {
	downloadURL := item.Link
	if downloadURL == "" && item.Enclosure.URL != "" {
		downloadURL = item.Enclosure.URL
	}
	if downloadURL == "" {
		return nil
	}

	size := item.Size
	if size == 0 && item.Enclosure.Length > 0 {
		size = item.Enclosure.Length
	}

	guid := item.GUID
	if guid == "" {
		guid = downloadURL
	}

	result := &types.TorrentInfo{
		ReleaseInfo: types.ReleaseInfo{
			GUID:        guid,
			Title:       item.Title,
			Description: item.Description,
			DownloadURL: downloadURL,
			InfoURL:     item.Comments,
			Size:        size,
			PublishDate: parseDate(item.PubDate),
			IndexerName: p.indexerName,
			Protocol:    types.ProtocolTorrent,
		},
		DownloadVolumeFactor: 1,
		UploadVolumeFactor:   1,
	}

	var (
		peers       int
		hasPeers    bool
		hasLeechers bool
	)
	for _, attr := range item.Attrs {
		switch attr.Name {
		case "seeders":
			result.Seeders, _ = strconv.Atoi(attr.Value)
		case "leechers":
			result.Leechers, _ = strconv.Atoi(attr.Value)
			hasLeechers = true
		case "peers":
			peers, _ = strconv.Atoi(attr.Value)
			hasPeers = true
		case "infohash":
			result.InfoHash = attr.Value
		case "magneturl":
			result.MagnetURL = attr.Value
		case "downloadvolumefactor":
			if v, err := strconv.ParseFloat(attr.Value, 64); err == nil {
				result.DownloadVolumeFactor = v
			}
		case "uploadvolumefactor":
			if v, err := strconv.ParseFloat(attr.Value, 64); err == nil {
				result.UploadVolumeFactor = v
			}
		case "category":
			if v, err := strconv.Atoi(attr.Value); err == nil {
				result.Categories = append(result.Categories, v)
			}
		case "size":
			if v, err := strconv.ParseInt(attr.Value, 10, 64); err == nil && result.Size == 0 {
				result.Size = v
			}
		}
	}

	// A peers attr counts seeders + leechers; a leechers attr is already
	// the leecher count and wins when both are present.
	if hasPeers && !hasLeechers {
		result.Leechers = peers - result.Seeders
		if result.Leechers < 0 {
			result.Leechers = 0
		}
	}

	return result
}

func parseDate(s string) time.Time {
	for _, layout := range []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
