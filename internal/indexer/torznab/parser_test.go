package torznab

import (
	"strings"
	"testing"
	"time"

	"github.com/driftarr/driftarr/internal/indexer/types"
)

const sampleFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:torznab="http://torznab.com/schemas/2015/feed">
  <channel>
    <title>Test Indexer</title>
    <item>
      <title>Some.Show.S04E10.1080p.WEB.x264-GRP</title>
      <guid>https://indexer.example.com/details/12345</guid>
      <link>https://indexer.example.com/dl/12345.torrent</link>
      <comments>https://indexer.example.com/details/12345</comments>
      <pubDate>Sat, 29 Aug 2026 18:04:05 +0000</pubDate>
      <size>1573741824</size>
      <enclosure url="https://indexer.example.com/dl/12345.torrent" length="1573741824" type="application/x-bittorrent"/>
      <torznab:attr name="category" value="5040"/>
      <torznab:attr name="seeders" value="12"/>
      <torznab:attr name="peers" value="20"/>
      <torznab:attr name="infohash" value="aabbccddeeff00112233445566778899aabbccdd"/>
      <torznab:attr name="downloadvolumefactor" value="0"/>
      <torznab:attr name="uploadvolumefactor" value="2"/>
    </item>
    <item>
      <title>Enclosure.Only.S01E01</title>
      <pubDate>Sat, 29 Aug 2026 12:00:00 +0000</pubDate>
      <enclosure url="https://indexer.example.com/dl/67890.torrent" length="734003200" type="application/x-bittorrent"/>
    </item>
  </channel>
</rss>`

func TestParseFeed(t *testing.T) {
	parser := NewParser("Test Indexer")

	results, err := parser.Parse([]byte(sampleFeedXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	r := results[0]
	if r.Title != "Some.Show.S04E10.1080p.WEB.x264-GRP" {
		t.Errorf("unexpected title %q", r.Title)
	}
	if r.GUID != "https://indexer.example.com/details/12345" {
		t.Errorf("unexpected guid %q", r.GUID)
	}
	if r.DownloadURL != "https://indexer.example.com/dl/12345.torrent" {
		t.Errorf("unexpected download url %q", r.DownloadURL)
	}
	if r.Size != 1573741824 {
		t.Errorf("unexpected size %d", r.Size)
	}
	if r.Seeders != 12 {
		t.Errorf("expected 12 seeders, got %d", r.Seeders)
	}
	if r.Leechers != 8 {
		t.Errorf("expected peers minus seeders leechers, got %d", r.Leechers)
	}
	if r.InfoHash != "aabbccddeeff00112233445566778899aabbccdd" {
		t.Errorf("unexpected infohash %q", r.InfoHash)
	}
	if r.DownloadVolumeFactor != 0 || r.UploadVolumeFactor != 2 {
		t.Errorf("unexpected volume factors %v / %v", r.DownloadVolumeFactor, r.UploadVolumeFactor)
	}
	if len(r.Categories) != 1 || r.Categories[0] != 5040 {
		t.Errorf("unexpected categories %v", r.Categories)
	}
	if r.IndexerName != "Test Indexer" {
		t.Errorf("unexpected indexer name %q", r.IndexerName)
	}
	if r.Protocol != types.ProtocolTorrent {
		t.Errorf("unexpected protocol %q", r.Protocol)
	}

	want := time.Date(2026, 8, 29, 18, 4, 5, 0, time.UTC)
	if !r.PublishDate.Equal(want) {
		t.Errorf("expected publish date %v, got %v", want, r.PublishDate)
	}
}

func TestParseFeedEnclosureFallback(t *testing.T) {
	parser := NewParser("Test Indexer")

	results, err := parser.Parse([]byte(sampleFeedXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := results[1]
	if r.DownloadURL != "https://indexer.example.com/dl/67890.torrent" {
		t.Errorf("expected enclosure url fallback, got %q", r.DownloadURL)
	}
	if r.GUID != r.DownloadURL {
		t.Errorf("expected guid fallback to download url, got %q", r.GUID)
	}
	if r.Size != 734003200 {
		t.Errorf("expected enclosure length fallback, got %d", r.Size)
	}
	if r.DownloadVolumeFactor != 1 || r.UploadVolumeFactor != 1 {
		t.Errorf("expected neutral volume factors, got %v / %v", r.DownloadVolumeFactor, r.UploadVolumeFactor)
	}
}

func TestParseFeedPeerAttrs(t *testing.T) {
	tests := []struct {
		name         string
		attrs        string
		wantSeeders  int
		wantLeechers int
	}{
		{
			name: "leechers attr reported as is",
			attrs: `<torznab:attr name="seeders" value="3"/>
				<torznab:attr name="leechers" value="10"/>`,
			wantSeeders:  3,
			wantLeechers: 10,
		},
		{
			name: "peers attr converted to leechers",
			attrs: `<torznab:attr name="seeders" value="3"/>
				<torznab:attr name="peers" value="13"/>`,
			wantSeeders:  3,
			wantLeechers: 10,
		},
		{
			name: "leechers wins over peers",
			attrs: `<torznab:attr name="seeders" value="3"/>
				<torznab:attr name="peers" value="13"/>
				<torznab:attr name="leechers" value="10"/>`,
			wantSeeders:  3,
			wantLeechers: 10,
		},
		{
			name:         "peers lower than seeders clamps to zero",
			attrs:        `<torznab:attr name="seeders" value="5"/><torznab:attr name="peers" value="2"/>`,
			wantSeeders:  5,
			wantLeechers: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := `<rss xmlns:torznab="http://torznab.com/schemas/2015/feed"><channel><item>
				<title>Some.Show.S01E01</title>
				<link>https://indexer.example.com/dl/1.torrent</link>
				` + tt.attrs + `
			</item></channel></rss>`

			results, err := NewParser("Test Indexer").Parse([]byte(feed))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			if results[0].Seeders != tt.wantSeeders {
				t.Errorf("expected %d seeders, got %d", tt.wantSeeders, results[0].Seeders)
			}
			if results[0].Leechers != tt.wantLeechers {
				t.Errorf("expected %d leechers, got %d", tt.wantLeechers, results[0].Leechers)
			}
		})
	}
}

func TestParseFeedSkipsItemsWithoutURL(t *testing.T) {
	xml := `<rss><channel><item><title>No download</title></item></channel></rss>`

	parser := NewParser("Test Indexer")
	results, err := parser.Parse([]byte(xml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected item without a download URL to be skipped, got %+v", results)
	}
}

func TestParseFeedErrorDocument(t *testing.T) {
	xml := `<error code="201" description="Incorrect parameter"/>`

	parser := NewParser("Test Indexer")
	_, err := parser.Parse([]byte(xml))
	if err == nil {
		t.Fatal("expected error for error document")
	}
	if !strings.Contains(err.Error(), "Incorrect parameter") {
		t.Errorf("expected error to carry remote description, got %q", err.Error())
	}
}

func TestParseDateLayouts(t *testing.T) {
	tests := []struct {
		in   string
		zero bool
	}{
		{"Sat, 29 Aug 2026 18:04:05 +0000", false},
		{"Sat, 29 Aug 2026 18:04:05 GMT", false},
		{"2026-08-29T18:04:05Z", false},
		{"2026-08-29 18:04:05", false},
		{"not a date", true},
	}

	for _, tt := range tests {
		got := parseDate(tt.in)
		if got.IsZero() != tt.zero {
			t.Errorf("parseDate(%q) = %v, zero = %v", tt.in, got, tt.zero)
		}
	}
}
