package models

// RawRecord is a single upstream history or recently-added entry. Field names
// and value types vary by backend; adapters pass these through as decoded JSON
// (or database rows) and the extractor resolves them permissively.
type RawRecord = map[string]any

// Event is the schema-independent representation of one watch/add occurrence.
// TimestampMs is 0 when no candidate field resolved to a usable timestamp.
type Event struct {
	Title       string `json:"title"`
	ParentTitle string `json:"parentTitle,omitempty"`
	Year        int    `json:"year,omitempty"`
	TimestampMs int64  `json:"timestampMs,omitempty"`
	MediaType   string `json:"mediaType"`
	PosterURL   string `json:"posterUrl,omitempty"`
}

// WeeklyGrid maps "{Day}_{Block}" (7 days x 8 three-hour blocks, 56 keys,
// always all present) to event counts.
type WeeklyGrid = map[string]int

// MonthlyGrid maps "day_1".."day_30" (always all present) to event counts.
// day_30 is today, day_1 is 29 days ago.
type MonthlyGrid = map[string]int

// Credentials describes the upstream a poster path is relative to and which
// backend's secret the image proxy must attach when dereferencing it. The
// secret itself never travels through this struct.
type Credentials struct {
	BaseURL string
	Tag     string
}
