// Package extract turns heterogeneous upstream records into normalized events.
// All three supported backends feed records through here, so every lookup
// scans an ordered list of candidate field names and tolerates missing or
// malformed values; absence becomes a zero value, never an error.
package extract

import (
	"strconv"
	"strings"
	"time"

	"medialens/models"
)

// Kind selects which timestamp the extractor resolves for a record.
type Kind int

const (
	KindWatched Kind = iota
	KindAdded
)

// Epoch values in [100000, 9999999999) are seconds; anything at or above the
// upper bound is already milliseconds.
const (
	epochSecondsMin = 100000
	epochMillisMin  = 9999999999
)

var (
	titleCandidates  = []string{"title", "Title", "name", "Name"}
	fullCandidates   = []string{"full_title", "fullTitle", "original_title"}
	parentCandidates = []string{"grandparent_title", "grandparentTitle", "SeriesName", "parent_title", "parentTitle"}
	yearCandidates   = []string{"year", "Year", "ProductionYear", "production_year"}
	typeCandidates   = []string{"media_type", "mediaType", "type", "Type"}

	watchedCandidates = []string{"date", "stopped", "last_played", "lastViewedAt", "viewedAt", "lastPlayedDate", "LastPlayedDate", "watched_at"}
	addedCandidates   = []string{"added_at", "addedAt", "DateCreated", "dateCreated", "created_at"}

	dateLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

// Extract builds an Event from a raw upstream record. The poster field is
// filled separately by BuildPoster.
func Extract(rec models.RawRecord, kind Kind) models.Event {
	return models.Event{
		Title:       title(rec),
		ParentTitle: firstString(rec, parentCandidates),
		Year:        year(rec),
		TimestampMs: Timestamp(rec, kind),
		MediaType:   strings.ToLower(firstString(rec, typeCandidates)),
	}
}

// Timestamp resolves the record's watch or add time as epoch milliseconds,
// returning 0 when no candidate field parses.
func Timestamp(rec models.RawRecord, kind Kind) int64 {
	candidates := watchedCandidates
	if kind == KindAdded {
		candidates = addedCandidates
	}
	for _, key := range candidates {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if ms := classifyTimestamp(v); ms > 0 {
			return ms
		}
	}
	return 0
}

// classifyTimestamp interprets a single candidate value: epoch seconds get
// promoted to milliseconds, epoch milliseconds pass through, anything else is
// tried as a date string. Unparseable values yield 0 so the caller can move on
// to the next candidate.
func classifyTimestamp(v any) int64 {
	if n, ok := asInt64(v); ok {
		switch {
		case n >= epochMillisMin:
			return n
		case n >= epochSecondsMin:
			return n * 1000
		default:
			return 0
		}
	}
	s := asString(v)
	if s == "" {
		return 0
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

func title(rec models.RawRecord) string {
	if t := firstString(rec, titleCandidates); t != "" {
		return t
	}
	if t := firstString(rec, fullCandidates); t != "" {
		return t
	}
	if t := firstString(rec, parentCandidates); t != "" {
		return t
	}
	return "Unknown"
}

func year(rec models.RawRecord) int {
	for _, key := range yearCandidates {
		if n, ok := asInt64(rec[key]); ok && n > 0 {
			return int(n)
		}
	}
	return 0
}

func firstString(rec models.RawRecord, candidates []string) string {
	for _, key := range candidates {
		if s := asString(rec[key]); s != "" {
			return s
		}
	}
	return ""
}

// asString renders scalar values as strings; composite values are ignored.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// asInt64 coerces JSON numbers, native integers, and numeric strings.
func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
