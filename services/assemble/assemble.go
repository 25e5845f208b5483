// Package assemble produces the public items payload from raw upstream
// records: extract, attach poster, filter, sort newest-first, truncate.
package assemble

import (
	"sort"

	"medialens/models"
	"medialens/services/extract"
)

// DefaultLimit applies when the caller requests no explicit limit.
const DefaultLimit = 10

// Options controls one assembly pass.
type Options struct {
	Limit int
	Kind  extract.Kind
	Creds models.Credentials
	// Keep is the backend-specific "has this actually happened" predicate;
	// records failing it are skipped. Nil keeps everything.
	Keep func(models.RawRecord) bool
}

// WatchedKeep skips records without a resolvable last-played marker.
func WatchedKeep(rec models.RawRecord) bool {
	return extract.Timestamp(rec, extract.KindWatched) > 0
}

// Assemble is idempotent: the same records and options yield the same ordered
// output. Events without a resolved timestamp sort last (treated as epoch 0).
func Assemble(records []models.RawRecord, opts Options) []models.Event {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	events := make([]models.Event, 0, len(records))
	for _, rec := range records {
		if opts.Keep != nil && !opts.Keep(rec) {
			continue
		}
		ev := extract.Extract(rec, opts.Kind)
		ev.PosterURL = extract.BuildPoster(rec, opts.Creds)
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].TimestampMs > events[j].TimestampMs
	})

	if len(events) > limit {
		events = events[:limit]
	}
	return events
}

// Events extracts without posters or truncation, for the activity aggregators.
func Events(records []models.RawRecord, kind extract.Kind) []models.Event {
	events := make([]models.Event, 0, len(records))
	for _, rec := range records {
		events = append(events, extract.Extract(rec, kind))
	}
	return events
}
