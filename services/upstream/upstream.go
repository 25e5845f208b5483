// Package upstream defines the adapter contract every backend client
// implements, plus helpers shared across their wire formats.
package upstream

import (
	"context"

	"medialens/models"
)

// Adapter is the per-backend view the handlers consume. One instance serves
// plays/history (statistics) and one serves recently-added (library); for
// Jellyfin both roles are the same client.
type Adapter interface {
	Name() string
	FetchRecentPlays(ctx context.Context, limit int) ([]models.RawRecord, error)
	FetchRecentlyAdded(ctx context.Context, limit int) ([]models.RawRecord, error)
	FetchHistoryWindow(ctx context.Context, daysBack int) ([]models.RawRecord, error)
	Credentials() models.Credentials
}

// HistoryLimit sizes a history fetch for a trailing window when the backend
// cannot filter by date itself; the aggregators drop out-of-window events.
func HistoryLimit(daysBack int) int {
	limit := daysBack * 20
	if limit < 100 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}
