// Package plex adapts the media vault service. It mainly serves the library
// role (recently added); plays and history come from the sessions history
// endpoint when no statistics backend is configured.
package plex

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"medialens/models"
	"medialens/services/fetch"
	"medialens/services/upstream"
)

// Plex hub media types.
const (
	hubTypeMovie = "1"
	hubTypeShow  = "2"
)

// Client talks to a Plex server with token auth.
type Client struct {
	baseURL  string
	token    string
	clientID string
	fetcher  *fetch.Client
}

// NewClient creates a Plex adapter with a fresh client identifier.
func NewClient(baseURL, token string, fetcher *fetch.Client) *Client {
	return &Client{
		baseURL:  baseURL,
		token:    token,
		clientID: "medialens-" + uuid.NewString(),
		fetcher:  fetcher,
	}
}

func (c *Client) Name() string { return "plex" }

// Credentials tags posters so the image proxy attaches the token server-side.
func (c *Client) Credentials() models.Credentials {
	return models.Credentials{BaseURL: c.baseURL, Tag: "plex"}
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"X-Plex-Token":             c.token,
		"X-Plex-Client-Identifier": c.clientID,
		"X-Plex-Product":           "medialens",
		"X-Plex-Version":           "1.0",
	}
}

// FetchRecentlyAdded queries the movie and show home hubs concurrently and
// merges the results. A single failed hub is logged and skipped; the call only
// errors when both hubs fail.
func (c *Client) FetchRecentlyAdded(ctx context.Context, limit int) ([]models.RawRecord, error) {
	p := pool.NewWithResults[[]models.RawRecord]().WithErrors()
	for _, hubType := range []string{hubTypeMovie, hubTypeShow} {
		hubType := hubType
		p.Go(func() ([]models.RawRecord, error) {
			recs, err := c.fetchHub(ctx, hubType, limit)
			if err != nil {
				log.Printf("plex recently added hub type=%s: %v", hubType, err)
				return nil, err
			}
			return recs, nil
		})
	}

	results, err := p.Wait()
	var merged []models.RawRecord
	for _, recs := range results {
		merged = append(merged, recs...)
	}
	if len(merged) == 0 && err != nil {
		return nil, fmt.Errorf("plex recently added: %w", err)
	}
	return merged, nil
}

func (c *Client) fetchHub(ctx context.Context, hubType string, limit int) ([]models.RawRecord, error) {
	url := fmt.Sprintf(
		"%s/hubs/home/recentlyAdded?type=%s&X-Plex-Container-Start=0&X-Plex-Container-Size=%d",
		c.baseURL, hubType, limit,
	)

	var payload any
	if err := c.fetcher.GetJSON(ctx, url, c.headers(), &payload); err != nil {
		return nil, err
	}
	return upstream.Records(payload, "MediaContainer", "Metadata"), nil
}

// FetchRecentPlays lists the most recent watch history entries.
func (c *Client) FetchRecentPlays(ctx context.Context, limit int) ([]models.RawRecord, error) {
	return c.fetchHistory(ctx, limit)
}

// FetchHistoryWindow fetches enough history rows to cover the trailing window.
func (c *Client) FetchHistoryWindow(ctx context.Context, daysBack int) ([]models.RawRecord, error) {
	return c.fetchHistory(ctx, upstream.HistoryLimit(daysBack))
}

func (c *Client) fetchHistory(ctx context.Context, limit int) ([]models.RawRecord, error) {
	url := fmt.Sprintf(
		"%s/status/sessions/history/all?sort=viewedAt:desc&X-Plex-Container-Start=0&X-Plex-Container-Size=%d",
		c.baseURL, limit,
	)

	var payload any
	if err := c.fetcher.GetJSON(ctx, url, c.headers(), &payload); err != nil {
		return nil, fmt.Errorf("plex history: %w", err)
	}
	return upstream.Records(payload, "MediaContainer", "Metadata"), nil
}
