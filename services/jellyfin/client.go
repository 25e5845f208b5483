// Package jellyfin adapts the primary media index service. One client serves
// both the statistics role (recent plays, history) and the library role
// (recently added).
package jellyfin

import (
	"context"
	"fmt"

	"medialens/models"
	"medialens/services/fetch"
	"medialens/services/upstream"
)

// Client talks to a Jellyfin server with API-key auth.
type Client struct {
	baseURL string
	apiKey  string
	userID  string
	fetcher *fetch.Client
}

// NewClient creates a Jellyfin adapter.
func NewClient(baseURL, apiKey, userID string, fetcher *fetch.Client) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		userID:  userID,
		fetcher: fetcher,
	}
}

func (c *Client) Name() string { return "jellyfin" }

// Credentials tags posters so the image proxy attaches the API key
// server-side; the key itself stays out of every returned URL.
func (c *Client) Credentials() models.Credentials {
	return models.Credentials{BaseURL: c.baseURL, Tag: "jellyfin"}
}

func (c *Client) headers() map[string]string {
	return map[string]string{"X-Emby-Token": c.apiKey}
}

// FetchRecentPlays lists the user's most recently played items, newest first.
func (c *Client) FetchRecentPlays(ctx context.Context, limit int) ([]models.RawRecord, error) {
	return c.fetchPlayed(ctx, limit)
}

// FetchRecentlyAdded lists the newest library additions.
func (c *Client) FetchRecentlyAdded(ctx context.Context, limit int) ([]models.RawRecord, error) {
	url := fmt.Sprintf("%s/Users/%s/Items/Latest?Limit=%d", c.baseURL, c.userID, limit)

	var payload any
	if err := c.fetcher.GetJSON(ctx, url, c.headers(), &payload); err != nil {
		return nil, fmt.Errorf("jellyfin recently added: %w", err)
	}
	return c.normalizeAll(upstream.Records(payload, "Items")), nil
}

// FetchHistoryWindow reuses the played-items query with a window-sized limit;
// the aggregators drop anything older than the window.
func (c *Client) FetchHistoryWindow(ctx context.Context, daysBack int) ([]models.RawRecord, error) {
	return c.fetchPlayed(ctx, upstream.HistoryLimit(daysBack))
}

func (c *Client) fetchPlayed(ctx context.Context, limit int) ([]models.RawRecord, error) {
	url := fmt.Sprintf(
		"%s/Users/%s/Items?SortBy=DatePlayed&SortOrder=Descending&Filters=IsPlayed&Recursive=true&IncludeItemTypes=Movie,Episode&Limit=%d",
		c.baseURL, c.userID, limit,
	)

	var payload any
	if err := c.fetcher.GetJSON(ctx, url, c.headers(), &payload); err != nil {
		return nil, fmt.Errorf("jellyfin recent plays: %w", err)
	}
	return c.normalizeAll(upstream.Records(payload, "Items")), nil
}

func (c *Client) normalizeAll(recs []models.RawRecord) []models.RawRecord {
	out := make([]models.RawRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, normalize(rec))
	}
	return out
}

// normalize flattens the nested bits the generic extractor cannot reach:
// UserData.LastPlayedDate becomes a top-level timestamp candidate and the
// primary image is expressed as a relative path, with episodes falling back to
// their series poster.
func normalize(rec models.RawRecord) models.RawRecord {
	out := make(models.RawRecord, len(rec)+2)
	for k, v := range rec {
		out[k] = v
	}

	if ud, ok := rec["UserData"].(map[string]any); ok {
		if lp, ok := ud["LastPlayedDate"]; ok {
			out["lastPlayedDate"] = lp
		}
	}

	imageID, _ := rec["Id"].(string)
	if t, _ := rec["Type"].(string); t == "Episode" {
		if seriesID, _ := rec["SeriesId"].(string); seriesID != "" {
			imageID = seriesID
		}
	}
	if imageID != "" {
		out["thumb"] = "/Items/" + imageID + "/Images/Primary"
	}
	return out
}
