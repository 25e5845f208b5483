// Package tautulli adapts the playback statistics service. History and plays
// come from its HTTP API; when the API is unreachable or empty and a database
// path is configured, an ordered list of read-only SQLite queries is tried
// against the (schema-unknown) Tautulli database instead.
package tautulli

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"medialens/models"
	"medialens/services/fetch"
	"medialens/services/upstream"
)

// Client talks to a Tautulli instance, optionally backed by a direct
// read-only view of its database file.
type Client struct {
	baseURL string
	apiKey  string
	dbPath  string
	fetcher *fetch.Client
}

// NewClient creates a Tautulli adapter. Either the API (baseURL+apiKey) or the
// database path may be empty; at least one must be set for data to flow.
func NewClient(baseURL, apiKey, dbPath string, fetcher *fetch.Client) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		dbPath:  dbPath,
		fetcher: fetcher,
	}
}

func (c *Client) Name() string { return "tautulli" }

// Credentials tags posters so the image proxy attaches the API key
// server-side when dereferencing the pms_image_proxy path.
func (c *Client) Credentials() models.Credentials {
	return models.Credentials{BaseURL: c.baseURL, Tag: "tautulli"}
}

func (c *Client) apiConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

func (c *Client) apiURL(cmd string, params url.Values) string {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("apikey", c.apiKey)
	q.Set("cmd", cmd)
	return c.baseURL + "/api/v2?" + q.Encode()
}

// FetchRecentPlays lists the most recent playback history entries, falling
// back to the database when the API yields nothing.
func (c *Client) FetchRecentPlays(ctx context.Context, limit int) ([]models.RawRecord, error) {
	return c.history(ctx, limit)
}

// FetchHistoryWindow fetches enough history rows to cover the trailing window.
func (c *Client) FetchHistoryWindow(ctx context.Context, daysBack int) ([]models.RawRecord, error) {
	return c.history(ctx, upstream.HistoryLimit(daysBack))
}

// FetchRecentlyAdded lists what Tautulli has seen arrive in the media server.
func (c *Client) FetchRecentlyAdded(ctx context.Context, limit int) ([]models.RawRecord, error) {
	if !c.apiConfigured() {
		return nil, fmt.Errorf("tautulli recently added: api not configured")
	}
	params := url.Values{}
	params.Set("count", fmt.Sprintf("%d", limit))

	var payload any
	if err := c.fetcher.GetJSON(ctx, c.apiURL("get_recently_added", params), nil, &payload); err != nil {
		return nil, fmt.Errorf("tautulli recently added: %w", err)
	}
	return normalizeThumbs(upstream.Records(payload, "response", "data", "recently_added")), nil
}

func (c *Client) history(ctx context.Context, limit int) ([]models.RawRecord, error) {
	var apiErr error
	if c.apiConfigured() {
		recs, err := c.apiHistory(ctx, limit)
		if err == nil && len(recs) > 0 {
			return recs, nil
		}
		apiErr = err
		if apiErr != nil && c.dbPath != "" {
			log.Printf("tautulli api history failed, trying database: %v", apiErr)
		}
	}

	if c.dbPath != "" {
		recs, reason := c.dbHistory(limit)
		if len(recs) > 0 {
			return recs, nil
		}
		return nil, fmt.Errorf("tautulli history unavailable: %s", reason)
	}

	if apiErr != nil {
		return nil, fmt.Errorf("tautulli history: %w", apiErr)
	}
	return nil, fmt.Errorf("tautulli history: no api or database configured")
}

func (c *Client) apiHistory(ctx context.Context, limit int) ([]models.RawRecord, error) {
	params := url.Values{}
	params.Set("length", fmt.Sprintf("%d", limit))
	params.Set("order_column", "date")
	params.Set("order_dir", "desc")

	var payload any
	if err := c.fetcher.GetJSON(ctx, c.apiURL("get_history", params), nil, &payload); err != nil {
		return nil, err
	}
	return normalizeThumbs(upstream.Records(payload, "response", "data")), nil
}

// normalizeThumbs rewrites Plex-internal thumb paths to Tautulli's image proxy
// so posters resolve against the Tautulli base URL.
func normalizeThumbs(recs []models.RawRecord) []models.RawRecord {
	for _, rec := range recs {
		thumb, _ := rec["thumb"].(string)
		if thumb == "" {
			if gp, _ := rec["grandparent_thumb"].(string); gp != "" {
				thumb = gp
			}
		}
		if thumb == "" {
			continue
		}
		rec["thumb"] = "/pms_image_proxy?img=" + url.QueryEscape(thumb) + "&width=300"
	}
	return recs
}
