package tautulli

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"medialens/services/fetch"
)

func apiClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "api-key", "", fetch.New(2*time.Second))
}

func TestFetchRecentPlays_API(t *testing.T) {
	c := apiClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("apikey") != "api-key" || q.Get("cmd") != "get_history" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"response":{"result":"success","data":{"recordsFiltered":1,"data":[
			{"full_title":"Some Movie","date":1700000000,"media_type":"movie","thumb":"/library/metadata/7/thumb"}
		]}}}`))
	})

	recs, err := c.FetchRecentPlays(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchRecentPlays: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	thumb, _ := recs[0]["thumb"].(string)
	if !strings.HasPrefix(thumb, "/pms_image_proxy?img=") {
		t.Errorf("thumb not routed through image proxy: %q", thumb)
	}
}

func TestFetchRecentlyAdded_API(t *testing.T) {
	c := apiClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cmd") != "get_recently_added" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"response":{"result":"success","data":{"recently_added":[
			{"title":"New Movie","added_at":"1700000000","media_type":"movie"}
		]}}}`))
	})

	recs, err := c.FetchRecentlyAdded(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchRecentlyAdded: %v", err)
	}
	if len(recs) != 1 || recs[0]["title"] != "New Movie" {
		t.Fatalf("records = %v", recs)
	}
}

func TestFetchRecentlyAdded_NoAPIConfigured(t *testing.T) {
	c := NewClient("", "", "/tmp/tautulli.db", fetch.New(time.Second))
	if _, err := c.FetchRecentlyAdded(context.Background(), 10); err == nil {
		t.Fatal("expected error: recently added has no database fallback")
	}
}

// seedDB builds a throwaway Tautulli-shaped database and returns its path.
func seedDB(t *testing.T, schema ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tautulli.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return path
}

func TestHistory_DBFallbackAfterAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	path := seedDB(t,
		`CREATE TABLE session_history (id INTEGER PRIMARY KEY, started INTEGER, stopped INTEGER, full_title TEXT, media_type TEXT)`,
		`CREATE TABLE session_history_metadata (id INTEGER PRIMARY KEY, title TEXT, grandparent_title TEXT, media_type TEXT, year INTEGER, thumb TEXT)`,
		`INSERT INTO session_history VALUES (1, 1700000000, 1700003600, 'Some Show - Pilot', 'episode')`,
		`INSERT INTO session_history_metadata VALUES (1, 'Pilot', 'Some Show', 'episode', 2021, '/library/metadata/9/thumb')`,
	)
	c := NewClient(srv.URL, "api-key", path, fetch.New(2*time.Second))

	recs, err := c.FetchRecentPlays(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected database fallback to serve rows: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0]["title"] != "Pilot" || recs[0]["grandparent_title"] != "Some Show" {
		t.Errorf("record = %v", recs[0])
	}
}

func TestDBHistory_SecondQueryWins(t *testing.T) {
	// No metadata table, so the joined query errors and the chain moves on.
	path := seedDB(t,
		`CREATE TABLE session_history (id INTEGER PRIMARY KEY, started INTEGER, stopped INTEGER, full_title TEXT, media_type TEXT)`,
		`INSERT INTO session_history VALUES (1, 1700000000, 1700003600, 'Some Movie', 'movie')`,
	)
	c := NewClient("", "", path, fetch.New(time.Second))

	recs, reason := c.dbHistory(10)
	if reason != "" {
		t.Fatalf("reason = %q", reason)
	}
	if len(recs) != 1 || recs[0]["title"] != "Some Movie" {
		t.Fatalf("records = %v", recs)
	}
}

func TestDBHistory_ExhaustionCarriesReason(t *testing.T) {
	path := seedDB(t) // empty database, every query errors
	c := NewClient("", "", path, fetch.New(time.Second))

	recs, reason := c.dbHistory(10)
	if len(recs) != 0 {
		t.Fatalf("expected no rows, got %v", recs)
	}
	if !strings.Contains(reason, "all queries failed") {
		t.Errorf("reason = %q", reason)
	}
	for _, q := range historyQueries {
		if !strings.Contains(reason, q.name) {
			t.Errorf("reason does not mention attempt %q: %s", q.name, reason)
		}
	}
}

func TestHistory_NothingConfigured(t *testing.T) {
	c := NewClient("", "", "", fetch.New(time.Second))
	if _, err := c.FetchRecentPlays(context.Background(), 10); err == nil {
		t.Fatal("expected error with no api and no database")
	}
}

func TestNormalizeThumbs_GrandparentFallback(t *testing.T) {
	recs := normalizeThumbs([]map[string]any{
		{"title": "Pilot", "grandparent_thumb": "/library/metadata/3/thumb"},
		{"title": "No Art"},
	})
	thumb, _ := recs[0]["thumb"].(string)
	if !strings.Contains(thumb, "pms_image_proxy") {
		t.Errorf("grandparent thumb not proxied: %q", thumb)
	}
	if _, ok := recs[1]["thumb"]; ok {
		t.Error("record without art must stay without a thumb")
	}
}
