package jellyfin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medialens/services/fetch"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", "user-1", fetch.New(2*time.Second)), srv
}

func TestFetchRecentPlays(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Users/user-1/Items" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Emby-Token") != "test-key" {
			t.Error("missing token header")
		}
		q := r.URL.Query()
		if q.Get("SortBy") != "DatePlayed" || q.Get("Filters") != "IsPlayed" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"Items":[
			{"Id":"m1","Name":"Some Movie","Type":"Movie","ProductionYear":2020,
			 "UserData":{"LastPlayedDate":"2025-03-01T10:00:00Z"}},
			{"Id":"e1","Name":"Pilot","Type":"Episode","SeriesId":"s1","SeriesName":"Some Show",
			 "UserData":{"LastPlayedDate":"2025-03-02T21:00:00Z"}}
		],"TotalRecordCount":2}`))
	})

	recs, err := c.FetchRecentPlays(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchRecentPlays: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	movie := recs[0]
	if movie["lastPlayedDate"] != "2025-03-01T10:00:00Z" {
		t.Errorf("UserData.LastPlayedDate not flattened: %v", movie["lastPlayedDate"])
	}
	if movie["thumb"] != "/Items/m1/Images/Primary" {
		t.Errorf("movie thumb = %v", movie["thumb"])
	}

	episode := recs[1]
	if episode["thumb"] != "/Items/s1/Images/Primary" {
		t.Errorf("episode should fall back to series poster, got %v", episode["thumb"])
	}
}

func TestFetchRecentlyAdded_BareArray(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Users/user-1/Items/Latest" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"Id":"n1","Name":"Fresh Movie","Type":"Movie","DateCreated":"2025-04-01T08:00:00Z"}
		]`))
	})

	recs, err := c.FetchRecentlyAdded(context.Background(), 12)
	if err != nil {
		t.Fatalf("FetchRecentlyAdded: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0]["thumb"] != "/Items/n1/Images/Primary" {
		t.Errorf("thumb = %v", recs[0]["thumb"])
	}
}

func TestFetchRecentPlays_UpstreamError(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	if _, err := c.FetchRecentPlays(context.Background(), 10); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestCredentials_CarryNoSecret(t *testing.T) {
	c := NewClient("http://jf.local:8096", "super-secret", "user-1", fetch.New(time.Second))
	creds := c.Credentials()
	if creds.Tag != "jellyfin" || creds.BaseURL != "http://jf.local:8096" {
		t.Errorf("creds = %+v", creds)
	}
}
