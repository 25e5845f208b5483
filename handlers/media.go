package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"medialens/models"
	"medialens/services/assemble"
	"medialens/services/buckets"
	"medialens/services/cache"
	"medialens/services/extract"
	"medialens/services/upstream"
)

const (
	defaultListLimit = 10
	maxListLimit     = 50
	weeklyWindowDays = 7
	monthlyWindow    = 30
)

type itemsResponse struct {
	Items   []models.Event `json:"items"`
	Warning string         `json:"warning,omitempty"`
}

type gridResponse struct {
	Data    map[string]int `json:"data"`
	Warning string         `json:"warning,omitempty"`
}

type dailyResponse struct {
	Days    []string `json:"days"`
	Counts  []int    `json:"counts"`
	Warning string   `json:"warning,omitempty"`
}

// MediaHandler serves the public aggregate endpoints. plays covers recent
// plays and history (statistics backend), added covers recently added
// (library backend); either may be nil when unconfigured, which degrades every
// endpoint to a 200 response carrying a warning.
type MediaHandler struct {
	plays upstream.Adapter
	added upstream.Adapter
	cache *cache.Cache
	now   func() time.Time
}

func NewMediaHandler(plays, added upstream.Adapter, c *cache.Cache) *MediaHandler {
	return &MediaHandler{
		plays: plays,
		added: added,
		cache: c,
		now:   time.Now,
	}
}

// Register mounts the data endpoints on a router already scoped to the
// /api/media prefix.
func (h *MediaHandler) Register(r *mux.Router) {
	r.HandleFunc("/recently-watched", guard(h.recentlyWatched)).Methods(http.MethodGet)
	r.HandleFunc("/recently-added", guard(h.recentlyAdded)).Methods(http.MethodGet)
	r.HandleFunc("/activity/weekly", guard(h.activityWeekly)).Methods(http.MethodGet)
	r.HandleFunc("/activity/monthly", guard(h.activityMonthly)).Methods(http.MethodGet)
	r.HandleFunc("/activity/daily", guard(h.activityDaily)).Methods(http.MethodGet)
}

func (h *MediaHandler) recentlyWatched(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, defaultListLimit)
	h.cached(w, fmt.Sprintf("recently-watched:%d", limit), func() (any, bool) {
		if h.plays == nil {
			return itemsResponse{Items: []models.Event{}, Warning: "no statistics backend configured"}, false
		}
		records, err := h.plays.FetchRecentPlays(r.Context(), limit)
		if err != nil {
			log.Printf("recently watched via %s: %v", h.plays.Name(), err)
			return itemsResponse{Items: []models.Event{}, Warning: err.Error()}, false
		}
		items := assemble.Assemble(records, assemble.Options{
			Limit: limit,
			Kind:  extract.KindWatched,
			Creds: h.plays.Credentials(),
			Keep:  assemble.WatchedKeep,
		})
		return itemsResponse{Items: items}, true
	})
}

func (h *MediaHandler) recentlyAdded(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, defaultListLimit)
	h.cached(w, fmt.Sprintf("recently-added:%d", limit), func() (any, bool) {
		if h.added == nil {
			return itemsResponse{Items: []models.Event{}, Warning: "no library backend configured"}, false
		}
		records, err := h.added.FetchRecentlyAdded(r.Context(), limit)
		if err != nil {
			log.Printf("recently added via %s: %v", h.added.Name(), err)
			return itemsResponse{Items: []models.Event{}, Warning: err.Error()}, false
		}
		items := assemble.Assemble(records, assemble.Options{
			Limit: limit,
			Kind:  extract.KindAdded,
			Creds: h.added.Credentials(),
		})
		return itemsResponse{Items: items}, true
	})
}

func (h *MediaHandler) activityWeekly(w http.ResponseWriter, r *http.Request) {
	h.cached(w, "activity:weekly", func() (any, bool) {
		events, warning := h.historyEvents(r, weeklyWindowDays)
		// The adapters cannot filter by date, so trim to the trailing week
		// here; the aggregator itself takes events as given.
		cutoff := h.now().AddDate(0, 0, -weeklyWindowDays).UnixMilli()
		recent := events[:0]
		for _, ev := range events {
			if ev.TimestampMs >= cutoff {
				recent = append(recent, ev)
			}
		}
		return gridResponse{Data: buckets.WeeklyGrid(recent), Warning: warning}, warning == ""
	})
}

func (h *MediaHandler) activityMonthly(w http.ResponseWriter, r *http.Request) {
	h.cached(w, "activity:monthly", func() (any, bool) {
		events, warning := h.historyEvents(r, monthlyWindow)
		return gridResponse{Data: buckets.MonthlyGrid(events, h.now().UnixMilli()), Warning: warning}, warning == ""
	})
}

func (h *MediaHandler) activityDaily(w http.ResponseWriter, r *http.Request) {
	days := intParam(r, "days", buckets.DefaultDaily)
	if days > 90 {
		days = 90
	}
	h.cached(w, fmt.Sprintf("activity:daily:%d", days), func() (any, bool) {
		events, warning := h.historyEvents(r, days)
		labels, counts := buckets.DailySeries(events, h.now().UnixMilli(), days)
		return dailyResponse{Days: labels, Counts: counts, Warning: warning}, warning == ""
	})
}

// historyEvents fetches and extracts the raw history window; failures come
// back as a warning with an empty slice, never an error.
func (h *MediaHandler) historyEvents(r *http.Request, daysBack int) ([]models.Event, string) {
	if h.plays == nil {
		return nil, "no statistics backend configured"
	}
	records, err := h.plays.FetchHistoryWindow(r.Context(), daysBack)
	if err != nil {
		log.Printf("history window via %s: %v", h.plays.Name(), err)
		return nil, err.Error()
	}
	return assemble.Events(records, extract.KindWatched), ""
}

// cached serves the stored response when fresh, otherwise builds it and stores
// it only when the build succeeded without a warning. Concurrent misses may
// both fetch; last write wins.
func (h *MediaHandler) cached(w http.ResponseWriter, key string, build func() (any, bool)) {
	if raw, ok := h.cache.Get(key); ok {
		writeRawJSON(w, raw)
		return
	}
	payload, cacheable := build()
	body, err := json.Marshal(payload)
	if err != nil {
		writeJSON(w, map[string]string{"warning": "encode response: " + err.Error()})
		return
	}
	if cacheable {
		h.cache.Set(key, body)
	}
	writeRawJSON(w, body)
}

// guard converts a handler panic into a warning-bearing 200 so the
// client-visible effect is degraded content, not a broken request.
func guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s: %v", r.URL.Path, rec)
				writeJSON(w, map[string]any{"items": []models.Event{}, "warning": "internal error"})
			}
		}()
		next(w, r)
	}
}

func limitParam(r *http.Request, fallback int) int {
	limit := intParam(r, "limit", fallback)
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}

func intParam(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
