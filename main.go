// medialens republishes a public-safe view of personal media-server activity:
// recently watched, recently added, activity histograms, and a
// credential-hiding image proxy.
package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"medialens/api"
	"medialens/config"
	"medialens/handlers"
	"medialens/services/cache"
	"medialens/services/fetch"
	"medialens/services/jellyfin"
	"medialens/services/plex"
	"medialens/services/tautulli"
	"medialens/services/upstream"
	"medialens/utils"
)

func main() {
	cfg := config.Load()

	if cfg.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}))
	}

	fetcher := fetch.New(cfg.RequestTimeout)
	responseCache := cache.New(cfg.CacheTTL)
	plays, added := buildAdapters(cfg, fetcher)

	r := utils.NewRouter()
	handlers.NewHealthHandler(cfg).Register(r)
	handlers.NewImageHandler(cfg, fetcher).Register(r)

	limited := r.PathPrefix("/api/media").Subrouter()
	limited.Use(api.Middleware(api.NewIPRateLimiter(rate.Every(time.Second), 20)))
	handlers.NewMediaHandler(plays, added, responseCache).Register(limited)

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", handlers.NewStaticHandler()))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("medialens listening on :%d (backend=%s)", cfg.Port, cfg.ActiveBackend())
	log.Fatal(srv.ListenAndServe())
}

// buildAdapters selects the upstream combination from configuration: Jellyfin
// serves both roles when configured; otherwise Tautulli covers plays/history
// and Plex covers recently added, each standing in for a missing partner where
// it can.
func buildAdapters(cfg *config.Config, fetcher *fetch.Client) (plays, added upstream.Adapter) {
	switch cfg.ActiveBackend() {
	case config.BackendJellyfin:
		jf := jellyfin.NewClient(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, cfg.Jellyfin.UserID, fetcher)
		return jf, jf
	case config.BackendTautulli:
		if cfg.TautulliConfigured() || cfg.TautulliDBConfigured() {
			plays = tautulli.NewClient(cfg.Tautulli.URL, cfg.Tautulli.APIKey, cfg.Tautulli.DBPath, fetcher)
		}
		if cfg.PlexConfigured() {
			added = plex.NewClient(cfg.Plex.URL, cfg.Plex.Token, fetcher)
			if plays == nil {
				plays = added
			}
		}
		if added == nil {
			added = plays
		}
		return plays, added
	default:
		log.Println("no media backend configured; data endpoints will answer with warnings")
		return nil, nil
	}
}
