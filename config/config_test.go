package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MEDIALENS_PORT", "MEDIALENS_TIMEOUT_SECONDS", "MEDIALENS_CACHE_TTL_SECONDS", "MEDIALENS_LOG_FILE",
		"JELLYFIN_URL", "JELLYFIN_API_KEY", "JELLYFIN_USER_ID",
		"PLEX_URL", "PLEX_TOKEN",
		"TAUTULLI_URL", "TAUTULLI_API_KEY", "TAUTULLI_DB_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.RequestTimeout != 8*time.Second {
		t.Errorf("timeout = %v", cfg.RequestTimeout)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("cache ttl = %v", cfg.CacheTTL)
	}
	if cfg.ActiveBackend() != BackendNone {
		t.Errorf("backend = %s", cfg.ActiveBackend())
	}
}

func TestLoad_TrimsTrailingSlashes(t *testing.T) {
	clearEnv(t)
	t.Setenv("JELLYFIN_URL", "http://jf.local:8096///")
	cfg := Load()
	if cfg.Jellyfin.URL != "http://jf.local:8096" {
		t.Errorf("url = %q", cfg.Jellyfin.URL)
	}
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEDIALENS_PORT", "not-a-number")
	if cfg := Load(); cfg.Port != 8080 {
		t.Errorf("port = %d", cfg.Port)
	}
	t.Setenv("MEDIALENS_PORT", "-5")
	if cfg := Load(); cfg.Port != 8080 {
		t.Errorf("port = %d, negative must fall back", cfg.Port)
	}
}

func TestActiveBackend_JellyfinWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("JELLYFIN_URL", "http://jf.local:8096")
	t.Setenv("JELLYFIN_API_KEY", "key")
	t.Setenv("JELLYFIN_USER_ID", "user")
	t.Setenv("TAUTULLI_URL", "http://ttl.local:8181")
	t.Setenv("TAUTULLI_API_KEY", "key")

	if got := Load().ActiveBackend(); got != BackendJellyfin {
		t.Errorf("backend = %s, want %s", got, BackendJellyfin)
	}
}

func TestActiveBackend_PartialJellyfinDoesNotCount(t *testing.T) {
	clearEnv(t)
	t.Setenv("JELLYFIN_URL", "http://jf.local:8096")
	t.Setenv("PLEX_URL", "http://plex.local:32400")
	t.Setenv("PLEX_TOKEN", "tok")

	if got := Load().ActiveBackend(); got != BackendTautulli {
		t.Errorf("backend = %s, want %s", got, BackendTautulli)
	}
}

func TestActiveBackend_DatabaseOnlyCounts(t *testing.T) {
	clearEnv(t)
	t.Setenv("TAUTULLI_DB_PATH", "/data/tautulli.db")

	if got := Load().ActiveBackend(); got != BackendTautulli {
		t.Errorf("backend = %s, want %s", got, BackendTautulli)
	}
}
