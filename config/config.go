package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend identifies which upstream combination serves data requests.
type Backend string

const (
	BackendJellyfin Backend = "jellyfin"
	BackendTautulli Backend = "tautulli+plex"
	BackendNone     Backend = "none"
)

const (
	defaultPort            = 8080
	defaultTimeoutSeconds  = 8
	defaultCacheTTLSeconds = 300
)

// JellyfinConfig holds access to the primary media index service.
type JellyfinConfig struct {
	URL    string
	APIKey string
	UserID string
}

// PlexConfig holds access to the media vault service.
type PlexConfig struct {
	URL   string
	Token string
}

// TautulliConfig holds access to the playback statistics service. DBPath
// optionally points at a read-only copy of its SQLite database, used as a
// fallback when the API is unreachable.
type TautulliConfig struct {
	URL    string
	APIKey string
	DBPath string
}

// Config is built once at startup and passed explicitly to every component.
type Config struct {
	Port           int
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	LogFile        string

	Jellyfin JellyfinConfig
	Plex     PlexConfig
	Tautulli TautulliConfig
}

// Load reads configuration from the environment, applying defaults for
// anything unset. Missing backend credentials are not an error; the handlers
// degrade to warning responses instead.
func Load() *Config {
	return &Config{
		Port:           envInt("MEDIALENS_PORT", defaultPort),
		RequestTimeout: time.Duration(envInt("MEDIALENS_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second,
		CacheTTL:       time.Duration(envInt("MEDIALENS_CACHE_TTL_SECONDS", defaultCacheTTLSeconds)) * time.Second,
		LogFile:        envStr("MEDIALENS_LOG_FILE", ""),
		Jellyfin: JellyfinConfig{
			URL:    trimBaseURL(envStr("JELLYFIN_URL", "")),
			APIKey: envStr("JELLYFIN_API_KEY", ""),
			UserID: envStr("JELLYFIN_USER_ID", ""),
		},
		Plex: PlexConfig{
			URL:   trimBaseURL(envStr("PLEX_URL", "")),
			Token: envStr("PLEX_TOKEN", ""),
		},
		Tautulli: TautulliConfig{
			URL:    trimBaseURL(envStr("TAUTULLI_URL", "")),
			APIKey: envStr("TAUTULLI_API_KEY", ""),
			DBPath: envStr("TAUTULLI_DB_PATH", ""),
		},
	}
}

// ActiveBackend reports which adapter combination is live. Jellyfin wins when
// fully configured; otherwise Tautulli and/or Plex; otherwise none.
func (c *Config) ActiveBackend() Backend {
	if c.JellyfinConfigured() {
		return BackendJellyfin
	}
	if c.TautulliConfigured() || c.TautulliDBConfigured() || c.PlexConfigured() {
		return BackendTautulli
	}
	return BackendNone
}

func (c *Config) JellyfinConfigured() bool {
	return c.Jellyfin.URL != "" && c.Jellyfin.APIKey != "" && c.Jellyfin.UserID != ""
}

func (c *Config) PlexConfigured() bool {
	return c.Plex.URL != "" && c.Plex.Token != ""
}

func (c *Config) TautulliConfigured() bool {
	return c.Tautulli.URL != "" && c.Tautulli.APIKey != ""
}

func (c *Config) TautulliDBConfigured() bool {
	return c.Tautulli.DBPath != ""
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func trimBaseURL(u string) string {
	return strings.TrimRight(u, "/")
}
