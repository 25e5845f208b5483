package handlers

import (
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"medialens/config"
	"medialens/services/fetch"
	"medialens/utils"
)

// PlaceholderPath is where clients land when an upstream image cannot be
// served.
const PlaceholderPath = "/static/placeholder.svg"

// ImageHandler dereferences proxied poster URLs, attaching the tagged
// backend's credential server-side so it never appears in anything the
// browser sees.
type ImageHandler struct {
	cfg     *config.Config
	fetcher *fetch.Client
}

func NewImageHandler(cfg *config.Config, fetcher *fetch.Client) *ImageHandler {
	return &ImageHandler{cfg: cfg, fetcher: fetcher}
}

// Register mounts the image proxy on the router.
func (h *ImageHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/media/img", h.handle).Methods(http.MethodGet)
}

func (h *ImageHandler) handle(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("u")
	if raw == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"missing u parameter"}`))
		return
	}

	target, err := utils.EncodeURLWithSpaces(raw)
	if err != nil {
		http.Redirect(w, r, PlaceholderPath, http.StatusFound)
		return
	}
	if err := utils.ValidateImageURL(target); err != nil {
		http.Redirect(w, r, PlaceholderPath, http.StatusFound)
		return
	}
	parsed, err := url.Parse(target)
	if err != nil {
		http.Redirect(w, r, PlaceholderPath, http.StatusFound)
		return
	}

	target, headers := h.attachCredential(parsed, r.URL.Query().Get("auth"))

	resp, err := h.fetcher.Get(r.Context(), target, headers)
	if err != nil {
		log.Printf("image proxy fetch: %v", err)
		http.Redirect(w, r, PlaceholderPath, http.StatusFound)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		http.Redirect(w, r, PlaceholderPath, http.StatusFound)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	io.Copy(w, resp.Body)
}

// attachCredential adds the secret for the tagged backend: Jellyfin wants a
// token header, Plex and Tautulli want query parameters.
func (h *ImageHandler) attachCredential(u *url.URL, tag string) (string, map[string]string) {
	headers := map[string]string{}
	switch tag {
	case "jellyfin":
		if h.cfg.Jellyfin.APIKey != "" {
			headers["X-Emby-Token"] = h.cfg.Jellyfin.APIKey
		}
	case "plex":
		if h.cfg.Plex.Token != "" {
			q := u.Query()
			q.Set("X-Plex-Token", h.cfg.Plex.Token)
			u.RawQuery = q.Encode()
		}
	case "tautulli":
		if h.cfg.Tautulli.APIKey != "" {
			q := u.Query()
			q.Set("apikey", h.cfg.Tautulli.APIKey)
			u.RawQuery = q.Encode()
		}
	}
	return u.String(), headers
}
