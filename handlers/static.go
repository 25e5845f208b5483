package handlers

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed static/*
var staticAssets embed.FS

// StaticHandler serves the embedded placeholder assets the image proxy
// redirects to.
type StaticHandler struct {
	fileServer http.Handler
}

func NewStaticHandler() *StaticHandler {
	staticFS, err := fs.Sub(staticAssets, "static")
	if err != nil {
		panic("static subdirectory missing from embed: " + err.Error())
	}
	return &StaticHandler{fileServer: http.FileServer(http.FS(staticFS))}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if strings.HasSuffix(r.URL.Path, ".svg") {
		w.Header().Set("Content-Type", "image/svg+xml")
	}
	h.fileServer.ServeHTTP(w, r)
}
