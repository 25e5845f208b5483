package extract

import (
	"net/url"
	"strings"

	"medialens/models"
)

// ProxyPath is the internal image proxy endpoint poster URLs point at.
const ProxyPath = "/api/media/img"

var imageCandidates = []string{"thumb", "Thumb", "grandparent_thumb", "grandparentThumb", "art", "poster_url", "posterUrl", "image"}

// BuildPoster wraps the record's image reference in an internal proxy URL so
// upstream credentials never reach the caller. Absolute image URLs are proxied
// as-is; relative upstream paths are qualified against creds.BaseURL and
// tagged with the backend whose secret the proxy must attach server-side.
// Returns "" when the record has no image or the backend is unconfigured.
func BuildPoster(rec models.RawRecord, creds models.Credentials) string {
	ref := firstString(rec, imageCandidates)
	if ref == "" {
		return ""
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ProxyPath + "?u=" + url.QueryEscape(ref)
	}

	if creds.BaseURL == "" || creds.Tag == "" {
		return ""
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	full := creds.BaseURL + ref
	return ProxyPath + "?u=" + url.QueryEscape(full) + "&auth=" + url.QueryEscape(creds.Tag)
}
