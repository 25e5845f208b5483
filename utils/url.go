package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// EncodeURLWithSpaces properly encodes a URL that may contain unencoded
// spaces. Some media servers hand out artwork URLs with raw spaces which need
// to be %20 encoded before proxying.
func EncodeURLWithSpaces(rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	encoded := parsedURL.Scheme + "://" + parsedURL.Host + parsedURL.EscapedPath()
	if parsedURL.RawQuery != "" {
		encodedQuery := strings.ReplaceAll(parsedURL.RawQuery, " ", "%20")
		encoded += "?" + encodedQuery
	}
	return encoded, nil
}

// ValidateImageURL rejects proxy targets that are not plain http(s), keeping
// file://, data: and friends out of the image proxy.
func ValidateImageURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
