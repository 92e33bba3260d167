package common

import (
	"errors"
	"net/url"
	"strings"
)

// ValidateManifestURL checks if the given addon manifest URL is usable.
// It ensures the URL is absolute and uses an http or https scheme.
func ValidateManifestURL(rawURL string) error {

	if strings.TrimSpace(rawURL) == "" {
		return errors.New("no addon URL entered")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid addon URL")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("invalid addon URL, only http and https are supported")
	}

	if u.Host == "" {
		return errors.New("invalid addon URL, missing host")
	}

	return nil
}

// ValidateContentID checks if the given content id is valid.
// Addon content ids are opaque but never empty.
func ValidateContentID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("invalid content id")
	}

	return nil
}

// ValidateContentType checks if the content type is valid.
// Types are addon-defined tags; only emptiness is rejected.
func ValidateContentType(t string) error {
	if strings.TrimSpace(t) == "" {
		return errors.New("invalid content type")
	}

	return nil
}
