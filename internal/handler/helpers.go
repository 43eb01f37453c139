package handler

import (
	"compress/gzip"
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Schera-ole/librato/internal/config"
)

// CheckAuthorization validates the request's Basic-Auth header against the
// configured credentials. With no credentials configured, every request is
// accepted.
func CheckAuthorization(r *http.Request, cfg *config.SinkConfig) error {
	if cfg.Username == "" || cfg.Token == "" {
		return nil
	}
	username, token, ok := r.BasicAuth()
	if !ok {
		return fmt.Errorf("missing basic auth header")
	}
	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
	tokenMatch := subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) == 1
	if !userMatch || !tokenMatch {
		return fmt.Errorf("credentials mismatch")
	}
	return nil
}

// BodyReader returns a reader over the request body, transparently handling
// gzip-compressed payloads.
func BodyReader(r *http.Request) (io.Reader, error) {
	if !strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
		return r.Body, nil
	}
	gzipReader, err := gzip.NewReader(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	return gzipReader, nil
}
