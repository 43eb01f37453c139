// Package publish builds and issues the authenticated HTTP requests that
// deliver measurement chunks to the ingestion endpoint.
package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	internalerrors "github.com/Schera-ole/librato/internal/errors"
	models "github.com/Schera-ole/librato/internal/model"
)

// DefaultAPIURL is the production ingestion endpoint.
const DefaultAPIURL = "https://metrics-api.librato.com/v1/metrics"

// DefaultTimeout bounds a single publish attempt when none is configured.
const DefaultTimeout = 5 * time.Second

// Publisher posts measurement chunks to one endpoint with fixed credentials.
//
// A Publisher carries no mutable state, so concurrent publish attempts for
// independent chunks are safe.
type Publisher struct {
	endpoint   string
	authHeader string
	client     *http.Client
}

// New creates a Publisher for the given endpoint and credentials.
//
// An empty endpoint selects DefaultAPIURL; a non-positive timeout selects
// DefaultTimeout. Credential validation is the caller's responsibility.
func New(endpoint, username, token string, timeout time.Duration) *Publisher {
	if endpoint == "" {
		endpoint = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + token))
	return &Publisher{
		endpoint:   endpoint,
		authHeader: "Basic " + credentials,
		client:     &http.Client{Timeout: timeout},
	}
}

// Publish sends one chunk as a single JSON document.
//
// Any 2xx status is success. Timeouts, transport failures and non-2xx
// statuses are returned as errors carrying the endpoint's response detail;
// no retry is attempted.
func (p *Publisher) Publish(ctx context.Context, chunk []models.Measurement, source string, measureTime int64) error {
	payload := models.NewPayload(chunk, source, measureTime)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error encoding payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request for %s: %w", p.endpoint, err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", p.authHeader)

	response, err := p.client.Do(request)
	if err != nil {
		return fmt.Errorf("error sending request for %s: %w", p.endpoint, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		io.Copy(io.Discard, response.Body)
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
	return fmt.Errorf("%w: status %d: %s", internalerrors.ErrBadStatus, response.StatusCode, detail)
}
