package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalerrors "github.com/Schera-ole/librato/internal/errors"
	models "github.com/Schera-ole/librato/internal/model"
)

func testChunk() []models.Measurement {
	return []models.Measurement{
		models.NewCounter("requests", 42),
		models.NewGauge("queue.depth", 7),
		models.NewDistribution("latency", 10, 55, 1, 10, 385),
	}
}

func TestPublishRequestShape(t *testing.T) {
	var captured models.Payload
	var header http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		assert.Equal(t, http.MethodPost, r.Method)
		err := json.NewDecoder(r.Body).Decode(&captured)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := New(server.URL, "user", "token", time.Second)
	err := p.Publish(context.Background(), testChunk(), "host-1", 1700000000)
	require.NoError(t, err)

	assert.Equal(t, "application/json", header.Get("Content-Type"))
	// base64("user:token")
	assert.Equal(t, "Basic dXNlcjp0b2tlbg==", header.Get("Authorization"))

	assert.Equal(t, "host-1", captured.Source)
	assert.Equal(t, int64(1700000000), captured.MeasureTime)
	require.Len(t, captured.Counters, 1)
	assert.Equal(t, "requests", captured.Counters[0].Name)
	require.Len(t, captured.Gauges, 2)
	assert.Equal(t, "queue.depth", captured.Gauges[0].Name)
	assert.Equal(t, "latency", captured.Gauges[1].Name)
	require.NotNil(t, captured.Gauges[1].SumSquares)
	assert.Equal(t, 385.0, *captured.Gauges[1].SumSquares)
}

func TestPublishNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	p := New(server.URL, "user", "token", time.Second)
	err := p.Publish(context.Background(), testChunk(), "host-1", 1700000000)
	require.Error(t, err)
	assert.ErrorIs(t, err, internalerrors.ErrBadStatus)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad credentials")
}

func TestPublishTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := New(server.URL, "user", "token", 20*time.Millisecond)
	err := p.Publish(context.Background(), testChunk(), "host-1", 1700000000)
	assert.Error(t, err)
}

func TestPublishConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	p := New(server.URL, "user", "token", time.Second)
	err := p.Publish(context.Background(), testChunk(), "host-1", 1700000000)
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	p := New("", "user", "token", 0)
	assert.Equal(t, DefaultAPIURL, p.endpoint)
	assert.Equal(t, DefaultTimeout, p.client.Timeout)
}
