package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Schera-ole/librato/internal/config"
	models "github.com/Schera-ole/librato/internal/model"
	"github.com/Schera-ole/librato/internal/repository"
	"github.com/Schera-ole/librato/internal/service"
)

func newTestRouter(cfg *config.SinkConfig) (http.Handler, *service.IngestService) {
	svc := service.NewIngestService(repository.NewMemStorage())
	if cfg == nil {
		cfg = &config.SinkConfig{StoreInterval: 300}
	}
	return Router(svc, zap.NewNop().Sugar(), cfg, nil), svc
}

func testPayloadBody(t *testing.T) []byte {
	t.Helper()
	payload := models.NewPayload([]models.Measurement{
		models.NewCounter("requests", 42),
		models.NewGauge("queue.depth", 7.5),
	}, "host-1", 1700000000)
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func TestIngestHandler(t *testing.T) {
	router, svc := newTestRouter(nil)
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Post(server.URL+"/v1/metrics", "application/json", bytes.NewReader(testPayloadBody(t)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	m, err := svc.GetMeasurement(context.Background(), "requests")
	require.NoError(t, err)
	assert.Equal(t, 42.0, m.Value)
}

func TestIngestHandlerGzipBody(t *testing.T) {
	router, svc := newTestRouter(nil)
	server := httptest.NewServer(router)
	defer server.Close()

	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	_, err := gz.Write(testPayloadBody(t))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	req, err := http.NewRequest(http.MethodPost, server.URL+"/v1/metrics", &compressed)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	m, err := svc.GetMeasurement(context.Background(), "queue.depth")
	require.NoError(t, err)
	assert.Equal(t, 7.5, m.Value)
}

func TestIngestHandlerRejectsInvalidJSON(t *testing.T) {
	router, _ := newTestRouter(nil)
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Post(server.URL+"/v1/metrics", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestHandlerAuthorization(t *testing.T) {
	cfg := &config.SinkConfig{StoreInterval: 300, Username: "user", Token: "token"}
	router, _ := newTestRouter(cfg)
	server := httptest.NewServer(router)
	defer server.Close()

	// no credentials
	resp, err := http.Post(server.URL+"/v1/metrics", "application/json", bytes.NewReader(testPayloadBody(t)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// wrong credentials
	req, err := http.NewRequest(http.MethodPost, server.URL+"/v1/metrics", bytes.NewReader(testPayloadBody(t)))
	require.NoError(t, err)
	req.SetBasicAuth("user", "wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// correct credentials
	req, err = http.NewRequest(http.MethodPost, server.URL+"/v1/metrics", bytes.NewReader(testPayloadBody(t)))
	require.NoError(t, err)
	req.SetBasicAuth("user", "token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetHandler(t *testing.T) {
	router, svc := newTestRouter(nil)
	server := httptest.NewServer(router)
	defer server.Close()

	require.NoError(t, svc.Ping(context.Background()))
	_, err := svc.Ingest(context.Background(), models.NewPayload([]models.Measurement{
		models.NewGauge("depth", 3.5),
	}, "", 0))
	require.NoError(t, err)

	resp, err := http.Get(server.URL + "/value/depth")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/value/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListJSONHandler(t *testing.T) {
	router, svc := newTestRouter(nil)
	server := httptest.NewServer(router)
	defer server.Close()

	_, err := svc.Ingest(context.Background(), models.NewPayload([]models.Measurement{
		models.NewCounter("requests", 1),
		models.NewGauge("depth", 2),
	}, "", 0))
	require.NoError(t, err)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listed []models.StoredMeasurement
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	assert.Len(t, listed, 2)
}

func TestPingHandler(t *testing.T) {
	router, _ := newTestRouter(nil)
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
