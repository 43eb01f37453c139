package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Schera-ole/librato/internal/audit"
	"github.com/Schera-ole/librato/internal/config"
	middlewareinternal "github.com/Schera-ole/librato/internal/middleware"
	models "github.com/Schera-ole/librato/internal/model"
	"github.com/Schera-ole/librato/internal/service"
)

// Router builds the sink's HTTP surface.
//
// POST /v1/metrics accepts the reporter's outbound payload; the remaining
// routes expose the stored measurements for inspection.
func Router(
	svc *service.IngestService,
	logger *zap.SugaredLogger,
	cfg *config.SinkConfig,
	auditLogger audit.Logger,
) chi.Router {
	router := chi.NewRouter()
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	router.Use(middlewareinternal.GzipMiddleware)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(15 * time.Second))
	router.Post("/v1/metrics", func(w http.ResponseWriter, r *http.Request) {
		IngestHandler(w, r, svc, logger, cfg, auditLogger)
	})
	router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		ListJSONHandler(w, r, svc, logger)
	})
	router.Get("/value/{name}", func(w http.ResponseWriter, r *http.Request) {
		GetHandler(w, r, svc)
	})
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		PingHandler(w, r, svc, logger)
	})
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		ListHandler(w, r, svc)
	})
	return router
}

// IngestHandler accepts one measurement payload and stores it.
func IngestHandler(
	w http.ResponseWriter,
	r *http.Request,
	svc *service.IngestService,
	logger *zap.SugaredLogger,
	cfg *config.SinkConfig,
	auditLogger audit.Logger,
) {
	if err := CheckAuthorization(r, cfg); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reader, err := BodyReader(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	var payload models.Payload
	if err := json.NewDecoder(reader).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}

	names, err := svc.Ingest(r.Context(), payload)
	if err != nil {
		logger.Info(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if auditLogger != nil {
		auditLogger.Log(names, r.RemoteAddr)
	}
	w.WriteHeader(http.StatusOK)

	if cfg.StoreInterval == 0 && svc.IsMemStorage() {
		if err := svc.SaveMeasurements(r.Context(), cfg.FileStoragePath); err != nil {
			logger.Infof("couldn't save to file %s", err)
		}
	}
}

// ListJSONHandler returns every stored measurement as JSON.
func ListJSONHandler(w http.ResponseWriter, r *http.Request, svc *service.IngestService, logger *zap.SugaredLogger) {
	measurements, err := svc.ListMeasurements(r.Context())
	if err != nil {
		logger.Errorf("error listing measurements: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(measurements)
}

// GetHandler returns one measurement's value as text.
func GetHandler(w http.ResponseWriter, r *http.Request, svc *service.IngestService) {
	name := chi.URLParam(r, "name")
	m, err := svc.GetMeasurement(r.Context(), name)
	if err != nil {
		http.Error(w, "Measurement not found ", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%v", m.Value)
}

// PingHandler checks the storage connection.
func PingHandler(w http.ResponseWriter, r *http.Request, svc *service.IngestService, logger *zap.SugaredLogger) {
	if err := svc.Ping(r.Context()); err != nil {
		logger.Errorf("storage ping failed: %v", err)
		http.Error(w, "Failed to connect to storage: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ListHandler renders a plain-text listing of stored measurements.
func ListHandler(w http.ResponseWriter, r *http.Request, svc *service.IngestService) {
	measurements, _ := svc.ListMeasurements(r.Context())

	var result string
	for _, m := range measurements {
		result += fmt.Sprintf("%s: %v\n", m.Name, m.Value)
	}
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, result)
}
