package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/Schera-ole/librato/internal/audit"
	"github.com/Schera-ole/librato/internal/config"
	"github.com/Schera-ole/librato/internal/handler"
	models "github.com/Schera-ole/librato/internal/model"
	"github.com/Schera-ole/librato/internal/migration"
	"github.com/Schera-ole/librato/internal/repository"
	"github.com/Schera-ole/librato/internal/service"
)

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return true
		}
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "connection reset by peer") {
		return true
	}

	return false
}

// runMigrationsWithRetry waits out transient connection errors during startup,
// when the database container may still be coming up.
func runMigrationsWithRetry(ctx context.Context, dsn string, logger *zap.SugaredLogger) error {
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}
	var lastErr error

	for attempt := 0; attempt <= len(delays); attempt++ {
		if attempt > 0 {
			logger.Infof("retrying migrations, attempt %d after %v", attempt, delays[attempt-1])
			time.Sleep(delays[attempt-1])
		}
		lastErr = migration.RunMigrations(ctx, dsn, logger)
		if lastErr == nil {
			return nil
		}
		if !isRetryableError(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func newStorage(ctx context.Context, cfg *config.SinkConfig, logger *zap.SugaredLogger) (repository.Repository, func(), error) {
	if cfg.DatabaseDSN == "" {
		return repository.NewMemStorage(), func() {}, nil
	}

	if err := runMigrationsWithRetry(ctx, cfg.DatabaseDSN, logger); err != nil {
		return nil, nil, err
	}
	storage, err := repository.NewDBStorage(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	return storage, func() { storage.Close() }, nil
}

func main() {
	cfg, err := config.NewSinkConfig()
	if err != nil {
		log.Fatal("Failed to parse configuration: ", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, closeStorage, err := newStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to set up storage: %v", err)
	}
	defer closeStorage()

	svc := service.NewIngestService(storage)
	if cfg.Restore && svc.IsMemStorage() {
		if err := svc.RestoreMeasurements(ctx, cfg.FileStoragePath, logger); err != nil {
			logger.Errorf("failed to restore measurements: %v", err)
		}
	}

	// audit pipeline: handlers publish, the broadcaster fans out
	events := make(chan models.AuditEvent, 100)
	var subscribers []chan<- models.AuditEvent
	if cfg.AuditFile != "" {
		fileEvents := make(chan models.AuditEvent, 100)
		subscribers = append(subscribers, fileEvents)
		go audit.FileSubscriber(fileEvents, cfg.AuditFile, logger)
	}
	if cfg.AuditURL != "" {
		urlEvents := make(chan models.AuditEvent, 100)
		subscribers = append(subscribers, urlEvents)
		go audit.URLSubscriber(urlEvents, cfg.AuditURL, logger)
	}
	go audit.Broadcaster(events, logger, subscribers...)
	auditLogger := audit.NewLogger(events, logger)

	if cfg.StoreInterval > 0 && svc.IsMemStorage() {
		go func() {
			ticker := time.NewTicker(time.Duration(cfg.StoreInterval) * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := svc.SaveMeasurements(ctx, cfg.FileStoragePath); err != nil {
						logger.Errorf("periodic save failed: %v", err)
					}
				}
			}
		}()
	}

	server := &http.Server{
		Addr:    cfg.Address,
		Handler: handler.Router(svc, logger, cfg, auditLogger),
	}

	go func() {
		logger.Infof("sink listening on %s", cfg.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown error: %v", err)
	}

	if svc.IsMemStorage() {
		if err := svc.SaveMeasurements(context.Background(), cfg.FileStoragePath); err != nil {
			logger.Errorf("final save failed: %v", err)
		}
	}
	close(events)
}
