package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"

	"github.com/Schera-ole/librato/internal/reporter"
)

type reporterConfig struct {
	Username       string
	Token          string
	Source         string
	APIURL         string
	ReportInterval int
	PollInterval   int
}

func newReporterConfig() (*reporterConfig, error) {
	username := flag.String("u", "", "API username")
	token := flag.String("t", "", "API token")
	source := flag.String("s", "", "source label for this process")
	apiURL := flag.String("a", "", "override API endpoint")
	reportInterval := flag.Int("r", 10, "reporting interval in seconds")
	pollInterval := flag.Int("p", 2, "demo metric poll interval in seconds")
	flag.Parse()

	envStrVars := map[string]*string{
		"LIBRATO_USERNAME": username,
		"LIBRATO_TOKEN":    token,
		"LIBRATO_SOURCE":   source,
		"LIBRATO_API_URL":  apiURL,
	}
	envIntVars := map[string]*int{
		"REPORT_INTERVAL": reportInterval,
		"POLL_INTERVAL":   pollInterval,
	}

	for envVar, flag := range envStrVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*flag = envValue
		}
	}
	for envVar, flag := range envIntVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			interval, err := strconv.Atoi(envValue)
			if err != nil {
				return nil, err
			}
			*flag = interval
		}
	}

	return &reporterConfig{
		Username:       *username,
		Token:          *token,
		Source:         *source,
		APIURL:         *apiURL,
		ReportInterval: *reportInterval,
		PollInterval:   *pollInterval,
	}, nil
}

// pollDemoMetrics keeps a couple of registry entries moving so a freshly
// started reporter has something to publish besides VM statistics.
func pollDemoMetrics(registry metrics.Registry, interval time.Duration, quit <-chan struct{}) {
	pollCount := metrics.NewRegisteredCounter("PollCount", registry)
	randomValue := metrics.NewRegisteredGaugeFloat64("RandomValue", registry)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			pollCount.Inc(1)
			randomValue.Update(rand.Float64())
		}
	}
}

func main() {
	cfg, err := newReporterConfig()
	if err != nil {
		log.Fatal("Failed to parse configuration: ", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	registry := metrics.NewRegistry()

	r, err := reporter.New(reporter.Options{
		Username: cfg.Username,
		Token:    cfg.Token,
		Source:   cfg.Source,
		APIURL:   cfg.APIURL,
		Registry: registry,
		Interval: time.Duration(cfg.ReportInterval) * time.Second,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatalf("failed to create reporter: %v", err)
	}

	quit := make(chan struct{})
	go pollDemoMetrics(registry, time.Duration(cfg.PollInterval)*time.Second, quit)
	go func() {
		if err := r.Start(); err != nil {
			logger.Errorf("reporter stopped: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")
	close(quit)
	r.Stop()
}
