// Package config provides configuration for the ingestion sink binary.
package config

import (
	"flag"
	"os"
	"strconv"
)

// SinkConfig holds the ingestion sink's settings, resolved from command-line
// flags with environment variable overrides.
type SinkConfig struct {
	Address         string
	StoreInterval   int
	FileStoragePath string
	Restore         bool
	DatabaseDSN     string
	AuditFile       string
	AuditURL        string
	Username        string
	Token           string
}

// NewSinkConfig parses flags and environment variables into a SinkConfig.
//
// Environment variables take precedence over flags. Username and Token are
// optional: when both are set, the sink rejects requests whose Basic-Auth
// header does not match.
func NewSinkConfig() (*SinkConfig, error) {
	config := &SinkConfig{
		Address:         "localhost:8080",
		StoreInterval:   300,
		FileStoragePath: "./measurements.json",
		Restore:         false,
		DatabaseDSN:     "",
	}

	address := flag.String("a", config.Address, "address to listen on")
	storeInterval := flag.Int("i", config.StoreInterval, "store to file interval in seconds")
	fileStoragePath := flag.String("f", config.FileStoragePath, "path to store file")
	restoreFlag := flag.Bool("r", config.Restore, "restore measurements from file on start")
	databaseDSN := flag.String("d", config.DatabaseDSN, "database dsn")
	auditFile := flag.String("audit-file", "", "path to audit log file")
	auditURL := flag.String("audit-url", "", "url to post audit events to")
	username := flag.String("u", "", "expected basic-auth username")
	token := flag.String("t", "", "expected basic-auth token")
	flag.Parse()

	envVars := map[string]*string{
		"ADDRESS":           address,
		"FILE_STORAGE_PATH": fileStoragePath,
		"DATABASE_DSN":      databaseDSN,
		"AUDIT_FILE":        auditFile,
		"AUDIT_URL":         auditURL,
		"SINK_USERNAME":     username,
		"SINK_TOKEN":        token,
	}

	for envVar, flag := range envVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*flag = envValue
		}
	}

	if envStoreInterval := os.Getenv("STORE_INTERVAL"); envStoreInterval != "" {
		interval, err := strconv.Atoi(envStoreInterval)
		if err != nil {
			return nil, err
		}
		*storeInterval = interval
	}

	if envRestoreFlag := os.Getenv("RESTORE"); envRestoreFlag != "" {
		restore, err := strconv.ParseBool(envRestoreFlag)
		if err != nil {
			return nil, err
		}
		*restoreFlag = restore
	}

	config.Address = *address
	config.StoreInterval = *storeInterval
	config.FileStoragePath = *fileStoragePath
	config.Restore = *restoreFlag
	config.DatabaseDSN = *databaseDSN
	config.AuditFile = *auditFile
	config.AuditURL = *auditURL
	config.Username = *username
	config.Token = *token

	return config, nil
}
