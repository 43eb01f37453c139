// Package audit provides an audit trail for ingested measurement batches.
//
// It implements a publish-subscribe pattern for distributing audit events to
// multiple destinations including files and HTTP endpoints.
package audit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	models "github.com/Schera-ole/librato/internal/model"
)

// Logger is an interface for recording audit events.
type Logger interface {
	// Log records which measurements arrived from which address.
	Log(measurements []string, ipAddress string)
}

// auditLogger is a concrete implementation of Logger that sends events to a channel.
type auditLogger struct {
	eventChan chan models.AuditEvent
	logger    *zap.SugaredLogger
}

// NewLogger creates a Logger that sends events to the provided channel.
func NewLogger(eventChan chan models.AuditEvent, logger *zap.SugaredLogger) Logger {
	return &auditLogger{
		eventChan: eventChan,
		logger:    logger,
	}
}

// Log sends an audit event with the specified measurement names and IP address.
func (a *auditLogger) Log(measurements []string, ipAddress string) {
	event := models.AuditEvent{
		TS:           time.Now().Format(time.RFC3339),
		Measurements: measurements,
		IPAddress:    ipAddress,
	}

	select {
	case a.eventChan <- event:
		// Event sent successfully
	default:
		// Channel is full, drop the event to prevent blocking
		a.logger.Info("audit: dropped event, channel is full")
	}
}

// Broadcaster distributes audit events to multiple subscriber channels.
//
// It receives events from a source channel and sends them to all provided
// subscriber channels, dropping events for blocked subscribers instead of
// stalling the rest.
func Broadcaster(source <-chan models.AuditEvent, logger *zap.SugaredLogger, subs ...chan<- models.AuditEvent) {
	for evt := range source {
		for _, subChan := range subs {
			select {
			case subChan <- evt:
				// Event sent successfully
			default:
				logger.Info("audit: dropped event for blocked subscriber channel")
			}
		}
	}
}

// FileSubscriber appends audit events to a file, one JSON document per line.
func FileSubscriber(events <-chan models.AuditEvent, fname string, logger *zap.SugaredLogger) {
	for evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			logger.Errorf("audit file subscriber: marshal: %v", err)
			continue
		}
		f, err := os.OpenFile(fname, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			logger.Errorf("audit file subscriber: open %s: %v", fname, err)
			continue
		}
		if _, err = f.WriteString(string(data) + "\n"); err != nil {
			logger.Errorf("audit file subscriber: write: %v", err)
		}
		f.Close()
	}
}

// URLSubscriber posts audit events to an HTTP endpoint.
func URLSubscriber(events <-chan models.AuditEvent, url string, logger *zap.SugaredLogger) {
	for evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			logger.Errorf("audit url subscriber: marshal: %v", err)
			continue
		}
		resp, err := http.Post(url, "application/json", bytes.NewBuffer(data))
		if err != nil {
			logger.Errorf("audit url subscriber: post to %s: %v", url, err)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
