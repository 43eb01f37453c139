package errors

import "errors"

var (
	// Reporter configuration errors
	ErrMissingCredentials = errors.New("username and token must be non-empty")
	ErrNilRegistry        = errors.New("metrics registry is required")

	// Measurement errors
	ErrInvalidMeasurement  = errors.New("measurement violates numeric invariants")
	ErrMeasurementNotFound = errors.New("measurement not found")
	ErrUnknownKind         = errors.New("unknown measurement kind")

	// Publish errors
	ErrBadStatus = errors.New("endpoint returned non-success status")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
)
