package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownTicker indicates a ticker could not be resolved to an entity id
	ErrUnknownTicker = errors.New("unknown ticker")

	// ErrNoDocumentMarker indicates an archive contains no document-open marker
	ErrNoDocumentMarker = errors.New("no document marker in archive")

	// ErrBinarySection indicates a document section holds binary content
	ErrBinarySection = errors.New("binary document section")

	// ErrLedgerClosed indicates the processed ledger was used after Close
	ErrLedgerClosed = errors.New("ledger closed")

	// ErrBatchRejected indicates the index endpoint rejected an upload batch
	ErrBatchRejected = errors.New("batch rejected")

	// ErrRunLocked indicates another process holds the run lock
	ErrRunLocked = errors.New("another ingestion run is active")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)
