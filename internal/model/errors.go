package model

import "errors"

var (
	// ErrNotFound is returned when a key or item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBackendUnavailable signals that the underlying storage driver is
	// absent or unreachable. Fatal for the operation, not for the process.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrQuotaExceeded rejects a write whose projected size would exceed the
	// area's capacity. Raised before the backend is touched.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrBackupNotFound is returned when a restore target does not exist.
	ErrBackupNotFound = errors.New("backup not found")
	// ErrIndexCorrupted marks a malformed persisted index. It triggers a
	// silent rebuild and is never surfaced to query callers.
	ErrIndexCorrupted = errors.New("search index corrupted")
	// ErrConflict signals an optimistic-concurrency version mismatch on a
	// read-modify-write list update.
	ErrConflict = errors.New("version conflict")
	// ErrValidation covers malformed caller input.
	ErrValidation = errors.New("validation error")
)
