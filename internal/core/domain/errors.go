package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors, which adapters wrap
// with ErrStorage.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a finding with the same ID already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSource indicates a source outside external_api, web, codebase.
	// No write is performed when it is returned.
	ErrInvalidSource = errors.New("invalid source")

	// ErrDuplicateFinding indicates a finding with the same
	// (work item, url, title) triple is already stored.
	// The existing record is never overwritten or merged.
	ErrDuplicateFinding = errors.New("duplicate finding")

	// ErrStorage indicates the underlying storage failed (I/O, permissions,
	// corruption). It is fatal for the operation and never retried internally.
	ErrStorage = errors.New("storage error")
)
