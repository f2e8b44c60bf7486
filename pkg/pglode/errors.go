package pglode

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := ingestor.Run(ctx, config)
//	if errors.Is(err, pglode.ErrIngestFailed) {
//	    // At least one dataset failed; per-entry detail is in RunResult.
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidEntry indicates a catalog entry failed validation.
	ErrInvalidEntry = errors.New("invalid catalog entry")

	// ErrCatalogMissing indicates the catalog tables do not exist yet.
	ErrCatalogMissing = errors.New("catalog not initialized")

	// ErrCatalogExists indicates init was asked to create a catalog that
	// already exists without the overwrite flag.
	ErrCatalogExists = errors.New("catalog already exists")

	// ErrDuplicateDataset indicates an append would reuse an existing
	// dataset name.
	ErrDuplicateDataset = errors.New("duplicate dataset name")

	// ErrApprovalDenied indicates the user denied approval for the operation.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrIngestFailed indicates one or more dataset ingests failed.
	ErrIngestFailed = errors.New("ingest failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for sentinel errors
	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrInvalidEntry):
		return ExitConfigError
	case errors.Is(err, ErrDuplicateDataset):
		return ExitConfigError
	case errors.Is(err, ErrCatalogMissing):
		return ExitCatalogMissing
	case errors.Is(err, ErrCatalogExists):
		return ExitConfigError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrIngestFailed):
		return ExitIngestFailed
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	}

	errStr := err.Error()

	// Cobra reports usage problems as plain errors; classify by message
	if strings.Contains(errStr, "unknown flag") ||
		strings.Contains(errStr, "unknown shorthand flag") ||
		strings.Contains(errStr, "unknown command") ||
		strings.Contains(errStr, "invalid argument") ||
		strings.Contains(errStr, "required flag") ||
		strings.Contains(errStr, "accepts ") && strings.Contains(errStr, "arg") {
		return ExitUsageError
	}

	// Check for common connection error patterns
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
