package pglode

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Operation completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or catalog entry
	ExitConnectionError = 11 // Failed to connect to database
	ExitApprovalDenied  = 12 // User denied overwrite approval
	ExitIngestFailed    = 13 // One or more dataset ingests failed
	ExitCatalogMissing  = 14 // Catalog tables not found (run `pglode init --db` first)
)

const (
	// CatalogTable is the name of the table holding dataset entries.
	// It is the single source of truth for which datasets exist and where
	// they are loaded from and to.
	CatalogTable = "pglode_catalog"

	// ChangelogTable is the name of the append-only operation log.
	// Every write against the catalog or a target table adds one row here.
	ChangelogTable = "pglode_changelog"

	// DefaultForceApprovalCountdown is the countdown duration before force
	// approval proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultHistoryLimit caps how many changelog rows `pglode history`
	// shows when no explicit --limit is given.
	DefaultHistoryLimit = 50
)
