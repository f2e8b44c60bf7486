package pglode

import "context"

// Ingestor is the main interface for executing catalog-driven loads.
// Implementations read the catalog once into an immutable snapshot, then
// ingest each entry sequentially: read the delimited-text source, overwrite
// the target table, and record the write in the changelog.
type Ingestor interface {
	// Run executes a loader run using the provided configuration.
	// Per-entry failures are isolated: they are reported in the RunResult
	// and the returned error wraps ErrIngestFailed, but remaining entries
	// are still processed.
	Run(ctx context.Context, config RunConfig) (*RunResult, error)
}
