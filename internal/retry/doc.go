// Package retry implements retry orchestration for transient database and
// network failures: an exponential backoff strategy with jitter, a
// PostgreSQL-aware error classifier, and an executor that ties them together.
//
// The public interfaces (pglode.ErrorClassifier, pglode.BackoffStrategy) live
// in pkg/pglode so callers can plug in their own implementations.
package retry
