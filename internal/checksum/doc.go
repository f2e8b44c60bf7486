// Package checksum computes content checksums for source data files.
//
// Checksums are recorded in the changelog with every ingest and compared on
// subsequent runs: when the source bytes have not changed since the last
// successful ingest, the loader can skip the overwrite entirely.
package checksum
