package pglode

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DatasetEntry is one row of the catalog: everything the loader needs to
// ingest a single dataset. The catalog is the single source of truth for
// which datasets exist; the loader treats it as read-only input each run.
type DatasetEntry struct {
	// ID uniquely identifies the entry across renames.
	ID uuid.UUID

	// Name is the logical dataset identifier. Unique across the catalog.
	Name string

	// SourcePath is a path or glob pattern of delimited-text source files.
	// The first row of each file must be a header.
	SourcePath string

	// TargetTable is the destination table name. Overwritten on every run.
	TargetTable string

	// LoadFrequency is a hint for an external scheduler: one of the keyword
	// frequencies ("hourly", "daily", "weekly", "monthly") or a cron
	// expression. Validated on append; never acted upon by pglode itself.
	LoadFrequency string

	// TransformNote is a free-text description of the intended
	// transformation. Stored for documentation only; never executed.
	TransformNote string

	// CreatedAt is when the entry was appended to the catalog.
	CreatedAt time.Time
}

// Validate checks the entry for required fields and a well-formed
// LoadFrequency. It returns a multi-error wrapping ErrInvalidEntry if
// multiple validation failures occur.
func (e *DatasetEntry) Validate() error {
	var errs []error

	if strings.TrimSpace(e.Name) == "" {
		errs = append(errs, fmt.Errorf("dataset name is required: %w", ErrInvalidEntry))
	}
	if strings.TrimSpace(e.SourcePath) == "" {
		errs = append(errs, fmt.Errorf("source path is required: %w", ErrInvalidEntry))
	}
	if strings.TrimSpace(e.TargetTable) == "" {
		errs = append(errs, fmt.Errorf("target table is required: %w", ErrInvalidEntry))
	}

	if e.LoadFrequency != "" {
		if err := ValidateFrequency(e.LoadFrequency); err != nil {
			errs = append(errs, fmt.Errorf("load frequency %q: %v: %w", e.LoadFrequency, err, ErrInvalidEntry))
		}
	}

	return errors.Join(errs...)
}

// Operation is the kind of write recorded in the changelog.
type Operation string

const (
	// OpInit records catalog table creation.
	OpInit Operation = "init"

	// OpAppend records a batch of entries appended to the catalog.
	OpAppend Operation = "append"

	// OpIngest records a full overwrite of a target table from its source.
	OpIngest Operation = "ingest"
)

// ChangeRecord is one row of the append-only changelog. Version numbers are
// assigned by the database and increase monotonically per write.
type ChangeRecord struct {
	// Version is the monotonically increasing write version.
	Version int64

	// Operation is what kind of write happened.
	Operation Operation

	// Dataset is the logical dataset name, or the catalog table name for
	// catalog-level writes.
	Dataset string

	// RowCount is the number of rows written (entries appended for OpAppend,
	// data rows loaded for OpIngest, 0 for OpInit).
	RowCount int64

	// SourceChecksum is the SHA-256 of the raw source bytes for OpIngest,
	// empty otherwise. Used to detect unchanged sources between runs.
	SourceChecksum string

	// PerformedBy identifies who performed the write (OS user).
	PerformedBy string

	// PerformedAt is when the write was committed.
	PerformedAt time.Time

	// Note is optional free text (e.g. the source path that was ingested).
	Note string
}

// RunConfig contains all parameters needed for a loader run.
type RunConfig struct {
	// ConnectionString is the PostgreSQL connection string (URI or key=value format)
	ConnectionString string

	// Only restricts the run to the named datasets. Empty means all.
	Only []string

	// Force re-ingests datasets even when the source checksum matches the
	// last successful ingest.
	Force bool

	// DryRun resolves sources and reports what would happen without writing.
	DryRun bool

	// Timeout is the global timeout for the entire run
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// EntryStatus is the per-dataset outcome of a run.
type EntryStatus string

const (
	StatusLoaded  EntryStatus = "loaded"  // Target table overwritten from source
	StatusSkipped EntryStatus = "skipped" // Source unchanged since last ingest
	StatusFailed  EntryStatus = "failed"  // Ingest error; other entries unaffected
	StatusPlanned EntryStatus = "planned" // Dry run: would be ingested
)

// EntryResult is the outcome for a single catalog entry.
type EntryResult struct {
	Name     string
	Status   EntryStatus
	RowCount int64
	Checksum string
	Duration time.Duration
	Err      error
}

// RunResult summarizes a loader run. A failed entry does not abort the run;
// the remaining entries are still processed and the failure is reported here.
type RunResult struct {
	Entries []EntryResult
	Started time.Time
	Elapsed time.Duration
}

// Failed returns the results of entries that failed.
func (r *RunResult) Failed() []EntryResult {
	var failed []EntryResult
	for _, e := range r.Entries {
		if e.Status == StatusFailed {
			failed = append(failed, e)
		}
	}
	return failed
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is the region for AWS RDS IAM token signing.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name
	// (project:region:instance) for Google IAM authentication.
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod converts a configuration string ("standard", "aws-iam",
// "google-iam", "azure-entra-id") into an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws-iam", "aws_iam", "aws":
		return AuthMethodAWSIAM, nil
	case "google-iam", "google_iam", "google", "cloudsql":
		return AuthMethodGoogleIAM, nil
	case "azure-entra-id", "azure_entra_id", "azure", "entra":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("%w: unknown auth method '%s'", ErrUnsupportedAuthMethod, s)
	}
}
