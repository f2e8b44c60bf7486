package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/pglode/internal/config"
	"github.com/vvka-141/pglode/pkg/pglode"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $PGPASSWORD environment variable
//  2. .pgpass file (PostgreSQL standard)
//  3. Connection string with embedded password
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided.
// Database is excluded from this check because it can override the database
// named in a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudFlags represents cloud IAM authentication CLI flags.
// These override the corresponding environment variables.
// Note: secrets never travel via flags; AZURE_CLIENT_SECRET comes from the
// environment only.
type CloudFlags struct {
	AzureTenantID  string // Overrides AZURE_TENANT_ID
	AzureClientID  string // Overrides AZURE_CLIENT_ID
	AWSRegion      string // Overrides AWS_REGION
	GoogleInstance string // Cloud SQL instance connection name
}

// IsEmpty returns true if no cloud flags were provided.
func (c *CloudFlags) IsEmpty() bool {
	return c == nil || (c.AzureTenantID == "" && c.AzureClientID == "" &&
		c.AWSRegion == "" && c.GoogleInstance == "")
}

// EnvVars represents PostgreSQL standard environment variables plus the
// cloud provider variables pglode understands.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST       string
	PGPORT       string
	PGUSER       string
	PGPASSWORD   string
	PGDATABASE   string
	PGSSLMODE    string
	DATABASE_URL string // Full connection string (Heroku/Rails convention)

	// Azure Entra ID environment variables (Azure SDK standard names)
	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string

	// AWS RDS IAM
	AWS_REGION string
}

// LoadFromEnvironment loads PostgreSQL and cloud provider environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:          os.Getenv("AWS_REGION"),
	}
}

// ResolveConnectionParams resolves connection parameters using
// PostgreSQL-standard precedence:
//
//  1. Connection string flag (--connection): parse and use directly
//  2. Granular flags (-h, -p, -U, -d): build config from flags
//  3. Environment variables (PGHOST, PGPORT, ...)
//  4. DATABASE_URL environment variable
//  5. pglode.yaml project config
//  6. Defaults (localhost:5432, prefer SSL)
//
// Cloud IAM authentication: if cloud flags or the corresponding environment
// variables are set, the AuthMethod switches accordingly and credentials are
// attached to the config. CLI flags take precedence over environment
// variables.
//
// Returns an error if BOTH --connection AND granular flags are provided,
// which would be ambiguous.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pglode.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U)\n" +
				"Choose one approach:\n" +
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/warehouse\"\n" +
				"  2. Granular flags: -h localhost -p 5432 -U loader -d warehouse\n" +
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=loader",
		)
	}

	var cfg *pglode.ConnectionConfig
	var err error

	if connStringFlag != "" {
		cfg, err = resolveFromConnectionString(connStringFlag, granularFlags, envVars)
	} else if granularFlags.IsEmpty() && envVars.DATABASE_URL != "" {
		cfg, err = resolveFromConnectionString(envVars.DATABASE_URL, granularFlags, envVars)
	} else {
		cfg, err = resolveFromGranularParams(granularFlags, envVars, projectConfig)
	}

	if err != nil {
		return nil, err
	}

	applyCloudAuth(cfg, cloudFlags, envVars)

	return cfg, nil
}

// applyCloudAuth switches the config to cloud IAM authentication if
// credentials are available. CLI flags take precedence over environment
// variables. Google takes precedence over Azure over AWS when multiple are
// configured, since the Cloud SQL instance name is the most explicit signal.
func applyCloudAuth(cfg *pglode.ConnectionConfig, flags *CloudFlags, env *EnvVars) {
	if flags.GoogleInstance != "" {
		cfg.AuthMethod = pglode.AuthMethodGoogleIAM
		cfg.GoogleInstance = flags.GoogleInstance
		return
	}

	tenantID := flags.AzureTenantID
	if tenantID == "" {
		tenantID = env.AZURE_TENANT_ID
	}
	clientID := flags.AzureClientID
	if clientID == "" {
		clientID = env.AZURE_CLIENT_ID
	}

	if tenantID != "" || clientID != "" {
		cfg.AuthMethod = pglode.AuthMethodAzureEntraID
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
		return
	}

	if flags.AWSRegion != "" {
		cfg.AuthMethod = pglode.AuthMethodAWSIAM
		cfg.AWSRegion = flags.AWSRegion
	}
}

// resolveFromConnectionString parses a connection string, then applies the
// --database flag and environment fallbacks for parameters the string did
// not specify (following libpq behavior).
func resolveFromConnectionString(connStr string, flags *GranularConnFlags, envVars *EnvVars) (*pglode.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	if flags.Database != "" {
		cfg.Database = flags.Database
	}

	if cfg.SSLMode == "" && envVars.PGSSLMODE != "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	return cfg, nil
}

// resolveFromGranularParams builds a ConnectionConfig from granular flags,
// environment variables, and project config.
//
// Precedence per parameter: CLI flag > environment variable > pglode.yaml > default.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pglode.ConnectionConfig, error) {
	cfg := &pglode.ConnectionConfig{
		AuthMethod:       pglode.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	cfg.Host = flags.Host
	if cfg.Host == "" {
		cfg.Host = envVars.PGHOST
	}
	if cfg.Host == "" {
		cfg.Host = pc.Host
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}

	if flags.Port != 0 {
		cfg.Port = flags.Port
	} else if envVars.PGPORT != "" {
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer", envVars.PGPORT)
		}
		cfg.Port = port
	} else if pc.Port != 0 {
		cfg.Port = pc.Port
	} else {
		cfg.Port = 5432
	}

	cfg.Username = flags.Username
	if cfg.Username == "" {
		cfg.Username = envVars.PGUSER
	}
	if cfg.Username == "" {
		cfg.Username = pc.Username
	}
	if cfg.Username == "" {
		if currentUser := os.Getenv("USER"); currentUser != "" {
			cfg.Username = currentUser
		} else if currentUser := os.Getenv("USERNAME"); currentUser != "" {
			cfg.Username = currentUser
		}
	}

	cfg.Password = envVars.PGPASSWORD

	cfg.Database = flags.Database
	if cfg.Database == "" {
		cfg.Database = envVars.PGDATABASE
	}
	if cfg.Database == "" {
		cfg.Database = pc.Database
	}

	cfg.SSLMode = flags.SSLMode
	if cfg.SSLMode == "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = pc.SSLMode
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	cfg.AWSRegion = envVars.AWS_REGION
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = pc.AWSRegion
	}
	cfg.GoogleInstance = pc.GoogleInstance
	cfg.AzureTenantID = pc.AzureTenantID
	cfg.AzureClientID = pc.AzureClientID

	if pc.AuthMethod != "" {
		method, err := pglode.ParseAuthMethod(pc.AuthMethod)
		if err != nil {
			return nil, fmt.Errorf("invalid auth_method in %s: %w", config.ConfigFileName, err)
		}
		cfg.AuthMethod = method
	}

	return cfg, nil
}
