// Package config provides configuration management for the sparkify CLI.
//
// Values are layered with koanf: built-in defaults, then sparkify.yaml, then
// SPARKIFY_ environment variables, then flags that were explicitly set.
package config

import "github.com/leapstack-labs/sparkify/pkg/core"

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	Environment  string               `koanf:"environment"`
	StatePath    string               `koanf:"state_path"`
	Verbose      bool                 `koanf:"verbose"`
	LogFormat    string               `koanf:"log_format"`
	Target       *TargetConfig        `koanf:"target"`
	ETL          ETLConfig            `koanf:"etl"`
	Quality      QualityConfig        `koanf:"quality"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was loaded, if any.
	ConfigFile string `koanf:"-"`
}

// ETLConfig locates the raw input and the lake output.
type ETLConfig struct {
	Input       string `koanf:"input"`
	Output      string `koanf:"output"`
	MaxParallel int    `koanf:"max_parallel"`
	S3Region    string `koanf:"s3_region"`
	S3Endpoint  string `koanf:"s3_endpoint"`
}

// QualityConfig lists the tables the row-count check validates.
type QualityConfig struct {
	Tables []string `koanf:"tables"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Target *TargetConfig `koanf:"target"`
	ETL    *ETLConfig    `koanf:"etl"`
}

// Default configuration values.
const (
	DefaultStateFile   = ".sparkify/state.db"
	DefaultDatabase    = ".sparkify/sparkify.duckdb"
	DefaultEnv         = "dev"
	DefaultLogFormat   = "text"
	DefaultInput       = "data"
	DefaultOutput      = "lake"
	DefaultMaxParallel = 4
)

// DefaultQualityTables are checked when quality.tables is not configured.
var DefaultQualityTables = []string{"songplays", "users", "songs", "artists", "time"}

// ConfigFileNames are searched in order when no --config is given.
var ConfigFileNames = []string{"sparkify.yaml", "sparkify.yml"}
