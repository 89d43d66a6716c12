package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sparkify/pkg/adapter"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (expected text or json)", c.LogFormat)
	}
	if c.ETL.MaxParallel < 1 {
		return fmt.Errorf("etl.max_parallel must be at least 1, got %d", c.ETL.MaxParallel)
	}
	return nil
}

// ValidateETL checks the settings the transform job needs.
func (c *Config) ValidateETL() error {
	if c.ETL.Input == "" {
		return fmt.Errorf("etl.input is required\nHint: set etl.input in sparkify.yaml or pass --input")
	}
	if c.ETL.Output == "" {
		return fmt.Errorf("etl.output is required\nHint: set etl.output in sparkify.yaml or pass --output")
	}
	return nil
}

// ValidateTarget checks the target against the adapter registry.
func ValidateTarget(t *TargetConfig) error {
	if t == nil || t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// DefaultSchemaForType returns the schema a registered target type implies.
func DefaultSchemaForType(dbType string) string {
	return adapter.DefaultsFor(dbType).Schema
}

// ApplyTargetDefaults fills in the schema and port the target type was
// registered with.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Type = strings.ToLower(t.Type)
	d := adapter.DefaultsFor(t.Type)
	if t.Schema == "" {
		t.Schema = d.Schema
	}
	if t.Port == 0 {
		t.Port = d.Port
	}
}
