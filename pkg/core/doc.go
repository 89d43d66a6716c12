// Package core defines the shared language of the sparkify system.
//
// This package contains:
//   - Connection and metadata types shared by adapters (AdapterConfig, Column, TableMetadata)
//   - Target configuration (TargetConfig)
//   - Run bookkeeping entities (Run, StepRun)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
