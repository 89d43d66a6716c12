package duckdb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "httpfs", "json")
	Extensions []string `mapstructure:"extensions"`

	// Secrets for cloud storage authentication
	Secrets []SecretConfig `mapstructure:"secrets"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// SecretConfig defines a DuckDB secret for cloud storage.
type SecretConfig struct {
	// Type: "s3", "gcs", "r2"
	Type string `mapstructure:"type"`

	// Provider: "config", "credential_chain", ...
	Provider string `mapstructure:"provider"`

	// Region for S3 buckets
	Region string `mapstructure:"region,omitempty"`

	// Scope limits the secret to specific paths (string or []string)
	Scope any `mapstructure:"scope,omitempty"`

	// KeyID for explicit credentials (prefer credential_chain)
	KeyID string `mapstructure:"key_id,omitempty"`

	// Secret for explicit credentials (prefer credential_chain)
	Secret string `mapstructure:"secret,omitempty"`

	// Endpoint for S3-compatible services (MinIO, etc.)
	Endpoint string `mapstructure:"endpoint,omitempty"`

	// URLStyle: "vhost" or "path" for S3
	URLStyle string `mapstructure:"url_style,omitempty"`

	// UseSSL: whether to use HTTPS (default true)
	UseSSL *bool `mapstructure:"use_ssl,omitempty"`
}

// parseParams decodes the raw target params map into Params.
func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}
	return p, nil
}

// buildCreateSecretSQL renders a CREATE SECRET statement, one option per line.
func buildCreateSecretSQL(s SecretConfig) string {
	opts := []string{"TYPE " + s.Type}
	if s.Provider != "" {
		opts = append(opts, "PROVIDER "+s.Provider)
	}
	if s.Region != "" {
		opts = append(opts, fmt.Sprintf("REGION '%s'", escapeLiteral(s.Region)))
	}
	if scope := formatScope(s.Scope); scope != "" {
		opts = append(opts, "SCOPE "+scope)
	}
	if s.KeyID != "" {
		opts = append(opts, fmt.Sprintf("KEY_ID '%s'", escapeLiteral(s.KeyID)))
	}
	if s.Secret != "" {
		opts = append(opts, fmt.Sprintf("SECRET '%s'", escapeLiteral(s.Secret)))
	}
	if s.Endpoint != "" {
		opts = append(opts, fmt.Sprintf("ENDPOINT '%s'", escapeLiteral(s.Endpoint)))
	}
	if s.URLStyle != "" {
		opts = append(opts, fmt.Sprintf("URL_STYLE '%s'", escapeLiteral(s.URLStyle)))
	}
	if s.UseSSL != nil {
		opts = append(opts, fmt.Sprintf("USE_SSL %t", *s.UseSSL))
	}
	return "CREATE SECRET (\n    " + strings.Join(opts, ",\n    ") + "\n)"
}

// formatScope renders a scope given as a string or a list of strings.
func formatScope(scope any) string {
	var items []string
	switch v := scope.(type) {
	case nil:
		return ""
	case string:
		if v == "" {
			return ""
		}
		return fmt.Sprintf("'%s'", escapeLiteral(v))
	case []string:
		items = v
	case []any:
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
	default:
		return fmt.Sprintf("'%s'", escapeLiteral(fmt.Sprint(v)))
	}

	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("'%s'", escapeLiteral(item))
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
