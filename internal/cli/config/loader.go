package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read into the config.
// A double underscore separates nested keys: SPARKIFY_ETL__INPUT -> etl.input.
const EnvPrefix = "SPARKIFY_"

// configKey and loggerKey are used to store values in a command context.
type (
	configKey struct{}
	loggerKey struct{}
)

// flagKeys maps CLI flag names to config keys. Flags not listed here are
// command options and never reach the config.
var flagKeys = map[string]string{
	"env":          "environment",
	"state":        "state_path",
	"verbose":      "verbose",
	"log-format":   "log_format",
	"input":        "etl.input",
	"output":       "etl.output",
	"max-parallel": "etl.max_parallel",
	"tables":       "quality.tables",
}

// pathFlags are flags whose values are paths relative to the working
// directory rather than the project root.
var pathFlags = map[string]bool{
	"state":  true,
	"input":  true,
	"output": true,
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// findConfigFile returns the config file to use.
// Priority: explicit path > sparkify.yaml > sparkify.yml in dir.
func findConfigFile(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// resolvePathRelativeTo resolves a local path relative to baseDir.
// Empty, absolute, in-memory and URI locations are returned unchanged.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) || strings.Contains(path, "://") {
		return path
	}
	return filepath.Join(baseDir, path)
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > environments.<env> >
// config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithEnv(cfgFile, "", flags)
}

// LoadConfigWithEnv loads configuration and applies the overrides of the
// named environment. An empty envOverride uses the configured environment.
func LoadConfigWithEnv(cfgFile, envOverride string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"environment":      DefaultEnv,
		"state_path":       DefaultStateFile,
		"verbose":          false,
		"log_format":       DefaultLogFormat,
		"etl.input":        DefaultInput,
		"etl.output":       DefaultOutput,
		"etl.max_parallel": DefaultMaxParallel,
		"quality.tables":   DefaultQualityTables,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file
	configFile := findConfigFile(cfgFile, cwd)
	projectRoot := cwd
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		if abs, err := filepath.Abs(configFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Layer the selected environment's block over the file, below env vars and flags
	envName := selectEnvironment(k, envOverride, flags)
	if block := "environments." + envName; k.Exists(block) {
		if err := k.Merge(k.Cut(block)); err != nil {
			return nil, fmt.Errorf("failed to apply environment %s: %w", envName, err)
		}
	}

	// 4. Load environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Load flags that were explicitly set
	flagPaths := map[string]string{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			val := posflag.FlagVal(flags, f)
			if pathFlags[f.Name] {
				flagPaths[key] = resolvePathRelativeTo(f.Value.String(), cwd)
			}
			return key, val
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.ConfigFile = configFile

	cfg.Environment = envName

	if cfg.Target == nil {
		cfg.Target = &TargetConfig{Type: "duckdb", Database: DefaultDatabase}
	}
	ApplyTargetDefaults(cfg.Target)
	expandTargetEnvVars(cfg.Target)

	// 7. Resolve paths. Flag values are already relative to the working directory.
	cfg.StatePath = pick(flagPaths["state_path"], resolvePathRelativeTo(cfg.StatePath, projectRoot))
	cfg.ETL.Input = pick(flagPaths["etl.input"], resolvePathRelativeTo(cfg.ETL.Input, projectRoot))
	cfg.ETL.Output = pick(flagPaths["etl.output"], resolvePathRelativeTo(cfg.ETL.Output, projectRoot))
	if cfg.Target.Type == "duckdb" || cfg.Target.Type == "sqlite" {
		cfg.Target.Database = resolvePathRelativeTo(cfg.Target.Database, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// selectEnvironment returns the environment whose overrides apply.
// Priority: envOverride > --env > SPARKIFY_ENVIRONMENT > file > default.
func selectEnvironment(k *koanf.Koanf, envOverride string, flags *pflag.FlagSet) string {
	if envOverride != "" {
		return envOverride
	}
	if flags != nil {
		if f := flags.Lookup("env"); f != nil && f.Changed {
			return f.Value.String()
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "ENVIRONMENT"); ok && v != "" {
		return v
	}
	return k.String("environment")
}

func pick(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}

// WithConfig returns a copy of ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config stored by WithConfig.
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	return cfg, ok
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands environment variables in target credentials,
// options and string params (DuckDB secrets carry S3 keys there).
func expandTargetEnvVars(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
	t.Account = expandEnvVars(t.Account)
	for k, v := range t.Options {
		t.Options[k] = expandEnvVars(v)
	}
	for k, v := range t.Params {
		t.Params[k] = expandParam(v)
	}
}

func expandParam(v any) any {
	switch val := v.(type) {
	case string:
		return expandEnvVars(val)
	case map[string]any:
		for k, inner := range val {
			val[k] = expandParam(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = expandParam(inner)
		}
		return val
	default:
		return v
	}
}
