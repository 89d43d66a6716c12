package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Defaults are the connection settings a target type implies when the
// configuration leaves them unset.
type Defaults struct {
	Port   int
	Schema string
}

// Factory builds an unconnected adapter.
type Factory func(*slog.Logger) Adapter

type registration struct {
	factory  Factory
	defaults Defaults
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]registration)
)

// Register adds a target type. Adapter packages call it from init().
func Register(name string, factory Factory, defaults Defaults) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = registration{factory: factory, defaults: defaults}
}

// RegisterAlias adds a target type served by the adapter already registered
// as base, with its own defaults. Redshift is an alias of postgres.
func RegisterAlias(alias, base string, defaults Defaults) {
	registryMu.Lock()
	defer registryMu.Unlock()
	reg, ok := registry[strings.ToLower(base)]
	if !ok {
		panic(fmt.Sprintf("adapter: alias %q refers to unregistered type %q", alias, base))
	}
	registry[strings.ToLower(alias)] = registration{factory: reg.factory, defaults: defaults}
}

func lookup(name string) (registration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[strings.ToLower(name)]
	return reg, ok
}

// DefaultsFor returns the defaults registered for a target type. Unknown
// types get the zero value.
func DefaultsFor(name string) Defaults {
	reg, _ := lookup(name)
	return reg.defaults
}

// ApplyDefaults fills cfg's unset port and schema from its type's defaults.
func ApplyDefaults(cfg Config) Config {
	d := DefaultsFor(cfg.Type)
	if cfg.Port == 0 {
		cfg.Port = d.Port
	}
	if cfg.Schema == "" {
		cfg.Schema = d.Schema
	}
	return cfg
}

// NewAdapter creates an unconnected adapter for cfg.Type.
// A nil logger is replaced by a discard logger inside the adapter.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}
	reg, ok := lookup(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Type,
			Available: ListAdapters(),
		}
	}
	return reg.factory(logger), nil
}

// Open creates an adapter for cfg.Type and connects it with the type's
// defaults applied.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Adapter, error) {
	a, err := NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, ApplyDefaults(cfg)); err != nil {
		return nil, fmt.Errorf("failed to connect to %s target: %w", cfg.Type, err)
	}
	return a, nil
}

// ListAdapters returns all registered target types, aliases included, sorted.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a target type is known.
func IsRegistered(name string) bool {
	_, ok := lookup(name)
	return ok
}

// UnknownAdapterError is returned when a target type is not registered.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check your target.type in sparkify.yaml", e.Type, e.Available)
}
