package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resolver loads configuration documents and applies environment overrides.
// Overrides maps environment variable names to the dotted key paths they are
// allowed to replace; variables outside the allow-list are ignored.
type Resolver struct {
	Overrides map[string]string
}

// DefaultOverrides returns the override allow-list understood by projects
// scaffolded with graphsmith.
func DefaultOverrides() map[string]string {
	return map[string]string{
		"PORT":             "server.port",
		"MODEL_DEFAULT":    "models.default",
		"MODEL_FALLBACK":   "models.fallback",
		"BASE_URL":         "endpoints.base_url",
		"LOG_LEVEL":        "logging.level",
		"LOG_FILE":         "logging.file",
		"RATE_LIMIT_RPS":   "server.rate_limit_rps",
		"RATE_LIMIT_BURST": "server.rate_limit_burst",
	}
}

// Load reads and parses the YAML document at path. No overrides are applied.
// A missing file yields ErrNotFound, a malformed document ErrParse; there is
// no partially populated result.
func (r *Resolver) Load(path string) (*Resolved, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	if values == nil {
		values = make(map[string]any)
	}

	sources := make(map[string]Source)
	for _, key := range flatten(values) {
		sources[key] = SourceFile
	}

	return &Resolved{values: values, sources: sources}, nil
}

// ApplyOverrides returns a new Resolved with allow-listed entries of env
// overlaid onto cfg. cfg itself is never mutated. Override values are stored
// as strings; converting them is the caller's responsibility (typically via
// the typed accessors on Resolved). An override whose key path crosses a
// non-mapping segment is fatal and reported as ErrParse.
func (r *Resolver) ApplyOverrides(cfg *Resolved, env map[string]string) (*Resolved, error) {
	next := cfg.clone()

	for name, keyPath := range r.Overrides {
		value, ok := env[name]
		if !ok {
			continue
		}
		if err := setPath(next.values, keyPath, value); err != nil {
			return nil, fmt.Errorf("apply override %s: %w", name, err)
		}
		next.sources[keyPath] = SourceEnv
	}

	return next, nil
}

// Resolve loads the document at path and overlays a snapshot of the current
// process environment. This is the entry point callers use at startup.
func (r *Resolver) Resolve(path string) (*Resolved, error) {
	cfg, err := r.Load(path)
	if err != nil {
		return nil, err
	}
	return r.ApplyOverrides(cfg, environSnapshot())
}

// Reload re-reads the document and re-applies the current environment. Any
// previously returned Resolved stays valid for holders that have not rebound
// to the new instance.
func (r *Resolver) Reload(path string) (*Resolved, error) {
	return r.Resolve(path)
}

// environSnapshot captures the process environment as a flat map.
func environSnapshot() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// setPath stores value at the dotted keyPath, creating intermediate mappings
// for segments absent from the document. An existing non-mapping intermediate
// segment is a type conflict and fails with ErrParse.
func setPath(values map[string]any, keyPath string, value any) error {
	segments := strings.Split(keyPath, ".")
	current := values
	for _, segment := range segments[:len(segments)-1] {
		child, ok := current[segment]
		if !ok || child == nil {
			next := make(map[string]any)
			current[segment] = next
			current = next
			continue
		}
		next, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: segment %q of %q is not a mapping", ErrParse, segment, keyPath)
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
	return nil
}
