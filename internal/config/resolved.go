package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Resolved is an immutable merged configuration. Lookups return copies of
// the stored values, never references into the underlying document, so a
// Resolved handle can be shared across goroutines without locking.
type Resolved struct {
	values  map[string]any
	sources map[string]Source
}

// Value is the strict lookup: it returns the value stored at the dotted
// keyPath or ErrMissingKey when the path (or any intermediate segment) is
// absent.
func (c *Resolved) Value(keyPath string) (any, error) {
	v, ok := lookup(c.values, keyPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, keyPath)
	}
	return copyValue(v), nil
}

// Get looks up keyPath and returns def when the path is absent. It never
// fails.
func (c *Resolved) Get(keyPath string, def any) any {
	v, ok := lookup(c.values, keyPath)
	if !ok {
		return def
	}
	return copyValue(v)
}

// Has reports whether keyPath resolves to a value.
func (c *Resolved) Has(keyPath string) bool {
	_, ok := lookup(c.values, keyPath)
	return ok
}

// Source returns the provenance of the value at keyPath, or the empty Source
// when the path is absent.
func (c *Resolved) Source(keyPath string) Source {
	if !c.Has(keyPath) {
		return ""
	}
	if s, ok := c.sources[keyPath]; ok {
		return s
	}
	return SourceFile
}

// Keys returns the sorted dotted paths of every leaf value.
func (c *Resolved) Keys() []string {
	return flatten(c.values)
}

// String returns the string at keyPath, or def when missing or not a string.
func (c *Resolved) String(keyPath, def string) string {
	v, ok := lookup(c.values, keyPath)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

// Int returns the integer at keyPath, or def when missing or not convertible.
// String values are parsed because environment overrides always arrive as
// strings.
func (c *Resolved) Int(keyPath string, def int) int {
	v, ok := lookup(c.values, keyPath)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return def
}

// Float returns the float64 at keyPath, or def when missing or not convertible.
func (c *Resolved) Float(keyPath string, def float64) float64 {
	v, ok := lookup(c.values, keyPath)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return def
}

// Bool returns the boolean at keyPath, or def when missing or not convertible.
func (c *Resolved) Bool(keyPath string, def bool) bool {
	v, ok := lookup(c.values, keyPath)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
	}
	return def
}

// Duration returns the duration at keyPath, or def when missing or invalid.
// Strings are parsed with time.ParseDuration; bare numbers are interpreted
// as seconds.
func (c *Resolved) Duration(keyPath string, def time.Duration) time.Duration {
	v, ok := lookup(c.values, keyPath)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			return d
		}
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case float64:
		return time.Duration(val * float64(time.Second))
	case time.Duration:
		return val
	}
	return def
}

// StringSlice returns the string slice at keyPath, or def when missing or not
// convertible. Plain strings are split on commas so that list-valued keys can
// be overridden from the environment.
func (c *Resolved) StringSlice(keyPath string, def []string) []string {
	v, ok := lookup(c.values, keyPath)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return def
			}
			out = append(out, s)
		}
		return out
	case string:
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

// clone deep-copies the document so that overrides never touch values held
// by existing Resolved instances.
func (c *Resolved) clone() *Resolved {
	values, _ := copyValue(c.values).(map[string]any)
	sources := make(map[string]Source, len(c.sources))
	for k, v := range c.sources {
		sources[k] = v
	}
	return &Resolved{values: values, sources: sources}
}

// lookup walks the dotted keyPath through nested mappings. It returns false
// when a segment is absent or an intermediate value is not a mapping.
func lookup(values map[string]any, keyPath string) (any, bool) {
	current := any(values)
	for _, segment := range strings.Split(keyPath, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[segment]; !ok {
			return nil, false
		}
	}
	return current, true
}

// copyValue deep-copies mappings and sequences; scalars are returned as is.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

// flatten returns the sorted dotted paths of every leaf value in the document.
func flatten(values map[string]any) []string {
	var keys []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			full := k
			if prefix != "" {
				full = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok && len(child) > 0 {
				walk(full, child)
				continue
			}
			keys = append(keys, full)
		}
	}
	walk("", values)
	sort.Strings(keys)
	return keys
}
