// Package config implements a layered configuration resolver: it loads a
// YAML document from disk, overlays environment-variable overrides for an
// allow-list of dotted key paths, and exposes read-only typed lookups.
// Precedence: environment overrides > file values. A Resolved value is
// immutable after construction; re-resolution produces a new instance and
// never mutates handles already held by callers.
package config
