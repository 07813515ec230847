package config

import "errors"

var (
	// ErrNotFound is returned when the configuration file does not exist.
	ErrNotFound = errors.New("config file not found")
	// ErrParse is returned when the document is not well-formed YAML, or when
	// an override targets a key path whose intermediate segment is not a mapping.
	ErrParse = errors.New("config document is malformed")
	// ErrMissingKey is returned by strict lookups of absent key paths.
	ErrMissingKey = errors.New("config key not found")
)
