package config

// Source indicates where a resolved value came from.
type Source string

const (
	// SourceFile indicates the value was read from the configuration file.
	SourceFile Source = "file"
	// SourceEnv indicates the value was overridden by an environment variable.
	SourceEnv Source = "env"
)
