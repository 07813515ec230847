package scaffold

import "errors"

var (
	// ErrInvalidProject is returned when the project parameters fail validation.
	ErrInvalidProject = errors.New("project name must be a non-empty identifier")
	// ErrExists is returned when a target file already exists and overwriting was not forced.
	ErrExists = errors.New("target file already exists")
)
