package scaffold

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"
)

const (
	defaultPort          = "8080"
	defaultDefaultModel  = "gpt-4"
	defaultFallbackModel = "gpt-3.5-turbo"
	defaultGoVersion     = "1.25"
)

// Project holds the parameters a skeleton is rendered from.
type Project struct {
	// Name is the project identifier, used in banners and the manifest.
	Name string
	// Module is the Go module path of the generated project.
	Module string
	// Port is the HTTP port the generated server listens on.
	Port string
	// DefaultModel and FallbackModel seed the models section of config.yaml.
	DefaultModel  string
	FallbackModel string
	// GoVersion is written to the generated go.mod and Dockerfile.
	GoVersion string
}

// File is one planned output file, with a path relative to the project root.
type File struct {
	Path string
	Mode fs.FileMode
	Body []byte
}

// Result summarises a generator run.
type Result struct {
	Root  string
	Files []string
}

// Options control how the plan is written to disk.
type Options struct {
	// Force overwrites files that already exist.
	Force bool
	// DryRun plans without touching the filesystem.
	DryRun bool
}

// withDefaults fills unset fields and validates the project name.
func (p Project) withDefaults() (Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || !validName(p.Name) {
		return Project{}, fmt.Errorf("%w: %q", ErrInvalidProject, p.Name)
	}
	if p.Module == "" {
		p.Module = "example.com/" + p.Name
	}
	if p.Port == "" {
		p.Port = defaultPort
	} else if _, err := strconv.Atoi(p.Port); err != nil {
		return Project{}, fmt.Errorf("%w: port %q is not numeric", ErrInvalidProject, p.Port)
	}
	if p.DefaultModel == "" {
		p.DefaultModel = defaultDefaultModel
	}
	if p.FallbackModel == "" {
		p.FallbackModel = defaultFallbackModel
	}
	if p.GoVersion == "" {
		p.GoVersion = defaultGoVersion
	}
	return p, nil
}

// validName accepts lowercase identifiers with interior dashes or underscores,
// the shape Go tooling is happiest with for directories and module elements.
func validName(name string) bool {
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case (r == '-' || r == '_') && i > 0 && i < len(name)-1:
		default:
			return false
		}
	}
	return true
}
