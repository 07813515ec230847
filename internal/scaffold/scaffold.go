package scaffold

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// outputs maps template names to their destination paths inside the project.
var outputs = map[string]string{
	"go.mod.tmpl":      "go.mod",
	"main.go.tmpl":     "cmd/server/main.go",
	"agent.go.tmpl":    "agent/agent.go",
	"state.go.tmpl":    "agent/state.go",
	"nodes.go.tmpl":    "agent/nodes.go",
	"tools.go.tmpl":    "agent/tools.go",
	"config.yaml.tmpl": "config.yaml",
	"env.tmpl":         ".env",
	"dockerfile.tmpl":  "Dockerfile",
}

const manifestPath = "graph.json"

// Manifest is the graph.json document describing the scaffolded project to
// external tooling: which graphs it exposes and where its environment lives.
type Manifest struct {
	Graphs       map[string]string `json:"graphs"`
	Env          string            `json:"env"`
	GoVersion    string            `json:"go_version"`
	Dependencies []string          `json:"dependencies"`
}

// Plan renders the complete file set for the project. It performs no I/O, so
// callers can inspect or print the skeleton before anything touches disk.
func Plan(p Project) ([]File, error) {
	p, err := p.withDefaults()
	if err != nil {
		return nil, err
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	files := make([]File, 0, len(outputs)+1)
	for name, path := range outputs {
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, name, p); err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}
		files = append(files, File{Path: path, Mode: fileMode(path), Body: buf.Bytes()})
	}

	manifest, err := renderManifest(p)
	if err != nil {
		return nil, err
	}
	files = append(files, manifest)

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Generator writes project skeletons to disk.
type Generator struct {
	logger *zap.Logger
}

// New constructs a Generator that logs each written file.
func New(logger *zap.Logger) *Generator {
	return &Generator{logger: logger}
}

// Run plans the project and writes it under root. Existing files abort the
// run with ErrExists unless opts.Force is set; with opts.DryRun nothing is
// written and the returned Result lists what would have been.
func (g *Generator) Run(root string, p Project, opts Options) (Result, error) {
	files, err := Plan(p)
	if err != nil {
		return Result{}, err
	}

	result := Result{Root: root, Files: make([]string, 0, len(files))}
	for _, f := range files {
		result.Files = append(result.Files, f.Path)
	}

	if opts.DryRun {
		for _, f := range files {
			g.logger.Info("planned file", zap.String("path", f.Path), zap.Int("bytes", len(f.Body)))
		}
		return result, nil
	}

	if !opts.Force {
		for _, f := range files {
			target := filepath.Join(root, filepath.FromSlash(f.Path))
			if _, err := os.Stat(target); err == nil {
				return Result{}, fmt.Errorf("%w: %s", ErrExists, target)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return Result{}, fmt.Errorf("stat %s: %w", target, err)
			}
		}
	}

	for _, f := range files {
		target := filepath.Join(root, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return Result{}, fmt.Errorf("create directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(target, f.Body, f.Mode); err != nil {
			return Result{}, fmt.Errorf("write %s: %w", f.Path, err)
		}
		g.logger.Info("wrote file", zap.String("path", f.Path), zap.Int("bytes", len(f.Body)))
	}

	return result, nil
}

func renderManifest(p Project) (File, error) {
	manifest := Manifest{
		Graphs:       map[string]string{"agent_v1": "./agent:CreateAgent"},
		Env:          ".env",
		GoVersion:    p.GoVersion,
		Dependencies: []string{"."},
	}
	body, err := json.MarshalIndent(manifest, "", "    ")
	if err != nil {
		return File{}, fmt.Errorf("render manifest: %w", err)
	}
	return File{Path: manifestPath, Mode: 0o644, Body: append(body, '\n')}, nil
}

// fileMode tightens permissions for the environment file, which is where API
// keys end up.
func fileMode(path string) fs.FileMode {
	if path == ".env" {
		return 0o600
	}
	return 0o644
}
