// Package scaffold generates the file skeleton of a graph-agent service:
// agent stubs, a YAML configuration, an environment file, a graph manifest,
// a server entry point, and a Dockerfile. Planning is pure; writing to disk
// refuses to clobber existing files unless forced.
package scaffold
