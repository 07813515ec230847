// Package application provides application initialization and dependency
// wiring for the development server: it resolves configuration, builds the
// handler, router, and HTTP server, and coordinates configuration reloads by
// swapping an immutable Resolved handle. This keeps the main package focused
// on CLI parsing and signal handling.
package application
