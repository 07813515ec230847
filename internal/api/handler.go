package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mstepanov/graphsmith/internal/config"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// ConfigSource yields the current resolved configuration. The development
// server reads through it so that a reload swap is picked up by the next
// request without restarting.
type ConfigSource interface {
	Current() *config.Resolved
}

// Handler exposes the development API over a scaffolded project's resolved
// configuration.
type Handler struct {
	configs ConfigSource

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler reading configuration from configs.
func NewHandler(configs ConfigSource, opts ...HandlerOption) *Handler {
	h := &Handler{
		configs: configs,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	_ = r
	cfg := h.configs.Current()

	keys := cfg.Keys()
	entries := make([]configEntry, 0, len(keys))
	for _, key := range keys {
		value, err := cfg.Value(key)
		if err != nil {
			writeInternalError(w, err)
			return
		}
		entries = append(entries, configEntry{
			Key:    key,
			Value:  maskSecret(key, value),
			Source: string(cfg.Source(key)),
		})
	}

	writeJSON(w, http.StatusOK, configResponse{Entries: entries, Count: len(entries)})
}

func (h *Handler) handleGetConfigKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	cfg := h.configs.Current()

	value, err := cfg.Value(key)
	if err != nil {
		if errors.Is(err, config.ErrMissingKey) {
			writeError(w, http.StatusNotFound, "Unknown key", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	resp := configEntry{
		Key:    key,
		Value:  maskSecret(key, value),
		Source: string(cfg.Source(key)),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "query must not be empty")
		return
	}

	cfg := h.configs.Current()
	resp := queryResponse{
		Status: "success",
		// The scaffolded agent graph replaces this echo once the user wires
		// it in; the development server only proves the plumbing.
		Response: "Processed query: " + req.Query,
		Model:    cfg.String("models.default", ""),
	}
	writeJSON(w, http.StatusOK, resp)
}

// maskSecret hides values whose key smells like credential material.
func maskSecret(keyPath string, value any) any {
	segment := keyPath
	if i := strings.LastIndex(keyPath, "."); i >= 0 {
		segment = keyPath[i+1:]
	}
	segment = strings.ToLower(segment)
	for _, marker := range []string{"key", "secret", "token", "password"} {
		if strings.Contains(segment, marker) {
			return "[redacted]"
		}
	}
	return value
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type queryRequest struct {
	Query   string         `json:"query"`
	Context map[string]any `json:"context,omitempty"`
}

type queryResponse struct {
	Status   string `json:"status"`
	Response string `json:"response"`
	Model    string `json:"model,omitempty"`
}

type configEntry struct {
	Key    string `json:"key"`
	Value  any    `json:"value"`
	Source string `json:"source"`
}

type configResponse struct {
	Entries []configEntry `json:"entries"`
	Count   int           `json:"count"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
