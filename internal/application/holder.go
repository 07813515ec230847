package application

import (
	"sync"

	"github.com/mstepanov/graphsmith/internal/config"
)

// ConfigHolder guards the current Resolved handle with a RWMutex. The
// resolver never mutates a Resolved in place, so readers share the handle
// freely; a reload replaces it under a single assignment.
type ConfigHolder struct {
	mu      sync.RWMutex
	current *config.Resolved
}

// NewConfigHolder initialises the holder with the boot-time configuration.
func NewConfigHolder(cfg *config.Resolved) *ConfigHolder {
	return &ConfigHolder{current: cfg}
}

// Current returns the configuration handle in effect right now.
func (h *ConfigHolder) Current() *config.Resolved {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Swap installs a freshly resolved configuration and returns the previous
// handle, which stays valid for any caller still reading through it.
func (h *ConfigHolder) Swap(cfg *config.Resolved) *config.Resolved {
	h.mu.Lock()
	previous := h.current
	h.current = cfg
	h.mu.Unlock()
	return previous
}
