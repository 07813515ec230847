package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mstepanov/graphsmith/internal/api"
	"github.com/mstepanov/graphsmith/internal/config"
)

const defaultShutdownGracePeriod = 10 * time.Second

// App encapsulates the development server's dependencies and HTTP server.
type App struct {
	resolver   *config.Resolver
	configPath string
	configs    *ConfigHolder
	handler    *api.Handler
	router     http.Handler
	logger     *zap.Logger
	server     *http.Server
}

// New wires the application from an already resolved configuration. The
// resolver and path are retained so that Reload can re-resolve later.
func New(resolver *config.Resolver, configPath string, cfg *config.Resolved, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("resolved configuration is required")
	}

	configs := NewConfigHolder(cfg)
	handler := api.NewHandler(configs)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.Bool("server.enable_request_logging", true)),
		api.WithRateLimit(
			cfg.Float("server.rate_limit_rps", 25),
			cfg.Int("server.rate_limit_burst", 50),
		),
	)

	return &App{
		resolver:   resolver,
		configPath: configPath,
		configs:    configs,
		handler:    handler,
		router:     router,
		logger:     logger,
		server:     NewServer(cfg, BuildRootHandler(router)),
	}, nil
}

// BuildRootHandler mounts the API router and a JSON banner on the root path.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"graphsmith development API is running"}` + "\n"))
	}))
	return mux
}

// NewServer creates an HTTP server whose address and timeouts come from the
// server section of the resolved configuration.
func NewServer(cfg *config.Resolved, handler http.Handler) *http.Server {
	addr := cfg.String("server.port", "8080")
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Duration("server.read_header_timeout", 5*time.Second),
		WriteTimeout:      cfg.Duration("server.write_timeout", 15*time.Second),
		IdleTimeout:       cfg.Duration("server.idle_timeout", 60*time.Second),
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Reload re-resolves the configuration from disk plus the current environment
// and swaps it in. In-flight requests keep the handle they already read; only
// subsequent requests observe the new values. Listener address changes
// require a restart and are logged, not applied.
func (a *App) Reload() error {
	cfg, err := a.resolver.Reload(a.configPath)
	if err != nil {
		return fmt.Errorf("reload configuration: %w", err)
	}

	previous := a.configs.Swap(cfg)
	if prev := previous.String("server.port", "8080"); prev != cfg.String("server.port", "8080") {
		a.logger.Warn("server.port changed; restart required for the new listener address",
			zap.String("active", prev),
			zap.String("configured", cfg.String("server.port", "8080")),
		)
	}
	a.logger.Info("configuration reloaded", zap.Int("keys", len(cfg.Keys())))
	return nil
}

// Config returns the holder carrying the current configuration.
func (a *App) Config() *ConfigHolder {
	return a.configs
}

// ShutdownGracePeriod reads the configured grace period for Shutdown.
func (a *App) ShutdownGracePeriod() time.Duration {
	return a.configs.Current().Duration("server.shutdown_grace_period", defaultShutdownGracePeriod)
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
