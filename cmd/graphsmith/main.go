package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mstepanov/graphsmith/internal/application"
	"github.com/mstepanov/graphsmith/internal/config"
	"github.com/mstepanov/graphsmith/internal/logging"
	"github.com/mstepanov/graphsmith/internal/scaffold"
)

var signalNotify = signal.Notify

func main() {
	app := kingpin.New("graphsmith", "Scaffolds graph-agent services and serves their resolved configuration")

	initCmd := app.Command("init", "Generate a project skeleton")
	initName := initCmd.Arg("name", "Project name").Required().String()
	initDir := initCmd.Flag("dir", "Target directory (defaults to the project name)").String()
	initModule := initCmd.Flag("module", "Go module path for the generated project").String()
	initPort := initCmd.Flag("port", "HTTP port baked into the skeleton").String()
	initModel := initCmd.Flag("model", "Default model identifier").String()
	initFallback := initCmd.Flag("fallback-model", "Fallback model identifier").String()
	initForce := initCmd.Flag("force", "Overwrite files that already exist").Bool()
	initDryRun := initCmd.Flag("dry-run", "Print the plan without writing anything").Bool()

	serveCmd := app.Command("serve", "Run the development API server")
	serveConfig := serveCmd.Flag("config", "Path to YAML configuration file").Default("config.yaml").String()
	servePort := serveCmd.Flag("port", "Override the configured HTTP port").String()

	configCmd := app.Command("config", "Inspect resolved configuration")
	getCmd := configCmd.Command("get", "Print a resolved configuration value")
	getConfig := getCmd.Flag("config", "Path to YAML configuration file").Default("config.yaml").String()
	getSource := getCmd.Flag("source", "Also print where the value came from").Bool()
	getKey := getCmd.Arg("key", "Dotted key path, e.g. models.default").Required().String()

	var err error
	switch kingpin.MustParse(app.Parse(os.Args[1:])) {
	case initCmd.FullCommand():
		err = runInit(*initDir, scaffold.Project{
			Name:          *initName,
			Module:        *initModule,
			Port:          *initPort,
			DefaultModel:  *initModel,
			FallbackModel: *initFallback,
		}, *initForce, *initDryRun)
	case serveCmd.FullCommand():
		err = runServe(*serveConfig, *servePort)
	case getCmd.FullCommand():
		err = runConfigGet(*getConfig, *getKey, *getSource)
	}
	if err != nil {
		app.Fatalf("%v", err)
	}
}

func runInit(dir string, project scaffold.Project, force, dryRun bool) error {
	logger, err := logging.New("info", "")
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if dir == "" {
		dir = project.Name
	}

	gen := scaffold.New(logger)
	result, err := gen.Run(dir, project, scaffold.Options{Force: force, DryRun: dryRun})
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Printf("Would create %d files under %s:\n", len(result.Files), dir)
	} else {
		fmt.Printf("Created %d files under %s:\n", len(result.Files), dir)
	}
	for _, file := range result.Files {
		fmt.Printf("  %s\n", file)
	}
	if !dryRun {
		fmt.Println("Run 'go mod tidy' inside the project to finish setup.")
	}
	return nil
}

func runServe(configPath, portOverride string) error {
	resolver := &config.Resolver{Overrides: config.DefaultOverrides()}
	cfg, err := resolver.Resolve(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if portOverride != "" {
		// The --port flag rides the same allow-list mechanism as PORT.
		cfg, err = resolver.ApplyOverrides(cfg, map[string]string{"PORT": portOverride})
		if err != nil {
			return fmt.Errorf("apply port override: %w", err)
		}
	}

	logger, err := logging.New(cfg.String("logging.level", "info"), cfg.String("logging.file", ""))
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(resolver, configPath, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	if err := app.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	waitForSignals(app, logger)
	return nil
}

func runConfigGet(configPath, key string, showSource bool) error {
	resolver := &config.Resolver{Overrides: config.DefaultOverrides()}
	cfg, err := resolver.Resolve(configPath)
	if err != nil {
		return err
	}

	value, err := cfg.Value(key)
	if err != nil {
		return err
	}

	switch value.(type) {
	case map[string]any, []any, []string:
		out, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode value: %w", err)
		}
		fmt.Print(string(out))
	default:
		fmt.Printf("%v\n", value)
	}

	if showSource {
		fmt.Printf("source: %s\n", cfg.Source(key))
	}
	return nil
}

// waitForSignals blocks until a termination signal arrives. SIGHUP triggers
// a configuration reload instead of terminating.
func waitForSignals(app *application.App, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range quit {
		if sig == syscall.SIGHUP {
			if err := app.Reload(); err != nil {
				logger.Warn("configuration reload failed", zap.Error(err))
			}
			continue
		}
		break
	}

	shutdown(app.Server(), app.ShutdownGracePeriod(), logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
