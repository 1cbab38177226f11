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

	"github.com/eugenenazirov/ovn-options/internal/application"
	"github.com/eugenenazirov/ovn-options/internal/config"
	"github.com/eugenenazirov/ovn-options/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("ovn-options", "OVN chassis options service - validates and resolves deployment options")
	flags := registerFlags(kingpinApp)
	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	cfg, err := config.Load(flags.overrides())
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

type cliFlags struct {
	configFile     *string
	port           *string
	schemaFile     *string
	options        *map[string]string
	rateLimitRPS   *float64
	rateLimitBurst *int
	logLevel       *string
}

func registerFlags(app *kingpin.Application) *cliFlags {
	return &cliFlags{
		configFile:     app.Flag("config", "Path to YAML configuration file").String(),
		port:           app.Flag("port", "HTTP port exposed by the service").String(),
		schemaFile:     app.Flag("schema", "Path to an option schema replacing the embedded one").String(),
		options:        app.Flag("set", "Initial option override as name=value (repeatable)").StringMap(),
		rateLimitRPS:   app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64(),
		rateLimitBurst: app.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int(),
		logLevel:       app.Flag("log-level", "Log level (debug, info, warn, error)").String(),
	}
}

func (f *cliFlags) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile: *f.configFile,
		Options:    *f.options,
	}

	if *f.port != "" {
		overrides.Port = f.port
	}

	if *f.schemaFile != "" {
		overrides.SchemaFile = f.schemaFile
	}

	if *f.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = f.rateLimitRPS
	}

	if *f.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = f.rateLimitBurst
	}

	if *f.logLevel != "" {
		overrides.LogLevel = f.logLevel
	}

	return overrides
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
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
