package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/ovn-options/internal/api"
	"github.com/eugenenazirov/ovn-options/internal/config"
	"github.com/eugenenazirov/ovn-options/internal/schema"
	"github.com/eugenenazirov/ovn-options/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	definitions schema.Definitions
	storage     storage.Storage
	handler     *api.Handler
	router      http.Handler
	logger      *zap.Logger
	server      *http.Server
}

// New initializes the application with all dependencies from the provided
// configuration. A malformed schema or invalid initial overrides are returned
// as errors; the caller is expected to abort startup.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	defs, err := loadDefinitions(cfg.SchemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load option schema: %w", err)
	}
	logger.Info("option schema loaded",
		zap.String("source", schemaSource(cfg.SchemaFile)),
		zap.Strings("options", defs.Names()),
	)

	store, err := storage.NewMemoryStorage(defs, cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to apply initial options: %w", err)
	}

	handler := api.NewHandler(store, api.WithHandlerLogger(logger))
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		definitions: defs,
		storage:     store,
		handler:     handler,
		router:      apiRouter,
		logger:      logger,
		server:      NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// BuildRootHandler mounts the API under /api/ and answers everything else with 404.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
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

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Definitions returns the option definitions loaded at startup.
func (a *App) Definitions() schema.Definitions {
	return a.definitions
}

func loadDefinitions(path string) (schema.Definitions, error) {
	if path == "" {
		return schema.Load()
	}
	return schema.LoadFile(path)
}

func schemaSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
