package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loopstate/core/internal/api"
	"github.com/loopstate/core/internal/health"
	_ "github.com/loopstate/core/internal/infra/metrics" // Register Prometheus metrics
	"github.com/loopstate/core/internal/infra/sqlite"
)

// Daemon is the loopstate runtime. It wires together the store, the health
// checker, and the HTTP API server.
type Daemon struct {
	Config Config
	DB     *sqlite.DB
	Health *health.Checker
	Server *api.Server
	cancel context.CancelFunc
}

// New creates and initializes a Daemon with all services wired, loading
// configuration from $LOOPSTATE_HOME/config.toml.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	dataDir := cfg.Store.DataDir
	if dataDir == "" {
		dataDir = loopstateHome()
	}

	db, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	checker := health.NewChecker(db, dataDir)

	srv := api.NewServer(db, checker)
	if cfg.Server.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config: cfg,
		DB:     db,
		Health: checker,
		Server: srv,
	}, nil
}

// Serve starts the HTTP server and the background health checker, and
// blocks until the context is cancelled or a termination signal arrives.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.Server.Host, d.Config.Server.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[daemon] shutdown error: %v", err)
		}
		_ = d.DB.Close()
	}()

	fmt.Printf("loopstate serving on http://%s\n", addr)
	if d.Config.Server.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources without waiting for a signal.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
