package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/3rww/rainfall-api/services/api/config"
	"github.com/3rww/rainfall-api/services/api/db"
	httpserver "github.com/3rww/rainfall-api/services/api/http"
	"github.com/3rww/rainfall-api/services/api/logging"
	"github.com/3rww/rainfall-api/services/api/rainfall"
	"github.com/3rww/rainfall-api/services/api/reference"
	"github.com/3rww/rainfall-api/services/api/teragon"
)

const appName = "rainfall-api"

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Env, cfg.LogLevel, version, appName)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lookup, err := loadReference(ctx, cfg, logger)
	if err != nil {
		logger.Error("reference data", "err", err)
		os.Exit(1)
	}

	adapter := teragon.NewAdapter(
		cfg.Upstream.Generation,
		teragon.Endpoints{Gauges: cfg.Upstream.GaugeURL, Pixels: cfg.Upstream.PixelURL},
		teragon.Credentials{UserID: cfg.Upstream.UserID, Passwd: cfg.Upstream.Passwd, UserPtr: cfg.Upstream.UserPtr},
		cfg.Location(),
	)
	client := teragon.NewClient(adapter, teragon.ClientConfig{Timeout: cfg.Upstream.Timeout, RPS: cfg.Upstream.RPS}, logger)
	svc := rainfall.NewService(client, lookup, cfg.Location(), logger)

	srv := httpserver.New(cfg, svc, logger)
	logger.Info("REST API listening",
		"addr", cfg.ListenAddr(),
		"upstream", adapter.Name(),
		"pixels", len(lookup.Pixels()),
		"basins", len(lookup.BasinNames()),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

// loadReference reads the basin lookup and pixel list from Postgres when
// DATABASE_URL is set, otherwise from DATA_DIR. Grid GeoJSON always comes
// from DATA_DIR.
func loadReference(ctx context.Context, cfg config.Config, logger *slog.Logger) (*reference.Lookup, error) {
	var lookup *reference.Lookup
	if cfg.DatabaseURL == "" {
		l, err := reference.LoadDir(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		lookup = l
	} else {
		grids, err := reference.LoadGrids(cfg.DataDir)
		if err != nil {
			return nil, err
		}

		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		store, err := db.New(dbCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connection: %w", err)
		}
		defer store.Close()

		lookup, err = store.LoadLookup(dbCtx, grids)
		if err != nil {
			return nil, err
		}
		logger.Info("reference data loaded from database")
	}

	if err := lookup.Validate(); err != nil {
		return nil, err
	}
	return lookup, nil
}
