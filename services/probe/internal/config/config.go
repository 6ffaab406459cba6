package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apiconfig "github.com/3rww/rainfall-api/services/api/config"
	"github.com/3rww/rainfall-api/services/api/ids"
	"github.com/3rww/rainfall-api/services/api/pivot"
	"github.com/3rww/rainfall-api/services/api/teragon"
	"github.com/3rww/rainfall-api/services/api/timeutil"
)

const (
	defaultKind       = teragon.Pixels
	defaultDates      = "2004-09-17T03:00/2004-09-18T00:00"
	defaultPixelsFile = "data/grid_centroids.csv"
)

// Config holds runtime configuration for the probe.
type Config struct {
	Upstream   apiconfig.Upstream
	Kind       teragon.Kind
	IDs        []string
	PixelsFile string
	Dates      string
	Interval   teragon.Interval
	Zerofill   bool
	KeyedBy    pivot.KeyedBy
	Timezone   string
	LogLevel   string
	PrintJSON  bool
	DryRun     bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{}

	up, err := apiconfig.LoadUpstream()
	if err != nil {
		return cfg, err
	}
	if v := env("PROBE_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PROBE_REQUEST_TIMEOUT: %w", err)
		}
		up.Timeout = d
	}
	if err := up.Validate(); err != nil {
		return cfg, err
	}
	cfg.Upstream = up

	cfg.Kind = defaultKind
	if v := env("PROBE_KIND"); v != "" {
		switch k := teragon.Kind(strings.ToLower(v)); k {
		case teragon.Gauges, teragon.Pixels:
			cfg.Kind = k
		default:
			return cfg, fmt.Errorf("invalid PROBE_KIND: %s", v)
		}
	}

	cfg.IDs = ids.SplitList(os.Getenv("PROBE_IDS"))
	cfg.PixelsFile = env("PROBE_PIXELS_FILE")
	if cfg.PixelsFile == "" {
		cfg.PixelsFile = defaultPixelsFile
	}

	cfg.Dates = env("PROBE_DATES")
	if cfg.Dates == "" {
		cfg.Dates = defaultDates
	}
	cfg.Interval = teragon.ParseInterval(env("PROBE_INTERVAL"))
	cfg.Zerofill = flag(env("PROBE_ZEROFILL"))
	cfg.KeyedBy = pivot.ParseKeyedBy(env("PROBE_KEYED_BY"))

	cfg.Timezone = env("LOCAL_TIMEZONE")
	if cfg.Timezone == "" {
		cfg.Timezone = timeutil.DefaultZone
	}
	if _, err := timeutil.LoadZone(cfg.Timezone); err != nil {
		return cfg, fmt.Errorf("invalid LOCAL_TIMEZONE: %w", err)
	}

	cfg.LogLevel = strings.ToLower(env("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.PrintJSON = flag(env("PROBE_PRINT_JSON"))
	cfg.DryRun = flag(env("DRY_RUN"))

	return cfg, nil
}

// Location returns the configured local zone.
func (c Config) Location() *time.Location {
	loc, err := timeutil.LoadZone(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func flag(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
