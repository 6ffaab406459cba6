package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/3rww/rainfall-api/services/api/timeutil"
)

// Upstream generations.
const (
	GenerationModern = "modern"
	GenerationLegacy = "legacy"
)

const (
	defaultPort    = 8080
	defaultDataDir = "data"
	defaultTimeout = 60 * time.Second

	modernGaugeURL = "http://web.3riverswetweather.org/trp:API.raingauge"
	modernPixelURL = "http://web.3riverswetweather.org/trp:API.pixel"
	legacyGaugeURL = "http://web.3riverswetweather.org/trp:Main.hist2_html;trp:,,/data"
	legacyPixelURL = "http://web.3riverswetweather.org/trp:Region.show_pixel_data_html;trp:,,/data"

	defaultUserID  = "guest"
	defaultPasswd  = "guest"
	defaultUserPtr = "00000000/00000000/00000000/01010002/54550802/44010828/01110084/AA9A71A2"
)

// Config holds environment-driven settings for the REST API.
type Config struct {
	Port        int    `validate:"min=1,max=65535"`
	Env         string `validate:"oneof=dev prod"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	DataDir     string `validate:"required"`
	DatabaseURL string
	Timezone    string `validate:"required"`
	Upstream    Upstream
}

// Upstream configures the rainfall provider.
type Upstream struct {
	Generation string        `validate:"oneof=modern legacy"`
	GaugeURL   string        `validate:"required,url"`
	PixelURL   string        `validate:"required,url"`
	UserID     string        `validate:"required_if=Generation legacy"`
	Passwd     string        `validate:"required_if=Generation legacy"`
	UserPtr    string        `validate:"required_if=Generation legacy"`
	Timeout    time.Duration `validate:"gt=0"`
	RPS        float64       `validate:"min=0"`
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:     defaultPort,
		Env:      "prod",
		LogLevel: "info",
		DataDir:  defaultDataDir,
		Timezone: timeutil.DefaultZone,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	if v := env("APP_ENV"); v != "" {
		cfg.Env = strings.ToLower(v)
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := env("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	cfg.DatabaseURL = env("DATABASE_URL")
	if v := env("LOCAL_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}

	up, err := LoadUpstream()
	if err != nil {
		return cfg, err
	}
	cfg.Upstream = up

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadUpstream reads the UPSTREAM_* variables. URLs default to the chosen
// generation's endpoints. The result is not validated.
func LoadUpstream() (Upstream, error) {
	up := Upstream{
		Generation: GenerationModern,
		UserID:     defaultUserID,
		Passwd:     defaultPasswd,
		UserPtr:    defaultUserPtr,
		Timeout:    defaultTimeout,
	}
	if v := env("UPSTREAM_GENERATION"); v != "" {
		up.Generation = strings.ToLower(v)
	}
	up.GaugeURL, up.PixelURL = modernGaugeURL, modernPixelURL
	if up.Generation == GenerationLegacy {
		up.GaugeURL, up.PixelURL = legacyGaugeURL, legacyPixelURL
	}
	if v := env("UPSTREAM_GAUGE_URL"); v != "" {
		up.GaugeURL = v
	}
	if v := env("UPSTREAM_PIXEL_URL"); v != "" {
		up.PixelURL = v
	}
	if v := env("UPSTREAM_USERID"); v != "" {
		up.UserID = v
	}
	if v := env("UPSTREAM_PASSWD"); v != "" {
		up.Passwd = v
	}
	if v := env("UPSTREAM_USERPTR"); v != "" {
		up.UserPtr = v
	}

	if v := env("UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return up, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
		}
		up.Timeout = d
	}
	if v := env("UPSTREAM_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return up, fmt.Errorf("invalid UPSTREAM_RPS: %w", err)
		}
		up.RPS = f
	}

	return up, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the timezone can be loaded.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return validationError(err)
	}
	if _, err := timeutil.LoadZone(c.Timezone); err != nil {
		return fmt.Errorf("invalid LOCAL_TIMEZONE: %w", err)
	}
	return nil
}

// Validate checks the upstream settings on their own.
func (u Upstream) Validate() error {
	if err := validate.Struct(u); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return fmt.Errorf("invalid config: %w", err)
}

// Location returns the configured local zone. Validate has already checked
// that it loads.
func (c Config) Location() *time.Location {
	loc, err := timeutil.LoadZone(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
