package config

import (
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"PORT", "API_PORT", "APP_ENV", "LOG_LEVEL", "DATA_DIR", "DATABASE_URL", "LOCAL_TIMEZONE",
	"UPSTREAM_GENERATION", "UPSTREAM_GAUGE_URL", "UPSTREAM_PIXEL_URL", "UPSTREAM_USERID",
	"UPSTREAM_PASSWD", "UPSTREAM_USERPTR", "UPSTREAM_TIMEOUT", "UPSTREAM_RPS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8080 || cfg.ListenAddr() != ":8080" {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.Upstream.Generation != GenerationModern || cfg.Upstream.GaugeURL != modernGaugeURL {
		t.Errorf("upstream = %+v", cfg.Upstream)
	}
	if cfg.Upstream.Timeout != defaultTimeout {
		t.Errorf("timeout = %v", cfg.Upstream.Timeout)
	}
	if cfg.Location().String() != "America/New_York" {
		t.Errorf("location = %v", cfg.Location())
	}
}

func TestLoadLegacy(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPSTREAM_GENERATION", "Legacy")
	t.Setenv("UPSTREAM_PIXEL_URL", "http://localhost:9000/pixels")
	t.Setenv("UPSTREAM_TIMEOUT", "5s")
	t.Setenv("UPSTREAM_RPS", "2.5")
	t.Setenv("API_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	up := cfg.Upstream
	if up.Generation != GenerationLegacy || up.GaugeURL != legacyGaugeURL {
		t.Errorf("gauge url = %q", up.GaugeURL)
	}
	if up.PixelURL != "http://localhost:9000/pixels" {
		t.Errorf("pixel url = %q", up.PixelURL)
	}
	if up.Timeout != 5*time.Second || up.RPS != 2.5 || cfg.Port != 9090 {
		t.Errorf("cfg = %+v", cfg)
	}
	if up.UserID != "guest" || up.UserPtr == "" {
		t.Errorf("credentials = %q %q", up.UserID, up.UserPtr)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"PORT", "abc", "invalid PORT"},
		{"UPSTREAM_TIMEOUT", "soon", "invalid UPSTREAM_TIMEOUT"},
		{"UPSTREAM_RPS", "fast", "invalid UPSTREAM_RPS"},
		{"UPSTREAM_GENERATION", "v3", "Generation"},
		{"APP_ENV", "staging", "Env"},
		{"LOG_LEVEL", "trace", "LogLevel"},
		{"UPSTREAM_GAUGE_URL", "not a url", "GaugeURL"},
		{"LOCAL_TIMEZONE", "Mars/Olympus", "LOCAL_TIMEZONE"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestValidateLegacyCredentials(t *testing.T) {
	cfg := Config{
		Port: 8080, Env: "dev", LogLevel: "info", DataDir: "data", Timezone: "UTC",
		Upstream: Upstream{
			Generation: GenerationLegacy,
			GaugeURL:   legacyGaugeURL,
			PixelURL:   legacyPixelURL,
			Timeout:    time.Second,
		},
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "UserID") {
		t.Errorf("Validate() error = %v, want missing UserID", err)
	}

	cfg.Upstream.Generation = GenerationModern
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() modern without credentials error = %v", err)
	}
}

func TestLoadUpstreamOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPSTREAM_GENERATION", "Legacy")
	t.Setenv("UPSTREAM_PIXEL_URL", "http://localhost:9000/pixel")
	t.Setenv("UPSTREAM_RPS", "2.5")

	up, err := LoadUpstream()
	if err != nil {
		t.Fatalf("LoadUpstream() error = %v", err)
	}
	if up.Generation != GenerationLegacy || up.GaugeURL != legacyGaugeURL {
		t.Errorf("generation/gauge url = %q %q", up.Generation, up.GaugeURL)
	}
	if up.PixelURL != "http://localhost:9000/pixel" || up.RPS != 2.5 {
		t.Errorf("upstream = %+v", up)
	}
	if err := up.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	up.Timeout = 0
	if err := up.Validate(); err == nil || !strings.Contains(err.Error(), "Timeout") {
		t.Errorf("Validate() error = %v, want Timeout failure", err)
	}
}
