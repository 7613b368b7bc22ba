package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.CacheLifetime != 5*time.Minute {
		t.Errorf("CacheLifetime = %v, want 5m", cfg.CacheLifetime)
	}
	if cfg.DistanceThresholdMeters != 500 {
		t.Errorf("DistanceThresholdMeters = %v, want 500", cfg.DistanceThresholdMeters)
	}
	if cfg.QuotaDefault != 5 || cfg.QuotaWindow != time.Hour {
		t.Errorf("quota = %d per %v, want 5 per 1h", cfg.QuotaDefault, cfg.QuotaWindow)
	}
	if cfg.DailyItemsPerPage != 14 || cfg.HourlyDaysPerPage != 3 || cfg.HourlyItemsPerDay != 8 || cfg.MultiHeightItemsPerPage != 3 {
		t.Errorf("unexpected page sizes: %+v", cfg)
	}
	if cfg.OpenWeatherMapToken != "" {
		t.Errorf("OpenWeatherMapToken = %q, want empty by default", cfg.OpenWeatherMapToken)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yml := `
server:
  port: "9090"
weather:
  cache_lifetime: 2m
  distance_threshold_meters: 250
  quota_default: 10
  quota_overrides:
    "42": 100
providers:
  openweathermap:
    token: from-file
`
	if err := os.WriteFile(filepath.Join(dir, "config", "dev.yaml"), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	t.Setenv("OPENWEATHERMAP_TOKEN", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.CacheLifetime != 2*time.Minute || cfg.DistanceThresholdMeters != 250 {
		t.Errorf("cache settings = %v / %v", cfg.CacheLifetime, cfg.DistanceThresholdMeters)
	}
	if cfg.QuotaOverrides[42] != 100 {
		t.Errorf("QuotaOverrides[42] = %d, want 100", cfg.QuotaOverrides[42])
	}
	// Env wins over file.
	if cfg.OpenWeatherMapToken != "from-env" {
		t.Errorf("OpenWeatherMapToken = %q, want from-env", cfg.OpenWeatherMapToken)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "negative lifetime", mutate: func(c *Config) { c.CacheLifetime = -time.Second }},
		{name: "zero quota", mutate: func(c *Config) { c.QuotaDefault = 0 }},
		{name: "hourly items out of range", mutate: func(c *Config) { c.HourlyItemsPerDay = 25 }},
		{name: "zero daily page", mutate: func(c *Config) { c.DailyItemsPerPage = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				CacheLifetime:           5 * time.Minute,
				DistanceThresholdMeters: 500,
				QuotaDefault:            5,
				QuotaWindow:             time.Hour,
				DailyItemsPerPage:       14,
				HourlyDaysPerPage:       3,
				HourlyItemsPerDay:       8,
				MultiHeightItemsPerPage: 3,
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}
