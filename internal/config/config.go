package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	// Fetch cache and quota window.
	CacheLifetime           time.Duration
	DistanceThresholdMeters float64
	QuotaDefault            int
	QuotaWindow             time.Duration
	QuotaOverrides          map[int64]int

	// Formatting.
	DailyItemsPerPage       int
	HourlyDaysPerPage       int
	HourlyItemsPerDay       int
	MultiHeightItemsPerPage int

	// Providers. Open-Meteo needs no token; the others are optional and their
	// report kinds are unavailable when unset.
	OpenMeteoURL        string
	OpenWeatherMapURL   string
	OpenWeatherMapToken string
	AccuWeatherURL      string
	AccuWeatherToken    string
	ProviderTimeout     time.Duration

	// Storage. Empty DSN selects the in-memory store.
	PostgresDSN string

	RateLimitRPS   int
	RateLimitBurst int

	// Identical concurrent fetches wait on one upstream call up to this long.
	// Zero disables coalescing.
	CoalesceTimeout time.Duration

	ShutdownTimeout time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Weather struct {
		CacheLifetime           string         `yaml:"cache_lifetime"`
		DistanceThresholdMeters float64        `yaml:"distance_threshold_meters"`
		QuotaDefault            int            `yaml:"quota_default"`
		QuotaWindow             string         `yaml:"quota_window"`
		QuotaOverrides          map[string]int `yaml:"quota_overrides"`
		DailyItemsPerPage       int            `yaml:"daily_items_per_page"`
		HourlyDaysPerPage       int            `yaml:"hourly_days_per_page"`
		HourlyItemsPerDay       int            `yaml:"hourly_items_per_day"`
		MultiHeightItemsPerPage int            `yaml:"multi_height_items_per_page"`
	} `yaml:"weather"`

	Providers struct {
		Timeout   string `yaml:"timeout"`
		OpenMeteo struct {
			URL string `yaml:"url"`
		} `yaml:"open_meteo"`
		OpenWeatherMap struct {
			URL   string `yaml:"url"`
			Token string `yaml:"token"`
		} `yaml:"openweathermap"`
		AccuWeather struct {
			URL   string `yaml:"url"`
			Token string `yaml:"token"`
		} `yaml:"accuweather"`
	} `yaml:"providers"`

	Storage struct {
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"storage"`

	Reliability struct {
		RateLimitRPS    int    `yaml:"rate_limit_rps"`
		RateLimitBurst  int    `yaml:"rate_limit_burst"`
		CoalesceTimeout string `yaml:"coalesce_timeout"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) relative
// to the working directory, then applies env overrides. A missing config file
// is not an error; defaults apply.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	var fc fileConfig

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("PORT"), fc.Server.Port, "8080")

	cfg.CacheLifetime = parseDuration(fc.Weather.CacheLifetime, 5*time.Minute)
	cfg.DistanceThresholdMeters = fc.Weather.DistanceThresholdMeters
	if cfg.DistanceThresholdMeters == 0 {
		cfg.DistanceThresholdMeters = 500
	}
	cfg.QuotaDefault = fc.Weather.QuotaDefault
	if cfg.QuotaDefault == 0 {
		cfg.QuotaDefault = 5
	}
	cfg.QuotaWindow = parseDuration(fc.Weather.QuotaWindow, time.Hour)
	cfg.QuotaOverrides = make(map[int64]int, len(fc.Weather.QuotaOverrides))
	for user, quota := range fc.Weather.QuotaOverrides {
		id, err := strconv.ParseInt(user, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("quota_overrides: bad user id %q", user)
		}
		cfg.QuotaOverrides[id] = quota
	}

	cfg.DailyItemsPerPage = defaultInt(fc.Weather.DailyItemsPerPage, 14)
	cfg.HourlyDaysPerPage = defaultInt(fc.Weather.HourlyDaysPerPage, 3)
	cfg.HourlyItemsPerDay = defaultInt(fc.Weather.HourlyItemsPerDay, 8)
	cfg.MultiHeightItemsPerPage = defaultInt(fc.Weather.MultiHeightItemsPerPage, 3)

	cfg.ProviderTimeout = parseDuration(fc.Providers.Timeout, 10*time.Second)
	cfg.OpenMeteoURL = firstNonEmpty(fc.Providers.OpenMeteo.URL, "https://api.open-meteo.com/v1/forecast")
	cfg.OpenWeatherMapURL = firstNonEmpty(fc.Providers.OpenWeatherMap.URL, "https://api.openweathermap.org/data/2.5")
	cfg.OpenWeatherMapToken = firstNonEmpty(os.Getenv("OPENWEATHERMAP_TOKEN"), fc.Providers.OpenWeatherMap.Token)
	cfg.AccuWeatherURL = firstNonEmpty(fc.Providers.AccuWeather.URL, "https://dataservice.accuweather.com")
	cfg.AccuWeatherToken = firstNonEmpty(os.Getenv("ACCUWEATHER_TOKEN"), fc.Providers.AccuWeather.Token)

	cfg.PostgresDSN = firstNonEmpty(os.Getenv("DATABASE_URL"), fc.Storage.PostgresDSN)

	cfg.RateLimitRPS = defaultInt(fc.Reliability.RateLimitRPS, 100)
	cfg.RateLimitBurst = defaultInt(fc.Reliability.RateLimitBurst, 20)
	cfg.CoalesceTimeout = parseDuration(fc.Reliability.CoalesceTimeout, 10*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 10*time.Second)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.CacheLifetime < 0 {
		return fmt.Errorf("cache_lifetime cannot be negative")
	}
	if c.DistanceThresholdMeters < 0 {
		return fmt.Errorf("distance_threshold_meters cannot be negative")
	}
	if c.QuotaDefault < 1 {
		return fmt.Errorf("quota_default must be positive")
	}
	if c.QuotaWindow <= 0 {
		return fmt.Errorf("quota_window must be positive")
	}
	if c.DailyItemsPerPage < 1 {
		return fmt.Errorf("daily_items_per_page must be positive")
	}
	if c.HourlyDaysPerPage < 1 {
		return fmt.Errorf("hourly_days_per_page must be positive")
	}
	if c.HourlyItemsPerDay < 1 || c.HourlyItemsPerDay > 24 {
		return fmt.Errorf("hourly_items_per_day must be between 1 and 24")
	}
	if c.MultiHeightItemsPerPage < 1 {
		return fmt.Errorf("multi_height_items_per_page must be positive")
	}
	return nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	if strings.TrimSpace(s) == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
