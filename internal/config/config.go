package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN string
}

type AuthConfig struct {
	AccessSecret string
	SessionTTL   time.Duration
}

type CeibaConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AnalyticsConfig struct {
	TopologyCacheTTL   time.Duration
	MaxRangeDays       int
	RollingWindowDays  int
	MileageToleranceKm float64
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Ceiba       CeibaConfig
	Analytics   AnalyticsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN: v.GetString("DB_DSN"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
			SessionTTL:   time.Duration(v.GetInt("SESSION_TTL_MINUTES")) * time.Minute,
		},
		Ceiba: CeibaConfig{
			BaseURL: v.GetString("CEIBA_BASE_URL"),
			Timeout: time.Duration(v.GetInt("CEIBA_TIMEOUT_SECONDS")) * time.Second,
		},
		Analytics: AnalyticsConfig{
			TopologyCacheTTL:   time.Duration(v.GetInt("TOPOLOGY_CACHE_TTL_SECONDS")) * time.Second,
			MaxRangeDays:       v.GetInt("ANALYTICS_MAX_RANGE_DAYS"),
			RollingWindowDays:  v.GetInt("ANALYTICS_ROLLING_WINDOW_DAYS"),
			MileageToleranceKm: v.GetFloat64("ANALYTICS_MILEAGE_TOLERANCE_KM"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Auth.SessionTTL <= 0 {
		cfg.Auth.SessionTTL = 12 * time.Hour
	}
	if cfg.Ceiba.Timeout <= 0 {
		cfg.Ceiba.Timeout = 20 * time.Second
	}
	if cfg.Analytics.TopologyCacheTTL <= 0 {
		cfg.Analytics.TopologyCacheTTL = 5 * time.Minute
	}
	if cfg.Analytics.MaxRangeDays <= 0 {
		cfg.Analytics.MaxRangeDays = 90
	}
	if cfg.Analytics.RollingWindowDays <= 0 {
		cfg.Analytics.RollingWindowDays = 30
	}
	if cfg.Analytics.MileageToleranceKm <= 0 {
		cfg.Analytics.MileageToleranceKm = 30
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Ceiba.BaseURL == "" {
		return fmt.Errorf("CEIBA_BASE_URL is required")
	}
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	return nil
}
