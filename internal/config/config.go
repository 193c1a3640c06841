package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL    string   `mapstructure:"REDIS_URL"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	JWTSigningKey string `mapstructure:"JWT_SIGNING_KEY"`
	JWTIssuer     string `mapstructure:"JWT_ISSUER"`
	JWTAudience   string `mapstructure:"JWT_AUDIENCE"`

	// Calendar grid knobs. Hours are local clock hours; the grid spans
	// [GridDayStartHour, GridDayEndHour).
	GridDayStartHour int    `mapstructure:"GRID_DAY_START_HOUR"`
	GridDayEndHour   int    `mapstructure:"GRID_DAY_END_HOUR"`
	WeekStartsOn     string `mapstructure:"WEEK_STARTS_ON"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("JWT_ISSUER", "clinidesk")
	v.SetDefault("JWT_AUDIENCE", "clinidesk-api")
	v.SetDefault("GRID_DAY_START_HOUR", 8)
	v.SetDefault("GRID_DAY_END_HOUR", 18)
	v.SetDefault("WEEK_STARTS_ON", "monday")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("JWT_SIGNING_KEY")
	v.BindEnv("JWT_ISSUER")
	v.BindEnv("JWT_AUDIENCE")
	v.BindEnv("GRID_DAY_START_HOUR")
	v.BindEnv("GRID_DAY_END_HOUR")
	v.BindEnv("WEEK_STARTS_ON")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Production
// requires a real signing key; the grid must describe a non-empty day.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() && c.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY is required in production")
	}
	if c.JWTSigningKey != "" && len(c.JWTSigningKey) < 32 {
		return fmt.Errorf("JWT_SIGNING_KEY must be at least 32 characters, got %d", len(c.JWTSigningKey))
	}

	if c.GridDayStartHour < 0 || c.GridDayStartHour > 23 {
		return fmt.Errorf("GRID_DAY_START_HOUR must be between 0 and 23, got %d", c.GridDayStartHour)
	}
	if c.GridDayEndHour < 1 || c.GridDayEndHour > 24 {
		return fmt.Errorf("GRID_DAY_END_HOUR must be between 1 and 24, got %d", c.GridDayEndHour)
	}
	if c.GridDayEndHour <= c.GridDayStartHour {
		return fmt.Errorf("GRID_DAY_END_HOUR (%d) must be after GRID_DAY_START_HOUR (%d)",
			c.GridDayEndHour, c.GridDayStartHour)
	}

	switch strings.ToLower(c.WeekStartsOn) {
	case "monday", "sunday":
	default:
		return fmt.Errorf("WEEK_STARTS_ON must be \"monday\" or \"sunday\", got %q", c.WeekStartsOn)
	}

	return nil
}
