package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseDriver         string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventChannel           string
	JWTSecret              string
	PassThreshold          int
	CertificateMaxAttempts int
	LockTTL                time.Duration
	SubmitRateLimit        int
	SubmitRateWindow       time.Duration
	CORSAllowOrigins       string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	return load(true)
}

// LoadForTools reads the same configuration without requiring HTTP-only secrets.
func LoadForTools() (Config, error) {
	return load(false)
}

func load(requireJWT bool) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA LMS API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("events.channel", "gema:grading")
	v.SetDefault("grading.pass_threshold", 60)
	v.SetDefault("certificate.max_attempts", 5)
	v.SetDefault("lock.ttl", "10s")
	v.SetDefault("submit.rate_limit", 10)
	v.SetDefault("submit.rate_window", "1m")
	v.SetDefault("cors.allow_origins", "*")

	lockTTL, err := parseDuration(v, "lock.ttl", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	rateWindow, err := parseDuration(v, "submit.rate_window", time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseDriver:         strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventChannel:           v.GetString("events.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		PassThreshold:          v.GetInt("grading.pass_threshold"),
		CertificateMaxAttempts: v.GetInt("certificate.max_attempts"),
		LockTTL:                lockTTL,
		SubmitRateLimit:        v.GetInt("submit.rate_limit"),
		SubmitRateWindow:       rateWindow,
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
	}

	if requireJWT && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.PassThreshold < 0 || cfg.PassThreshold > 100 {
		return Config{}, fmt.Errorf("pass threshold must be between 0 and 100, got %d", cfg.PassThreshold)
	}

	if cfg.CertificateMaxAttempts <= 0 {
		cfg.CertificateMaxAttempts = 5
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}
