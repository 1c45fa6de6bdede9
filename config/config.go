package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Services  ServicesConfig  `yaml:"services"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	Wizard    WizardConfig    `yaml:"wizard"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// AuthConfig describes how bearer tokens issued by the identity provider are
// checked. An empty JWTSecret means tokens are forwarded without verification.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type ServicesConfig struct {
	CatalogURL      string        `yaml:"catalog_url"`
	ImageServiceURL string        `yaml:"image_service_url"`
	GenerationURL   string        `yaml:"generation_url"`
	PaymentURL      string        `yaml:"payment_url"`
	Timeout         time.Duration `yaml:"timeout"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// WizardConfig bounds how long an idle configuration session is kept.
type WizardConfig struct {
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "release",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "storefront",
			Name:    "storefront",
			SSLMode: "disable",
		},
		Services: ServicesConfig{
			CatalogURL:      "http://localhost:3004/api/printify",
			ImageServiceURL: "http://localhost:5002/api",
			GenerationURL:   "http://localhost:9000/api",
			PaymentURL:      "http://localhost:9001/api",
			Timeout:         30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Wizard: WizardConfig{
			SessionTTL:    30 * time.Minute,
			SweepInterval: time.Minute,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, an optional .env file and finally the process environment.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env (%s): %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// applyEnv overrides fields from the environment. Values that do not parse
// are reported together rather than silently falling back to the default.
func (c *Config) applyEnv() error {
	var env envReader

	env.setString(&c.Server.Port, "PORT")
	env.setString(&c.Server.Mode, "GIN_MODE")

	env.setBool(&c.Database.Enabled, "DB_ENABLED")
	env.setString(&c.Database.Host, "DB_HOST")
	env.setString(&c.Database.Port, "DB_PORT")
	env.setString(&c.Database.User, "DB_USER")
	env.setString(&c.Database.Password, "DB_PASSWORD")
	env.setString(&c.Database.Name, "DB_NAME")
	env.setString(&c.Database.SSLMode, "DB_SSLMODE")

	env.setString(&c.Auth.JWTSecret, "JWT_SECRET")
	env.setString(&c.Auth.Issuer, "JWT_ISSUER")

	env.setString(&c.Services.CatalogURL, "PRINTIFY_SERVICE_URL")
	env.setString(&c.Services.ImageServiceURL, "IMAGE_SERVICE_URL")
	env.setString(&c.Services.GenerationURL, "API_URL")
	env.setString(&c.Services.PaymentURL, "PAYMENT_SERVICE_URL")
	env.setDuration(&c.Services.Timeout, "SERVICE_TIMEOUT")

	env.setInt(&c.RateLimit.RequestsPerSecond, "RATE_LIMIT_RPS")
	env.setInt(&c.RateLimit.Burst, "RATE_LIMIT_BURST")

	env.setString(&c.Log.Level, "LOG_LEVEL")
	env.setString(&c.Log.Format, "LOG_FORMAT")

	env.setDuration(&c.Wizard.SessionTTL, "WIZARD_SESSION_TTL")
	env.setDuration(&c.Wizard.SweepInterval, "WIZARD_SWEEP_INTERVAL")

	return env.err()
}

func (c *Config) Validate() error {
	var problems []string

	urls := map[string]string{
		"services.catalog_url":       c.Services.CatalogURL,
		"services.image_service_url": c.Services.ImageServiceURL,
		"services.generation_url":    c.Services.GenerationURL,
		"services.payment_url":       c.Services.PaymentURL,
	}
	for _, key := range []string{"services.catalog_url", "services.image_service_url", "services.generation_url", "services.payment_url"} {
		if strings.TrimSpace(urls[key]) == "" {
			problems = append(problems, key+" is required")
		}
	}
	if c.Services.Timeout <= 0 {
		problems = append(problems, "services.timeout must be positive")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		problems = append(problems, fmt.Sprintf("server.mode %q is not one of debug, release, test", c.Server.Mode))
	}
	if c.Wizard.SessionTTL > 0 && c.Wizard.SweepInterval <= 0 {
		problems = append(problems, "wizard.sweep_interval must be positive when sessions expire")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		problems = append(problems, "rate_limit values must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

type envReader struct {
	problems []string
}

func (r *envReader) setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (r *envReader) setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.invalid(key, v, "a boolean")
			return
		}
		*dst = b
	}
}

func (r *envReader) setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.invalid(key, v, "an integer")
			return
		}
		*dst = n
	}
}

func (r *envReader) setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			r.invalid(key, v, "a duration such as 30s")
			return
		}
		*dst = d
	}
}

func (r *envReader) invalid(key, value, want string) {
	r.problems = append(r.problems, fmt.Sprintf("%s=%q is not %s", key, value, want))
}

func (r *envReader) err() error {
	if len(r.problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid environment: %s", strings.Join(r.problems, "; "))
}
