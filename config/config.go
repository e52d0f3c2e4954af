// Package config loads the application settings. Values come from, in
// increasing priority: built-in defaults, an optional YAML file, a .env
// file and the process environment.
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
	JWT       JWTConfig       `yaml:"jwt"`
	LiveKit   LiveKitConfig   `yaml:"livekit"`
	Upload    UploadConfig    `yaml:"upload"`
	Email     EmailConfig     `yaml:"email"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig selects the driver ("sqlite" or "pgx") and its DSN. For
// sqlite the DSN is a file path.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// JWTConfig verifies the identity provider's HS256 tokens. An empty Issuer
// accepts any issuer.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

type LiveKitConfig struct {
	URL       string `yaml:"url"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

type UploadConfig struct {
	Dir     string `yaml:"dir"`
	MaxSize int64  `yaml:"max_size"`
}

// EmailConfig configures Resend. Invite e-mails are disabled without an
// API key.
type EmailConfig struct {
	ResendAPIKey string `yaml:"resend_api_key"`
	From         string `yaml:"from"`
	AppURL       string `yaml:"app_url"`
}

type RateLimitConfig struct {
	Messages     int           `yaml:"messages"`
	Window       time.Duration `yaml:"window"`
	Cooldown     time.Duration `yaml:"cooldown"`
	InviteJoins  int           `yaml:"invite_joins"`
	InviteWindow time.Duration `yaml:"invite_window"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           9090,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "./data/zvonok.db",
		},
		LiveKit: LiveKitConfig{
			URL: "ws://localhost:7880",
		},
		Upload: UploadConfig{
			Dir:     "./data/uploads",
			MaxSize: 25 << 20,
		},
		Email: EmailConfig{
			From:   "noreply@zvonok.app",
			AppURL: "http://localhost:3000",
		},
		RateLimit: RateLimitConfig{
			Messages:     5,
			Window:       5 * time.Second,
			Cooldown:     15 * time.Second,
			InviteJoins:  10,
			InviteWindow: time.Minute,
		},
	}
}

// Load builds the configuration. path names an optional YAML file; when
// empty, CONFIG_FILE is consulted. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
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
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error

	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	if c.Server.Port, err = getEnvInt("SERVER_PORT", c.Server.Port); err != nil {
		return err
	}
	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	c.Database.Driver = getEnv("DATABASE_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DATABASE_URL", c.Database.DSN)

	c.JWT.Secret = getEnv("JWT_SECRET", c.JWT.Secret)
	c.JWT.Issuer = getEnv("JWT_ISSUER", c.JWT.Issuer)

	c.LiveKit.URL = getEnv("LIVEKIT_URL", c.LiveKit.URL)
	c.LiveKit.APIKey = getEnv("LIVEKIT_API_KEY", c.LiveKit.APIKey)
	c.LiveKit.APISecret = getEnv("LIVEKIT_API_SECRET", c.LiveKit.APISecret)

	c.Upload.Dir = getEnv("UPLOAD_DIR", c.Upload.Dir)
	if v := getEnv("UPLOAD_MAX_SIZE", ""); v != "" {
		if c.Upload.MaxSize, err = strconv.ParseInt(v, 10, 64); err != nil {
			return fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
		}
	}

	c.Email.ResendAPIKey = getEnv("RESEND_API_KEY", c.Email.ResendAPIKey)
	c.Email.From = getEnv("EMAIL_FROM", c.Email.From)
	c.Email.AppURL = getEnv("APP_URL", c.Email.AppURL)

	if c.RateLimit.Messages, err = getEnvInt("RATE_LIMIT_MESSAGES", c.RateLimit.Messages); err != nil {
		return err
	}
	if c.RateLimit.InviteJoins, err = getEnvInt("RATE_LIMIT_INVITE_JOINS", c.RateLimit.InviteJoins); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.Upload.MaxSize <= 0 {
		return errors.New("upload max size must be positive")
	}
	if c.RateLimit.Messages <= 0 || c.RateLimit.InviteJoins <= 0 {
		return errors.New("rate limits must be positive")
	}
	return nil
}

// Addr is the listen address, e.g. "0.0.0.0:9090".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LiveKitEnabled reports whether room tokens can be signed.
func (c *Config) LiveKitEnabled() bool {
	return c.LiveKit.APIKey != "" && c.LiveKit.APISecret != ""
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
