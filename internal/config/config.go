package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds process settings.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	DatabaseURL     string        `yaml:"database_url"`
	JWTSecret       string        `yaml:"jwt_secret"`
	WSSendBuffer    int           `yaml:"ws_send_buffer"`
	WSWriteTimeout  time.Duration `yaml:"ws_write_timeout"`
	WSPingInterval  time.Duration `yaml:"ws_ping_interval"`
	AllowedOrigins  []string      `yaml:"ws_allowed_origins"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		HTTPAddr:        ":5000",
		WSSendBuffer:    16,
		WSWriteTimeout:  10 * time.Second,
		WSPingInterval:  30 * time.Second,
		MaxBodyBytes:    64 << 10,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load builds the config from defaults, dotenv files, the environment and
// finally the yaml file named by BUSTRACK_CONFIG. Missing dotenv files are
// ignored; variables already set in the environment win over dotenv values.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	def := Defaults()
	cfg := Config{
		HTTPAddr:        getenvDefault("HTTP_ADDR", def.HTTPAddr),
		DatabaseURL:     getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		JWTSecret:       getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		WSSendBuffer:    getenvIntDefault("WS_SEND_BUFFER", def.WSSendBuffer),
		WSWriteTimeout:  getenvDuration("WS_WRITE_TIMEOUT", def.WSWriteTimeout),
		WSPingInterval:  getenvDuration("WS_PING_INTERVAL", def.WSPingInterval),
		AllowedOrigins:  splitCSV(os.Getenv("WS_ALLOWED_ORIGINS")),
		MaxBodyBytes:    int64(getenvIntDefault("MAX_BODY_BYTES", int(def.MaxBodyBytes))),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", def.ShutdownTimeout),
	}

	if path := os.Getenv("BUSTRACK_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if c.WSSendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("ws_send_buffer must be positive, got %d", c.WSSendBuffer))
	}
	if c.WSWriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ws_write_timeout must be positive, got %s", c.WSWriteTimeout))
	}
	if c.WSPingInterval <= 0 {
		errs = append(errs, fmt.Errorf("ws_ping_interval must be positive, got %s", c.WSPingInterval))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
