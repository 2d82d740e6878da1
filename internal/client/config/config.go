package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/uniportal/internal/client/client"
)

// Config holds runtime settings for the uniportal CLI.
type Config struct {
	APIURL         string
	RequestTimeout time.Duration
	DatabasePath   string
	Transport      string
	LogLevel       string
}

// DefaultDatabasePath is client.db under the user's config directory, or
// the working directory when that is unknown.
func DefaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "uniportal.db"
	}
	return filepath.Join(dir, "uniportal", "client.db")
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://localhost:8000"
	c.RequestTimeout = 10 * time.Second
	c.DatabasePath = DefaultDatabasePath()
	c.Transport = client.TransportBearer
	c.LogLevel = "info"
}

// Validate reports settings the client cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.APIURL == "" {
		errs = append(errs, errors.New("api url is empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	if c.Transport != client.TransportBearer && c.Transport != client.TransportCookie {
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	return errors.Join(errs...)
}

// Load builds a Config from defaults, the config file named in args, the
// environment and finally args. Later sources take precedence.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	parseEnv(cfg, getenv)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.Getenv)
}
