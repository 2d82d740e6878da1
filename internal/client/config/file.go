package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/uniportal/internal/flagx"
	"github.com/dmitrijs2005/uniportal/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the DTO decoded from a JSON or YAML config file. Empty
// fields leave the current value alone.
type FileConfig struct {
	APIURL         string         `json:"api_url" yaml:"api_url"`
	RequestTimeout timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	Database       string         `json:"database" yaml:"database"`
	Transport      string         `json:"transport" yaml:"transport"`
	LogLevel       string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the file given by -c/-config, if any.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("config file %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc FileConfig) apply(cfg *Config) {
	if fc.APIURL != "" {
		cfg.APIURL = fc.APIURL
	}
	if fc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.Database != "" {
		cfg.DatabasePath = fc.Database
	}
	if fc.Transport != "" {
		cfg.Transport = fc.Transport
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
}
