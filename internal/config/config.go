// Package config loads and stores the tool's settings: the bind host,
// the port range and attempt budget that feed the resolver, the probe
// timeout and the optional event log path.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultHost         = "127.0.0.1"
	defaultMinPort      = 20000
	defaultMaxPort      = 45000
	defaultMaxAttempts  = 4096
	defaultProbeTimeout = "2s"
)

// Config represents user configuration on disk. For a given name the
// host, range and attempt budget fully determine the resolved port, so
// teams that share a config file agree on the mapping.
type Config struct {
	Host         string `json:"host"`
	MinPort      int    `json:"min_port"`
	MaxPort      int    `json:"max_port"`
	MaxAttempts  int    `json:"max_attempts"`
	ProbeTimeout string `json:"probe_timeout"`
	LogFile      string `json:"log_file"`
}

// configOnDisk distinguishes absent fields from zero values so a
// partial file merges over the defaults.
type configOnDisk struct {
	Host         *string `json:"host"`
	MinPort      *int    `json:"min_port"`
	MaxPort      *int    `json:"max_port"`
	MaxAttempts  *int    `json:"max_attempts"`
	ProbeTimeout *string `json:"probe_timeout"`
	LogFile      *string `json:"log_file"`
}

func Default() Config {
	return Config{
		Host:         defaultHost,
		MinPort:      defaultMinPort,
		MaxPort:      defaultMaxPort,
		MaxAttempts:  defaultMaxAttempts,
		ProbeTimeout: defaultProbeTimeout,
		LogFile:      "",
	}
}

func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	path = ExpandPath(path)
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	} else if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var raw configOnDisk
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg := Default()
	if raw.Host != nil {
		cfg.Host = strings.TrimSpace(*raw.Host)
	}
	if raw.MinPort != nil {
		cfg.MinPort = *raw.MinPort
	}
	if raw.MaxPort != nil {
		cfg.MaxPort = *raw.MaxPort
	}
	if raw.MaxAttempts != nil {
		cfg.MaxAttempts = *raw.MaxAttempts
	}
	if raw.ProbeTimeout != nil {
		cfg.ProbeTimeout = strings.TrimSpace(*raw.ProbeTimeout)
	}
	if raw.LogFile != nil {
		cfg.LogFile = strings.TrimSpace(*raw.LogFile)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	path = ExpandPath(path)
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.MinPort < 0 || c.MinPort > 65535 {
		return fmt.Errorf("min_port must be within 0-65535")
	}
	if c.MaxPort < 0 || c.MaxPort > 65535 {
		return fmt.Errorf("max_port must be within 0-65535")
	}
	if c.MinPort > c.MaxPort {
		return fmt.Errorf("min_port must be <= max_port")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1")
	}
	if d, err := time.ParseDuration(c.ProbeTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid probe_timeout: %q", c.ProbeTimeout)
	}
	return nil
}

// ProbeTimeoutDuration returns the parsed probe timeout. Validate
// guarantees it parses for any loaded config.
func (c Config) ProbeTimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(c.ProbeTimeout)
}

func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
