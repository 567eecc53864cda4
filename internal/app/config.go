package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ZeitounCorp/name2port/internal/config"
)

func configPath(opts Options) string {
	if opts.ConfigPath != "" {
		return config.ExpandPath(opts.ConfigPath)
	}
	return DefaultConfigPath()
}

func ConfigShow(opts Options) ([]string, error) {
	cfg, err := config.Load(configPath(opts))
	if err != nil {
		return nil, err
	}
	return []string{
		fmt.Sprintf("host: %s", cfg.Host),
		fmt.Sprintf("min_port: %d", cfg.MinPort),
		fmt.Sprintf("max_port: %d", cfg.MaxPort),
		fmt.Sprintf("max_attempts: %d", cfg.MaxAttempts),
		fmt.Sprintf("probe_timeout: %s", cfg.ProbeTimeout),
		fmt.Sprintf("log_file: %s", cfg.LogFile),
	}, nil
}

func ConfigGet(opts Options, key string) (string, error) {
	cfg, err := config.Load(configPath(opts))
	if err != nil {
		return "", err
	}
	switch key {
	case "host":
		return cfg.Host, nil
	case "min_port":
		return strconv.Itoa(cfg.MinPort), nil
	case "max_port":
		return strconv.Itoa(cfg.MaxPort), nil
	case "max_attempts":
		return strconv.Itoa(cfg.MaxAttempts), nil
	case "probe_timeout":
		return cfg.ProbeTimeout, nil
	case "log_file":
		return cfg.LogFile, nil
	default:
		return "", NewCodeError(1, ErrInvalidConfigKey)
	}
}

func ConfigSet(opts Options, key, value string) (string, error) {
	path := configPath(opts)
	cfg, err := config.Load(path)
	if err != nil {
		return "", err
	}
	updated, err := setConfigValue(cfg, key, value)
	if err != nil {
		return "", NewCodeError(1, err)
	}
	if err := config.Save(path, updated); err != nil {
		return "", err
	}
	return fmt.Sprintf("Set %s to %s", key, value), nil
}

func setConfigValue(cfg config.Config, key, value string) (config.Config, error) {
	switch key {
	case "host":
		cfg.Host = value
	case "min_port":
		val, err := strconv.Atoi(value)
		if err != nil {
			return cfg, ErrInvalidConfigValue
		}
		cfg.MinPort = val
	case "max_port":
		val, err := strconv.Atoi(value)
		if err != nil {
			return cfg, ErrInvalidConfigValue
		}
		cfg.MaxPort = val
	case "max_attempts":
		val, err := strconv.Atoi(value)
		if err != nil {
			return cfg, ErrInvalidConfigValue
		}
		cfg.MaxAttempts = val
	case "probe_timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return cfg, ErrInvalidConfigValue
		}
		cfg.ProbeTimeout = value
	case "log_file":
		cfg.LogFile = value
	default:
		return cfg, ErrInvalidConfigKey
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
