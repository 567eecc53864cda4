package app

import (
	"os"
	"path/filepath"
)

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/name2port/config.json"
	}
	return filepath.Join(home, ".config", "name2port", "config.json")
}
