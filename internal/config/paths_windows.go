//go:build windows

package config

import (
	"os"
	"path/filepath"
)

// DataDir is where logs are written by default.
func DataDir() string {
	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		return filepath.Join(local, "TaskbarControl")
	}
	return "."
}

func configSearchPaths() []string {
	return []string{
		filepath.Join(DataDir(), "config.yaml"),
		filepath.Join(os.Getenv("ProgramData"), "TaskbarControl", "config.yaml"),
	}
}
