//go:build !windows

package config

import (
	"os"
	"path/filepath"
)

// DataDir is where logs are written by default.
func DataDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "taskbar-control")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "state", "taskbar-control")
}

func configSearchPaths() []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "taskbar-control", "config.yaml"))
	}
	return append(paths, "/etc/taskbar-control/config.yaml")
}
