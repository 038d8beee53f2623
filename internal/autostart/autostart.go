// Package autostart registers the application to start at user login.
package autostart

import (
	"errors"
	"strings"
)

// ErrUnsupported is returned on platforms without a login-start mechanism.
var ErrUnsupported = errors.New("autostart is not supported on this platform")

// EntryName is the value name written under the Run key.
const EntryName = "TaskbarControl"

// Manager provides platform-specific autostart installation.
type Manager interface {
	IsInstalled() (bool, error)
	Install(execPath string) error
	Uninstall() error
	EntryName() string
}

// commandLine quotes execPath so paths with spaces survive the shell.
func commandLine(execPath string) string {
	return `"` + strings.Trim(execPath, `"`) + `"`
}
