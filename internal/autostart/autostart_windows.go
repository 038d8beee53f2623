//go:build windows

package autostart

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const runKeyPath = `Software\Microsoft\Windows\CurrentVersion\Run`

// runKeyManager implements Manager with the per-user Run registry key.
type runKeyManager struct{}

// New returns a Manager that uses HKCU\...\Run.
func New() Manager {
	return &runKeyManager{}
}

func (m *runKeyManager) EntryName() string { return EntryName }

// IsInstalled checks whether the Run value exists.
func (m *runKeyManager) IsInstalled() (bool, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return false, fmt.Errorf("opening Run key: %w", err)
	}
	defer k.Close()

	_, _, err = k.GetStringValue(EntryName)
	if errors.Is(err, registry.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading Run value: %w", err)
	}
	return true, nil
}

// Install writes the Run value pointing at execPath.
func (m *runKeyManager) Install(execPath string) error {
	k, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("opening Run key: %w", err)
	}
	defer k.Close()

	if err := k.SetStringValue(EntryName, commandLine(execPath)); err != nil {
		return fmt.Errorf("writing Run value: %w", err)
	}
	return nil
}

// Uninstall removes the Run value. A missing value is not an error.
func (m *runKeyManager) Uninstall() error {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("opening Run key: %w", err)
	}
	defer k.Close()

	if err := k.DeleteValue(EntryName); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("deleting Run value: %w", err)
	}
	return nil
}
