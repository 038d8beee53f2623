//go:build !windows

package autostart

type unsupportedManager struct{}

// New returns a Manager whose operations fail with ErrUnsupported.
func New() Manager {
	return unsupportedManager{}
}

func (unsupportedManager) EntryName() string { return EntryName }

func (unsupportedManager) IsInstalled() (bool, error) { return false, ErrUnsupported }

func (unsupportedManager) Install(string) error { return ErrUnsupported }

func (unsupportedManager) Uninstall() error { return ErrUnsupported }
