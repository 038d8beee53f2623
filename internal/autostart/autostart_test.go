package autostart

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandLine(t *testing.T) {
	assert.Equal(t, `"C:\Program Files\TaskbarControl\taskbar-control.exe"`,
		commandLine(`C:\Program Files\TaskbarControl\taskbar-control.exe`))
	assert.Equal(t, `"C:\tc.exe"`, commandLine(`"C:\tc.exe"`))
}

func TestNew_UnsupportedOutsideWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("touches the registry on Windows")
	}
	m := New()
	assert.Equal(t, EntryName, m.EntryName())
	assert.ErrorIs(t, m.Install("/usr/bin/true"), ErrUnsupported)
	assert.ErrorIs(t, m.Uninstall(), ErrUnsupported)
	_, err := m.IsInstalled()
	assert.ErrorIs(t, err, ErrUnsupported)
}
