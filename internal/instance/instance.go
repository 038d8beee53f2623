// Single instance guard and host description.
// Uses gopsutil for cross-platform process listing and host information.
package instance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
)

// ExecutableName returns the base name of the running binary.
func ExecutableName() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving executable: %w", err)
	}
	return filepath.Base(exe), nil
}

// Others returns the PIDs of other processes named name. Processes whose
// name cannot be read (e.g. protected system processes) are skipped.
func Others(ctx context.Context, name string) ([]int32, error) {
	self := int32(os.Getpid())

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	var pids []int32
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		n, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.EqualFold(n, name) {
			pids = append(pids, p.Pid)
		}
	}
	return pids, nil
}

// Describe returns a one-line description of the host OS for the startup log.
func Describe(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("reading host info: %w", err)
	}
	desc := strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	if desc == "" {
		desc = info.OS
	}
	return fmt.Sprintf("%s (%s)", desc, info.KernelArch), nil
}
