package platform

import (
	"errors"

	"go.uber.org/zap"
)

// Adapter implements Shell on top of a Transport. It holds no state besides
// its dependencies, so every call reaches the OS.
type Adapter struct {
	transport Transport
	logger    *zap.Logger
}

// NewAdapter creates a shell adapter over the given transport.
func NewAdapter(t Transport, logger *zap.Logger) *Adapter {
	return &Adapter{transport: t, logger: logger}
}

// Query reads the current auto-hide flag. Any failure, including an
// unresolved taskbar handle, yields false and a warning.
func (a *Adapter) Query() bool {
	resp, err := a.transport.Send(GetStateRequest())
	if err != nil {
		if errors.Is(err, ErrTaskbarNotFound) {
			a.logger.Warn("Taskbar window not resolved, assuming auto-hide disabled")
		} else {
			a.logger.Warn("Failed to query taskbar state", zap.Error(err))
		}
		return false
	}

	autohide := State(resp.Result).Autohide()
	a.logger.Info("Current taskbar state checked", zap.Bool("autohide", autohide))
	return autohide
}

// Set requests the given auto-hide flag and reports whether the OS
// acknowledged it. It never retries.
func (a *Adapter) Set(enabled bool) bool {
	resp, err := a.transport.Send(SetStateRequest(enabled))
	if err != nil {
		if errors.Is(err, ErrTaskbarNotFound) {
			a.logger.Warn("Taskbar window not resolved, state change not sent",
				zap.Bool("autohide", enabled))
		} else {
			a.logger.Warn("Failed to send taskbar state change",
				zap.Bool("autohide", enabled),
				zap.Error(err))
		}
		return false
	}
	return resp.Result != 0
}
