// Package platform isolates the OS shell interaction used to read and change
// the taskbar auto-hide flag. All raw memory layout concerns live behind the
// Transport interface; the Windows implementation is the only unsafe code.
package platform

import (
	"errors"
	"fmt"
)

// RequestVersion is the layout revision of Request/Response understood by
// the transports in this package.
const RequestVersion = 1

// ErrTaskbarNotFound is returned by a Transport when the taskbar window
// handle cannot be resolved. No command is sent in that case.
var ErrTaskbarNotFound = errors.New("taskbar window not found")

// ErrUnsupportedVersion is returned for requests of an unknown layout revision.
var ErrUnsupportedVersion = errors.New("unsupported app-bar request version")

// Message selects the app-bar command.
type Message uint32

const (
	MsgGetState Message = 0x00000004 // ABM_GETSTATE
	MsgSetState Message = 0x0000000A // ABM_SETSTATE
)

func (m Message) String() string {
	switch m {
	case MsgGetState:
		return "get-state"
	case MsgSetState:
		return "set-state"
	default:
		return fmt.Sprintf("message(%#x)", uint32(m))
	}
}

// State is the app-bar state bit set.
type State uintptr

const (
	StateAutohide    State = 0x0000001 // ABS_AUTOHIDE
	StateAlwaysOnTop State = 0x0000002 // ABS_ALWAYSONTOP
)

// Autohide reports whether the auto-hide bit is set.
func (s State) Autohide() bool { return s&StateAutohide != 0 }

// StateFor returns the state payload that enables or disables auto-hide.
func StateFor(autohide bool) State {
	if autohide {
		return StateAutohide
	}
	return StateAlwaysOnTop
}

// Request is a single app-bar command addressed to the taskbar.
type Request struct {
	Version uint8
	Message Message
	State   State // payload for MsgSetState, ignored otherwise
}

// Response carries the raw result of a delivered Request.
type Response struct {
	Version uint8
	Handle  uintptr // taskbar window the request was delivered to
	Result  uintptr
}

// Transport delivers app-bar requests to the OS. Implementations must not
// retry and must not cache the window handle.
type Transport interface {
	Send(req Request) (Response, error)
}

// Shell is the query/set contract consumed by the lifecycle controller.
type Shell interface {
	Query() bool
	Set(enabled bool) bool
}

// GetStateRequest builds a read request.
func GetStateRequest() Request {
	return Request{Version: RequestVersion, Message: MsgGetState}
}

// SetStateRequest builds a write request for the given auto-hide flag.
func SetStateRequest(autohide bool) Request {
	return Request{Version: RequestVersion, Message: MsgSetState, State: StateFor(autohide)}
}

// Validate checks the request before it crosses the OS boundary.
func (r Request) Validate() error {
	if r.Version != RequestVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, r.Version)
	}
	switch r.Message {
	case MsgGetState, MsgSetState:
		return nil
	default:
		return fmt.Errorf("unknown app-bar message %s", r.Message)
	}
}
