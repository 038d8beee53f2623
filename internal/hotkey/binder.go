package hotkey

import "errors"

// ErrUnsupported is returned by the native binder on platforms without a
// global hotkey facility.
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// Binding is one active registration of a combination. The combination is
// consumed by the OS and not delivered to the focused application.
type Binding interface {
	// Keydown delivers one value per press. It is closed if the underlying
	// registration dies.
	Keydown() <-chan struct{}
	Unregister() error
}

// Binder creates registrations.
type Binder interface {
	Bind(c Combo) (Binding, error)
}
