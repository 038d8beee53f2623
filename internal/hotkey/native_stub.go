//go:build !windows

package hotkey

type stubBinder struct{}

// NewBinder returns a binder that always fails with ErrUnsupported.
func NewBinder() Binder {
	return stubBinder{}
}

func (stubBinder) Bind(Combo) (Binding, error) {
	return nil, ErrUnsupported
}
