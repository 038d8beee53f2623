//go:build !windows

// Stub transport for non-Windows builds. There is no taskbar to address, so
// every request reports an unresolved window and nothing is sent.
package platform

type stubTransport struct{}

// NewTransport returns a transport that never resolves the taskbar.
func NewTransport() Transport {
	return stubTransport{}
}

func (stubTransport) Send(req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	return Response{}, ErrTaskbarNotFound
}

// IsElevated always reports true outside Windows; there is nothing to warn about.
func IsElevated() (bool, error) {
	return true, nil
}
