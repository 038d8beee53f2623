package platform

import (
	"sync"
	"sync/atomic"
	"time"
)

// Fake is an in-memory Transport that behaves like a taskbar. It records
// every request and flags any overlap between concurrent sends.
type Fake struct {
	mu       sync.Mutex
	autohide bool
	requests []Request

	// Missing simulates an unresolved taskbar window.
	Missing bool
	// RejectSet makes set-state requests return a zero result.
	RejectSet bool
	// Delay is slept inside Send while the request is in flight.
	Delay time.Duration

	inFlight    atomic.Int32
	overlapping atomic.Bool
}

// NewFake creates a fake taskbar with the given initial auto-hide flag.
func NewFake(autohide bool) *Fake {
	return &Fake{autohide: autohide}
}

// Send implements Transport.
func (f *Fake) Send(req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	if f.inFlight.Add(1) > 1 {
		f.overlapping.Store(true)
	}
	defer f.inFlight.Add(-1)

	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Missing {
		return Response{}, ErrTaskbarNotFound
	}
	f.requests = append(f.requests, req)

	switch req.Message {
	case MsgGetState:
		var st State
		if f.autohide {
			st = StateAutohide
		}
		return Response{Version: req.Version, Handle: 1, Result: uintptr(st)}, nil
	default:
		if f.RejectSet {
			return Response{Version: req.Version, Handle: 1}, nil
		}
		f.autohide = req.State.Autohide()
		return Response{Version: req.Version, Handle: 1, Result: 1}, nil
	}
}

// Autohide returns the flag the fake taskbar currently holds.
func (f *Fake) Autohide() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.autohide
}

// Requests returns a copy of the delivered requests.
func (f *Fake) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// SetCalls counts delivered set-state requests.
func (f *Fake) SetCalls() int {
	n := 0
	for _, r := range f.Requests() {
		if r.Message == MsgSetState {
			n++
		}
	}
	return n
}

// Overlapped reports whether two sends were ever in flight at once.
func (f *Fake) Overlapped() bool {
	return f.overlapping.Load()
}
