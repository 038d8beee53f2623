package app

import "sync/atomic"

// Status is the lifecycle position of the controller. It only moves forward.
type Status int32

const (
	Running Status = iota
	Stopping
	Stopped
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// statusGate is a monotonic status holder.
type statusGate struct {
	v atomic.Int32
}

func (g *statusGate) load() Status {
	return Status(g.v.Load())
}

// advance moves from `from` to `to` and reports whether this call made the
// transition.
func (g *statusGate) advance(from, to Status) bool {
	return g.v.CompareAndSwap(int32(from), int32(to))
}
