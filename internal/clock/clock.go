// Package clock injects the monotonic millisecond time source the
// coordinator and replica state machine use, so tests can advance time
// deterministically instead of depending on wall-clock reads (spec Design
// Notes: "Implicit clock").
package clock

import (
	"sync/atomic"
	"time"
)

// Clock returns the current time in milliseconds on some monotonic scale.
// Callers must not assume the value corresponds to a Unix timestamp — only
// that later calls return values that do not decrease.
type Clock interface {
	NowMillis() int64
}

// System is the production Clock, backed by time.Now().
type System struct{}

// processStart anchors System readings to Go's monotonic clock.
var processStart = time.Now()

// NowMillis returns the milliseconds elapsed since the process started,
// measured on the monotonic clock, so wall-clock adjustments do not move it.
func (System) NowMillis() int64 {
	return time.Since(processStart).Milliseconds()
}

// Manual is a test double whose reading only changes when Set or Advance is
// called. It is safe for concurrent use.
type Manual struct {
	ms atomic.Int64
}

// NewManual creates a Manual clock starting at the given reading.
func NewManual(startMs int64) *Manual {
	m := &Manual{}
	m.ms.Store(startMs)
	return m
}

// NowMillis returns the current reading.
func (m *Manual) NowMillis() int64 {
	return m.ms.Load()
}

// Set pins the clock to an absolute reading.
func (m *Manual) Set(ms int64) {
	m.ms.Store(ms)
}

// Advance moves the clock forward by delta milliseconds.
func (m *Manual) Advance(delta int64) {
	m.ms.Add(delta)
}
