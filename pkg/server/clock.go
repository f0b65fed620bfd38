package server

import "time"

// Clock is the monotonic-seconds time source the orchestration layer
// consumes instead of calling time.Now directly, so
// statistics and envelope timestamps stay testable.
type Clock interface {
	NowSeconds() int64
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

var _ Clock = SystemClock{}

func (SystemClock) NowSeconds() int64 { return time.Now().Unix() }

// NowMillis returns the millisecond timestamp stamped on outbound
// envelopes.
func NowMillis(c Clock) int64 { return c.NowSeconds() * 1000 }
