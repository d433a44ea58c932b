package common

import (
	"time"
)

// This stopwatch keeps track of time. You can set a timeout for it,
// make it start counting time, and ask it if the timeout has been reached
type Stopwatch struct {
	Timeout   time.Duration
	startTime time.Time
	Running   bool
}

func NewStopwatch(timeout time.Duration) Stopwatch {
	return Stopwatch{timeout, time.Time{}, false}
}

func (s *Stopwatch) Start() {
	s.StartAt(time.Now())
}

// Start counting from the provided instant
func (s *Stopwatch) StartAt(now time.Time) {
	s.Running = true
	s.startTime = now
}

// Return the time elapsed since this stopwatch
// stopped (reached its timeout).
// Note that if the number is negative, the timeout still
// has not been reached
func (s *Stopwatch) TimeStoppedAt(now time.Time) time.Duration {
	return now.Sub(s.startTime.Add(s.Timeout))
}

// A stopwatch that is not running counts as expired
func (s *Stopwatch) Expired() bool {
	return s.ExpiredAt(time.Now())
}

func (s *Stopwatch) ExpiredAt(now time.Time) bool {
	if !s.Running {
		return true
	}
	return s.TimeStoppedAt(now) >= 0
}
