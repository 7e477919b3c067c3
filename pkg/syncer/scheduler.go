package syncer

import (
	"sync"
	"time"
)

// Scheduler runs a callback once after a delay. At most one callback is
// pending; arming again replaces it.
type Scheduler interface {
	Arm(delay time.Duration, fn func())
	Cancel()
}

// TimerScheduler is a Scheduler backed by time.AfterFunc.
type TimerScheduler struct {
	mu    sync.Mutex
	timer *time.Timer
}

// Arm cancels any pending callback and schedules fn after delay.
func (s *TimerScheduler) Arm(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, fn)
}

// Cancel stops the pending callback, if any.
func (s *TimerScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

var _ Scheduler = (*TimerScheduler)(nil)
