// parts copied from: https://github.com/efritz/glock

package timeutil

import (
	"sync"
	"time"
)

// MockClock is a Time whose value only moves when Advance is called, for
// testing token expiry and other time-sensitive paths without sleeping.
type MockClock struct {
	fakeTime time.Time
	nowLock  sync.RWMutex
}

var _ Time = &MockClock{}

// NewMockClockAt creates a MockClock with the internal time set to the
// provided instant.
func NewMockClockAt(now time.Time) *MockClock {
	return &MockClock{
		fakeTime: now,
	}
}

// Advance moves the internal time forward by the supplied duration.
func (mc *MockClock) Advance(duration time.Duration) {
	mc.nowLock.Lock()
	mc.fakeTime = mc.fakeTime.Add(duration)
	mc.nowLock.Unlock()
}

// Now returns the current internal time.
func (mc *MockClock) Now() time.Time {
	mc.nowLock.RLock()
	defer mc.nowLock.RUnlock()

	return mc.fakeTime
}
