package timeutil

import (
	"time"
)

type Time interface {
	// Now returns the current time.
	Now() time.Time
}

// RealTime is the production clock.
type RealTime struct{}

func (c *RealTime) Now() time.Time {
	return time.Now()
}
