// Package clock abstracts wall-clock time so lifecycle rules and
// scheduler jobs can be tested against a fake clock.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
