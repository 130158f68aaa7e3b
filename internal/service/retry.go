package service

import "time"

// RetrySchedule lists the delays between delivery attempts. Once every delay
// has been used the message is parked.
type RetrySchedule []time.Duration

// DefaultRetrySchedule returns 5s, 10s, 30s.
func DefaultRetrySchedule() RetrySchedule {
	return RetrySchedule{5 * time.Second, 10 * time.Second, 30 * time.Second}
}

// Delay returns the wait after the given number of failed attempts, and false
// when the schedule is exhausted.
func (r RetrySchedule) Delay(failures int) (time.Duration, bool) {
	if failures < 1 || failures > len(r) {
		return 0, false
	}

	return r[failures-1], true
}

// MaxAttempts is the total number of attempts including the first.
func (r RetrySchedule) MaxAttempts() int {
	return len(r) + 1
}
