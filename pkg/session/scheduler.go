package session

import "time"

// Timer is a pending phase transition.
type Timer interface {
	Stop() bool
}

// Scheduler arms the phase transition timers.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
