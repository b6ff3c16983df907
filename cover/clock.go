package cover

import "time"

type Timer interface {
	Stop() bool
}

// Clock schedules deadlines, f runs on its own goroutine.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

var SystemClock Clock = systemClock{}
