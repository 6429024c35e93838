package engine

import "time"

// Clock supplies the wall time the spacing gate compares against.
// Injectable so tests can pin "now" and assert exact cooldown remainders.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SystemClock returns the production clock.
func SystemClock() Clock {
	return systemClock{}
}
