package rides

import "time"

// Clock supplies "now" for the event window.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function into a Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })
