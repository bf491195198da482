// Package simclock implements the simulated clock: a current instant that
// moves at a controllable multiple of real time, including backward.
package simclock

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is a steerable simulated clock. It is not safe for concurrent use;
// exactly one goroutine (the tick driver) owns it.
type Clock struct {
	current time.Time
	speed   float64
	wall    clockwork.Clock
}

// New returns a clock at the wall clock's current time running at real speed.
// A nil wall uses the system clock.
func New(wall clockwork.Clock) *Clock {
	if wall == nil {
		wall = clockwork.NewRealClock()
	}
	return &Clock{
		current: wall.Now().UTC(),
		speed:   1,
		wall:    wall,
	}
}

// Advance moves the current instant by realDelta scaled by the speed. Call it
// once per tick with the real time elapsed since the previous tick.
// A non-finite speed (NaN or ±Inf) freezes the clock rather than corrupting it.
func (c *Clock) Advance(realDelta time.Duration) {
	c.current = AddSeconds(c.current, realDelta.Seconds()*c.speed)
}

// SetSpeed sets the speed multiplier. Zero pauses, negative runs backward.
func (c *Clock) SetSpeed(speed float64) {
	c.speed = speed
}

// Speed returns the speed multiplier.
func (c *Clock) Speed() float64 {
	return c.speed
}

// SyncToRealTime jumps to the wall clock's now and resets speed to 1.
func (c *Clock) SyncToRealTime() {
	c.current = c.wall.Now().UTC()
	c.speed = 1
}

// Current returns the simulated instant.
func (c *Clock) Current() time.Time {
	return c.current
}

// SetCurrent jumps to t. Speed is unchanged.
func (c *Clock) SetCurrent(t time.Time) {
	c.current = t.UTC()
}

// Wall returns the clock's real time source.
func (c *Clock) Wall() clockwork.Clock {
	return c.wall
}

// AddSeconds adds a possibly huge number of seconds to t. time.Duration
// overflows at ±292 years, which a single tick at high speed or a long jump
// can exceed. Non-finite offsets and offsets beyond 1e17 s return t unchanged.
func AddSeconds(t time.Time, secs float64) time.Time {
	if math.IsNaN(secs) || math.IsInf(secs, 0) || math.Abs(secs) > 1e17 {
		return t
	}
	whole, frac := math.Modf(secs)
	return time.Unix(t.Unix()+int64(whole), int64(t.Nanosecond())+int64(math.Round(frac*1e9))).UTC()
}
