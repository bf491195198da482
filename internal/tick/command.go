package tick

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/simclock"
	"github.com/litescript/ls-orrery/internal/state"
)

// ErrInvalidCommand is returned by Submit for commands that fail validation.
var ErrInvalidCommand = errors.New("invalid command")

// maxJumpSeconds keeps jumps inside time.Time's comfortable range, about
// three billion years.
const maxJumpSeconds = 1e17

// Command is a clock or scene mutation applied by the driver between ticks.
type Command interface {
	validate() error
	apply(d *Driver) (state.EventType, string)
}

type setSpeed struct{ speed float64 }

// SetSpeed sets the clock speed. Zero pauses, negative runs backward.
func SetSpeed(speed float64) Command { return setSpeed{speed} }

func (c setSpeed) validate() error {
	if math.IsNaN(c.speed) || math.IsInf(c.speed, 0) {
		return fmt.Errorf("%w: speed must be finite", ErrInvalidCommand)
	}
	return nil
}

func (c setSpeed) apply(d *Driver) (state.EventType, string) {
	d.clock.SetSpeed(c.speed)
	return state.EventSpeedChanged, "speed " + strconv.FormatFloat(c.speed, 'g', -1, 64) + "x"
}

type syncNow struct{}

// Sync jumps to real now at real speed.
func Sync() Command { return syncNow{} }

func (syncNow) validate() error { return nil }

func (syncNow) apply(d *Driver) (state.EventType, string) {
	d.clock.SyncToRealTime()
	return state.EventSynced, "synced to real time"
}

type setCurrent struct{ t time.Time }

// SetCurrent jumps to t without changing speed.
func SetCurrent(t time.Time) Command { return setCurrent{t} }

func (c setCurrent) validate() error {
	if c.t.IsZero() {
		return fmt.Errorf("%w: zero instant", ErrInvalidCommand)
	}
	return nil
}

func (c setCurrent) apply(d *Driver) (state.EventType, string) {
	d.clock.SetCurrent(c.t)
	return state.EventTimeSet, "set to " + c.t.UTC().Format(time.RFC3339)
}

type jump struct{ seconds float64 }

// Jump moves the clock by a signed number of simulated seconds.
func Jump(seconds float64) Command { return jump{seconds} }

func (c jump) validate() error {
	if math.IsNaN(c.seconds) || math.Abs(c.seconds) > maxJumpSeconds {
		return fmt.Errorf("%w: jump of %v seconds", ErrInvalidCommand, c.seconds)
	}
	return nil
}

func (c jump) apply(d *Driver) (state.EventType, string) {
	// Advance would scale by speed and do nothing while paused.
	d.clock.SetCurrent(simclock.AddSeconds(d.clock.Current(), c.seconds))
	return state.EventJumped, fmt.Sprintf("jumped %+.0fs", c.seconds)
}

type setFocus struct{ id scene.BodyID }

// SetFocus recentres published frames on a body.
func SetFocus(id scene.BodyID) Command { return setFocus{id} }

func (c setFocus) validate() error {
	if _, err := scene.ParseBodyID(string(c.id)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	return nil
}

func (c setFocus) apply(d *Driver) (state.EventType, string) {
	d.sceneCfg.Focus = c.id
	return state.EventFocusChanged, "focus " + string(c.id)
}
