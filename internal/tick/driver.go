// Package tick drives the simulation: it owns the simulated clock, turns
// elapsed real time into frames and fans them out to subscribers.
package tick

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/metrics"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/simclock"
	"github.com/litescript/ls-orrery/internal/state"
)

// ErrDriverStopped is returned by Submit once Run has returned.
var ErrDriverStopped = errors.New("tick driver stopped")

// DefaultInterval is the default tick period.
const DefaultInterval = 100 * time.Millisecond

// Config configures a Driver. Zero fields take defaults.
type Config struct {
	Interval time.Duration
	Scene    scene.Config
	Metrics  *metrics.Collector
	Logger   *logging.Logger
}

type request struct {
	cmd  Command
	done chan struct{}
}

// Driver is the single owner of a simulated clock. Other goroutines steer the
// clock through Submit and observe it through the state manager or Subscribe.
type Driver struct {
	clock    *simclock.Clock
	state    *state.Manager
	metrics  *metrics.Collector
	logger   *logging.Logger
	interval time.Duration
	sceneCfg scene.Config

	commands chan request
	stopped  chan struct{}
	stopOnce sync.Once

	subsMu sync.Mutex
	subs   map[int]chan scene.Frame
	nextID int
}

// NewDriver creates a driver around clock, publishing into mgr.
func NewDriver(clock *simclock.Clock, mgr *state.Manager, cfg Config) *Driver {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Scene == (scene.Config{}) {
		cfg.Scene = scene.DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Driver{
		clock:    clock,
		state:    mgr,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		interval: cfg.Interval,
		sceneCfg: cfg.Scene,
		commands: make(chan request, 16),
		stopped:  make(chan struct{}),
		subs:     make(map[int]chan scene.Frame),
	}
}

// State returns the manager the driver publishes into.
func (d *Driver) State() *state.Manager {
	return d.state
}

// Interval returns the tick period.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Step advances the clock by realDelta, computes the ephemeris once and
// publishes the resulting frame. It must not be called while Run is active.
func (d *Driver) Step(realDelta time.Duration) scene.Frame {
	start := time.Now()

	d.clock.Advance(realDelta)
	st := astro.Ephemeris(d.clock.Current())
	f := scene.Compose(st, d.sceneCfg)

	elapsed := time.Since(start)
	speed := d.clock.Speed()
	d.state.Update(f, state.NewClockStatus(f.At, speed), elapsed)
	if d.metrics != nil {
		d.metrics.RecordTick(elapsed, st.KeplerSteps, speed, f.At)
	}
	d.publish(f)
	return f
}

// Run ticks until ctx is cancelled. Each tick advances the clock by the real
// time elapsed since the previous one, as reported by the clock's wall source.
// Commands are applied between ticks.
func (d *Driver) Run(ctx context.Context) {
	defer d.stop()

	wall := d.clock.Wall()
	ticker := wall.NewTicker(d.interval)
	defer ticker.Stop()

	last := wall.Now()
	d.Step(0)
	d.logger.Info("tick driver started", "interval", d.interval, "sim_time", d.clock.Current())

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("tick driver stopped", "sim_time", d.clock.Current())
			return
		case req := <-d.commands:
			d.apply(req)
			// Drain whatever else is queued before recomputing.
			for drained := false; !drained; {
				select {
				case req := <-d.commands:
					d.apply(req)
				default:
					drained = true
				}
			}
			d.Step(0)
		case now := <-ticker.Chan():
			delta := now.Sub(last)
			last = now
			if delta < 0 {
				delta = 0
			}
			d.Step(delta)
		}
	}
}

func (d *Driver) apply(req request) {
	typ, detail := req.cmd.apply(d)
	d.state.RecordCommand(typ, d.clock.Current(), detail)
	d.logger.Info("command applied", "event", typ, "detail", detail)
	close(req.done)
}

// Submit queues cmd for the running driver and waits until it has been
// applied.
func (d *Driver) Submit(ctx context.Context, cmd Command) error {
	if err := cmd.validate(); err != nil {
		return err
	}
	req := request{cmd: cmd, done: make(chan struct{})}

	select {
	case <-d.stopped:
		return ErrDriverStopped
	default:
	}

	select {
	case d.commands <- req:
	case <-d.stopped:
		return ErrDriverStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-d.stopped:
		return ErrDriverStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel of frames and a cancel function. A subscriber
// that falls behind loses its oldest buffered frame rather than blocking
// the tick. The channel is closed on cancel or when the driver stops.
func (d *Driver) Subscribe(buffer int) (<-chan scene.Frame, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan scene.Frame, buffer)

	d.subsMu.Lock()
	defer d.subsMu.Unlock()

	select {
	case <-d.stopped:
		close(ch)
		return ch, func() {}
	default:
	}

	id := d.nextID
	d.nextID++
	d.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.subsMu.Lock()
			defer d.subsMu.Unlock()
			if c, ok := d.subs[id]; ok {
				delete(d.subs, id)
				close(c)
			}
		})
	}
}

func (d *Driver) publish(f scene.Frame) {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()

	for _, ch := range d.subs {
		select {
		case ch <- f:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- f:
			default:
			}
		}
	}
}

func (d *Driver) stop() {
	d.stopOnce.Do(func() {
		d.subsMu.Lock()
		defer d.subsMu.Unlock()
		close(d.stopped)
		for id, ch := range d.subs {
			delete(d.subs, id)
			close(ch)
		}
	})
}
