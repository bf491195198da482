// Package state provides thread-safe state management for the simulation.
package state

import (
	"math"
	"sync"
	"time"

	"github.com/litescript/ls-orrery/internal/scene"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventNewMoon          EventType = "NEW_MOON"
	EventFullMoon         EventType = "FULL_MOON"
	EventEclipseAlignment EventType = "ECLIPSE_ALIGNMENT"
	EventSpeedChanged     EventType = "SPEED_CHANGED"
	EventSynced           EventType = "SYNCED"
	EventJumped           EventType = "JUMPED"
	EventTimeSet          EventType = "TIME_SET"
	EventFocusChanged     EventType = "FOCUS_CHANGED"
)

// Event represents a notable change in the simulation.
type Event struct {
	Type    EventType `json:"type"`
	SimTime time.Time `json:"sim_time"`
	Wall    time.Time `json:"wall"`
	Detail  string    `json:"detail,omitempty"`
}

// ClockStatus describes the simulated clock as of the latest update.
type ClockStatus struct {
	Speed    float64   `json:"speed"`
	Paused   bool      `json:"paused"`
	Reversed bool      `json:"reversed"`
	SimTime  time.Time `json:"sim_time"`
}

// NewClockStatus derives the status flags from a speed.
func NewClockStatus(simTime time.Time, speed float64) ClockStatus {
	return ClockStatus{
		Speed:    speed,
		Paused:   speed == 0,
		Reversed: speed < 0,
		SimTime:  simTime,
	}
}

// HistoryEntry is one sample of the slowly varying frame quantities.
type HistoryEntry struct {
	SimTime      time.Time
	Illumination float64
	Gamma        float64
}

// maxCrossingSpan bounds the simulated step over which phase crossings are
// detected. Longer steps are jumps and skip detection.
const maxCrossingSpan = 10 * 24 * time.Hour

// Manager handles all shared simulation state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Current state
	current      *scene.Frame
	status       ClockStatus
	lastUpdate   time.Time
	stepDuration time.Duration
	ticks        uint64

	// History buffer
	history       []HistoryEntry
	maxHistoryLen int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	now func() time.Time
}

// Config holds configuration for the state manager.
type Config struct {
	MaxHistoryLen int
	MaxEvents     int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistoryLen: 600, // ~1 minute of frames at 10 Hz
		MaxEvents:     50,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	maxHistory := cfg.MaxHistoryLen
	if maxHistory <= 0 {
		maxHistory = DefaultConfig().MaxHistoryLen
	}
	return &Manager{
		maxHistoryLen: maxHistory,
		maxEvents:     maxEvents,
		events:        make([]Event, 0, maxEvents),
		now:           time.Now,
	}
}

// SetNow replaces the wall clock used to stamp events.
func (m *Manager) SetNow(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Update atomically stores a new frame and the clock status that produced it.
func (m *Manager) Update(f scene.Frame, status ClockStatus, stepDuration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastUpdate = m.now()
	m.stepDuration = stepDuration
	m.status = status
	m.ticks++

	// Detect events before replacing the current frame
	if m.current != nil {
		m.detectEvents(*m.current, f)
	}
	m.current = &f

	m.history = append(m.history, HistoryEntry{
		SimTime:      f.At,
		Illumination: f.Illumination,
		Gamma:        f.Shadow.Gamma,
	})
	if len(m.history) > m.maxHistoryLen {
		m.history = m.history[1:]
	}
}

// detectEvents compares consecutive frames and generates events.
func (m *Manager) detectEvents(prev, next scene.Frame) {
	span := next.At.Sub(prev.At)
	if span < 0 {
		span = -span
	}
	if span <= maxCrossingSpan {
		e0 := prev.Ephemeris.Elongation()
		e1 := next.Ephemeris.Elongation()
		delta := math.Mod(e1-e0+540, 360) - 180
		if crossesMultipleOf360(e0, delta) {
			m.addEvent(Event{Type: EventNewMoon, SimTime: next.At, Wall: m.lastUpdate})
		}
		if crossesMultipleOf360(e0-180, delta) {
			m.addEvent(Event{Type: EventFullMoon, SimTime: next.At, Wall: m.lastUpdate})
		}
	}

	if next.Shadow.Hit && !prev.Shadow.Hit {
		m.addEvent(Event{
			Type:    EventEclipseAlignment,
			SimTime: next.At,
			Wall:    m.lastUpdate,
			Detail:  formatShadow(next),
		})
	}
}

// crossesMultipleOf360 reports whether moving from x by delta passes a
// multiple of 360 in either direction.
func crossesMultipleOf360(x, delta float64) bool {
	if delta == 0 {
		return false
	}
	return math.Floor(x/360) != math.Floor((x+delta)/360)
}

// RecordCommand appends an event for an operator command.
func (m *Manager) RecordCommand(t EventType, simTime time.Time, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addEvent(Event{Type: t, SimTime: simTime, Wall: m.now(), Detail: detail})
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Frame        *scene.Frame
	Clock        ClockStatus
	LastUpdate   time.Time
	StepDuration time.Duration
	Ticks        uint64
	History      []HistoryEntry
	Events       []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var frame *scene.Frame
	if m.current != nil {
		f := *m.current
		f.Bodies = append([]scene.Body(nil), m.current.Bodies...)
		f.Orbits = append([]scene.OrbitRing(nil), m.current.Orbits...)
		frame = &f
	}

	history := make([]HistoryEntry, len(m.history))
	copy(history, m.history)

	return Snapshot{
		Frame:        frame,
		Clock:        m.status,
		LastUpdate:   m.lastUpdate,
		StepDuration: m.stepDuration,
		Ticks:        m.ticks,
		History:      history,
		Events:       m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		result[i] = m.events[(m.eventWriteAt+i)%m.maxEvents]
	}
	return result
}

// RecentEvents returns the last n events, oldest first.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if n < 0 {
		n = 0
	}
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// Clock returns the latest clock status.
func (m *Manager) Clock() ClockStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Ticks returns the number of frames stored so far.
func (m *Manager) Ticks() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ticks
}

// HasData returns true once at least one frame has been stored.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}
