// Package ui provides the terminal orrery using Bubble Tea.
package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/simclock"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewOrrery ViewMode = iota
	ViewEdgeOn
	ViewSky
	ViewEvents
	viewCount
)

const (
	animInterval = 80 * time.Millisecond

	// Speed magnitudes reachable with the +/- keys.
	minSpeed = 1e-3
	maxSpeed = 1e9

	eclipseHorizon = 2 * 366 * 24 * time.Hour
)

// moonExaggerations are the Earth-Moon distance multipliers cycled by "m".
var moonExaggerations = []float64{1, 10, 50}

// AnimTickMsg triggers one simulation step and redraw.
type AnimTickMsg time.Time

// Options configures the root model.
type Options struct {
	Scene    scene.Config
	Observer astro.Observer
	Logger   *logging.Logger
}

// Model is the root Bubble Tea model. It owns the simulated clock: every
// AnimTickMsg advances it by the real time elapsed since the previous one.
type Model struct {
	// Dependencies
	clock  *simclock.Clock
	state  *state.Manager
	logger *logging.Logger

	sceneCfg    scene.Config
	pausedSpeed float64 // Speed restored when resuming
	lastTick    time.Time
	frame       scene.Frame

	// UI state
	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int

	// Sub-models
	orrery OrreryModel
	sky    SkyViewModel
	events EventsModel
}

// New creates the root UI model and composes its first frame.
func New(clock *simclock.Clock, mgr *state.Manager, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	cfg := opts.Scene
	if cfg.Validate() != nil {
		cfg = scene.DefaultConfig()
	}
	m := Model{
		clock:       clock,
		state:       mgr,
		logger:      logger,
		sceneCfg:    cfg,
		pausedSpeed: 1,
		lastTick:    clock.Wall().Now(),
		orrery:      NewOrreryModel(),
		sky:         NewSkyViewModel(opts.Observer),
		events:      NewEventsModel(),
	}
	m.step(0)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return animTickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "+", "=":
			m.scaleSpeed(10)
		case "-", "_":
			m.scaleSpeed(0.1)
		case " ":
			m.togglePause()
		case "r":
			m.reverse()
		case "n":
			m.clock.SyncToRealTime()
			m.pausedSpeed = 1
			m.command(state.EventSynced, "")
		case "[":
			m.jump(-24 * time.Hour)
		case "]":
			m.jump(24 * time.Hour)
		case "{":
			m.jump(-30 * 24 * time.Hour)
		case "}":
			m.jump(30 * 24 * time.Hour)
		case "e":
			m.jumpToNextEclipse()

		case "f":
			m.sceneCfg.Focus = m.sceneCfg.Focus.Next()
			m.command(state.EventFocusChanged, m.sceneCfg.Focus.Title())
		case "m":
			m.sceneCfg.MoonExaggeration = nextExaggeration(m.sceneCfg.MoonExaggeration)
			m.statusMsg = fmt.Sprintf("Moon distance ×%g", m.sceneCfg.MoonExaggeration)
			m.step(0)
		case "v", "tab":
			m.setView((m.viewMode + 1) % viewCount)
		case "z":
			m.orrery = m.orrery.ZoomIn()
		case "x":
			m.orrery = m.orrery.ZoomOut()

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Header takes 3 lines, footer 2
		contentHeight := msg.Height - 6
		m.orrery = m.orrery.SetSize(msg.Width, contentHeight)
		m.sky = m.sky.SetSize(msg.Width, contentHeight)
		m.events = m.events.SetSize(msg.Width, contentHeight)

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++
		now := m.clock.Wall().Now()
		delta := now.Sub(m.lastTick)
		m.lastTick = now
		m.step(max(delta, 0))

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

// step advances the clock and composes one frame from a single ephemeris query.
func (m *Model) step(realDelta time.Duration) {
	start := time.Now()
	m.clock.Advance(realDelta)
	st := astro.Ephemeris(m.clock.Current())
	f := scene.Compose(st, m.sceneCfg)
	m.state.Update(f, state.NewClockStatus(f.At, m.clock.Speed()), time.Since(start))

	m.frame = f
	m.orrery = m.orrery.UpdateFrame(f)
	m.refreshActiveView()
}

// refreshActiveView pushes the current frame to views that are only kept
// up to date while visible.
func (m *Model) refreshActiveView() {
	switch m.viewMode {
	case ViewSky:
		m.sky = m.sky.UpdateFrame(m.frame)
	case ViewEvents:
		m.events = m.events.UpdateData(m.state.Snapshot())
	}
}

func (m *Model) setView(v ViewMode) {
	m.viewMode = v
	switch v {
	case ViewOrrery:
		m.orrery = m.orrery.SetProjection(ProjectionTopDown)
	case ViewEdgeOn:
		m.orrery = m.orrery.SetProjection(ProjectionEdgeOn)
	}
	m.refreshActiveView()
}

// command records a clock or scene change and recomposes the frame.
func (m *Model) command(t state.EventType, detail string) {
	m.state.RecordCommand(t, m.clock.Current(), detail)
	m.logger.Debug("tui command", "type", t, "detail", detail, "sim_time", m.clock.Current())
	m.statusMsg = strings.TrimSpace(string(t) + " " + detail)
	m.step(0)
}

func (m *Model) setSpeed(speed float64) {
	m.clock.SetSpeed(speed)
	m.command(state.EventSpeedChanged, formatSpeed(speed))
}

func (m *Model) scaleSpeed(factor float64) {
	if m.clock.Speed() == 0 {
		m.pausedSpeed = clampSpeed(m.pausedSpeed * factor)
		m.statusMsg = "paused, resumes at " + formatSpeed(m.pausedSpeed)
		return
	}
	m.setSpeed(clampSpeed(m.clock.Speed() * factor))
}

func (m *Model) togglePause() {
	if speed := m.clock.Speed(); speed != 0 {
		m.pausedSpeed = speed
		m.setSpeed(0)
		return
	}
	m.setSpeed(m.pausedSpeed)
}

func (m *Model) reverse() {
	if m.clock.Speed() == 0 {
		m.pausedSpeed = -m.pausedSpeed
		m.statusMsg = "paused, resumes at " + formatSpeed(m.pausedSpeed)
		return
	}
	m.setSpeed(-m.clock.Speed())
}

func (m *Model) jump(d time.Duration) {
	m.clock.SetCurrent(m.clock.Current().Add(d))
	m.command(state.EventJumped, formatOffset(d))
}

func (m *Model) jumpToNextEclipse() {
	ec, ok := astro.NextEclipse(m.clock.Current(), eclipseHorizon)
	if !ok {
		m.statusMsg = "no eclipse within two years"
		return
	}
	m.clock.SetCurrent(ec.At)
	m.command(state.EventJumped, fmt.Sprintf("to %s eclipse, gamma %+.3f", ec.Kind(), ec.Gamma))
}

// clampSpeed bounds a non-zero speed's magnitude, keeping its sign.
func clampSpeed(s float64) float64 {
	if s == 0 || math.IsNaN(s) {
		return 1
	}
	a := math.Min(math.Max(math.Abs(s), minSpeed), maxSpeed)
	return math.Copysign(a, s)
}

func nextExaggeration(cur float64) float64 {
	for i, e := range moonExaggerations {
		if e == cur {
			return moonExaggerations[(i+1)%len(moonExaggerations)]
		}
	}
	return moonExaggerations[0]
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewOrrery, ViewEdgeOn:
		m.orrery, cmd = m.orrery.Update(msg)
	case ViewSky:
		m.sky, cmd = m.sky.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewOrrery, ViewEdgeOn:
		content = m.orrery.View()
	case ViewSky:
		content = m.sky.View()
	case ViewEvents:
		content = m.events.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	return m.renderTitle() + m.renderTabs() + "\n" + m.renderClockLine() + "\n"
}

func (m Model) renderTitle() string {
	title := []rune(" ls-orrery ")
	var b strings.Builder
	b.WriteString(" ")
	for col, r := range title {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(gradientColor(col, 0, len(title), 1)))
		b.WriteString(style.Render(string(r)))
	}
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(" v" + version.Version + "  "))
	return b.String()
}

// gradientColor returns a hex color for a position in the title gradient:
// blue, purple, magenta, then pink.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64
	if xRatio < 0.33 {
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	// Vertical fade: brighter at top
	brightness := 1.0 - (yRatio * 0.5)
	clamp := func(v float64) int { return min(max(int(v*brightness), 0), 255) }
	return fmt.Sprintf("#%02X%02X%02X", clamp(r), clamp(g), clamp(b))
}

func (m Model) renderTabs() string {
	tabs := []string{"Orrery", "Edge-on", "Sky", "Events"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderClockLine() string {
	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	speedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	speed := m.clock.Speed()
	if speed == 0 {
		speedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	}
	return "  " + timeStyle.Render(m.frame.At.UTC().Format("2006-01-02 15:04:05 UTC")) + "  " +
		speedStyle.Render(formatSpeed(speed)) + "  " +
		dimStyle.Render(fmt.Sprintf("day %.3f  focus %s", m.frame.DayCount, m.sceneCfg.Focus.Title()))
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]
	if m.clock.Speed() == 0 {
		spinner = "‖"
	}

	clockHelp := "+/-: speed | space: pause | r: reverse | n: now | [ ]: ∓day | { }: ∓30d | e: eclipse"
	var help string
	switch m.viewMode {
	case ViewOrrery, ViewEdgeOn:
		help = "f: focus | z/x: zoom | m: moon distance | l: labels | s: scale | 0: reset zoom | v: view | q: quit"
	case ViewSky:
		help = "c: camera | v: view | q: quit"
	default:
		help = "v: view | q: quit"
	}

	footer := "  " + accentStyle.Render(spinner) + "  " + dimStyle.Render(clockHelp) + "\n  " + dimStyle.Render(help)
	if m.statusMsg != "" {
		footer += "  " + accentStyle.Render(m.statusMsg)
	}
	return footer
}

func animTickCmd() tea.Cmd {
	return tea.Tick(animInterval, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// formatSpeed renders a speed multiplier with its simulated span per real
// second, as "▶ ×3600 (1h/s)".
func formatSpeed(s float64) string {
	if s == 0 {
		return "‖ paused"
	}
	dir := "▶"
	if s < 0 {
		dir = "◀"
	}
	a := math.Abs(s)
	return fmt.Sprintf("%s ×%s (%s/s)", dir, strconv.FormatFloat(roundSig(a, 4), 'f', -1, 64), humanSpan(a))
}

// roundSig rounds a positive x to n significant digits.
func roundSig(x float64, n int) float64 {
	e := n - 1 - int(math.Floor(math.Log10(x)))
	if e >= 0 {
		p := math.Pow10(e)
		return math.Round(x*p) / p
	}
	p := math.Pow10(-e)
	return math.Round(x/p) * p
}

// humanSpan renders a number of seconds in the largest fitting unit.
func humanSpan(sec float64) string {
	const (
		minute = 60.0
		hour   = 60 * minute
		day    = 24 * hour
		year   = 365.25 * day
	)
	switch {
	case sec < minute:
		return strconv.FormatFloat(sec, 'g', 3, 64) + "s"
	case sec < hour:
		return strconv.FormatFloat(sec/minute, 'g', 3, 64) + "m"
	case sec < day:
		return strconv.FormatFloat(sec/hour, 'g', 3, 64) + "h"
	case sec < year:
		return strconv.FormatFloat(sec/day, 'g', 3, 64) + "d"
	default:
		return strconv.FormatFloat(sec/year, 'g', 3, 64) + "y"
	}
}

// formatOffset renders a jump as +1d or -30d.
func formatOffset(d time.Duration) string {
	days := d.Hours() / 24
	return fmt.Sprintf("%+gd", days)
}
