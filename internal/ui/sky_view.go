package ui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/scene"
)

const (
	// Field of view in degrees
	fovAz = 120.0 // horizontal FOV
	fovEl = 60.0  // vertical FOV

	// Camera easing per frame toward its target
	camEase = 0.35

	glyphSun  = '☉'
	glyphMoon = '◐'

	colorSun  = "220"
	colorMoon = "#d0c8ff"

	// Star glyphs by magnitude
	glyphStarBright = '✶' // mag < 1.5
	glyphStarMedium = '✸' // mag 1.5-3.0
	glyphStarDim    = '·' // mag > 3.0

	// Star colors (grayscale to not compete with the Sun and Moon)
	colorStarBright = "255"
	colorStarMedium = "250"
	colorStarDim    = "244"
)

// CameraTarget selects what the sky camera follows.
type CameraTarget int

const (
	CameraMoon CameraTarget = iota
	CameraSun
	CameraSouth
)

func (c CameraTarget) String() string {
	switch c {
	case CameraSun:
		return "Sun"
	case CameraSouth:
		return "south"
	default:
		return "Moon"
	}
}

// riseSetPanel holds the day's rise/set windows for the Sun and Moon.
type riseSetPanel struct {
	day  time.Time // UTC midnight the windows start at
	sun  astro.VisibilityWindow
	moon astro.VisibilityWindow
	err  error
}

// SkyViewModel renders an observer's sky with the Sun, Moon and bright stars.
type SkyViewModel struct {
	width  int
	height int

	observer astro.Observer
	frame    scene.Frame
	stars    []astro.Star

	sun  astro.Horizontal
	moon astro.Horizontal

	// Camera position (center of view)
	camAz  float64
	camEl  float64
	target CameraTarget

	panel riseSetPanel
}

// NewSkyViewModel creates a sky view for an observer.
func NewSkyViewModel(obs astro.Observer) SkyViewModel {
	return SkyViewModel{
		observer: obs,
		stars:    astro.BrightStars(),
		camAz:    180,
		camEl:    30,
	}
}

// SetSize updates the viewport size.
func (m SkyViewModel) SetSize(width, height int) SkyViewModel {
	m.width = width
	m.height = height
	return m
}

// UpdateFrame recomputes the sky for a new frame and eases the camera
// toward its target.
func (m SkyViewModel) UpdateFrame(f scene.Frame) SkyViewModel {
	m.frame = f
	m.sun = astro.SunHorizontal(m.observer, f.Ephemeris)
	m.moon = astro.MoonHorizontal(m.observer, f.Ephemeris)

	day := f.At.UTC().Truncate(24 * time.Hour)
	if !day.Equal(m.panel.day) {
		m.panel = computeRiseSet(m.observer, day)
	}

	az, el := m.targetAzEl()
	m.camAz = normalize360(lerpAngle(m.camAz, az, camEase))
	m.camEl = lerp(m.camEl, el, camEase)
	return m
}

func computeRiseSet(obs astro.Observer, day time.Time) riseSetPanel {
	p := riseSetPanel{day: day}
	var sunErr, moonErr error
	p.sun, sunErr = astro.RiseSet(obs, astro.TargetSun, day, 24*time.Hour)
	p.moon, moonErr = astro.RiseSet(obs, astro.TargetMoon, day, 24*time.Hour)
	p.err = errors.Join(sunErr, moonErr)
	return p
}

// targetAzEl returns where the camera should point. Bodies below the
// horizon keep the camera just above it.
func (m SkyViewModel) targetAzEl() (float64, float64) {
	switch m.target {
	case CameraSun:
		return m.sun.AzDeg, math.Max(m.sun.ElDeg, fovEl/2-5)
	case CameraSouth:
		return 180, fovEl/2 - 5
	default:
		return m.moon.AzDeg, math.Max(m.moon.ElDeg, fovEl/2-5)
	}
}

// Update handles view-local keys.
func (m SkyViewModel) Update(msg tea.Msg) (SkyViewModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "c" {
		m.target = (m.target + 1) % 3
	}
	return m, nil
}

// View renders the sky view.
func (m SkyViewModel) View() string {
	if m.width < 20 || m.height < 10 {
		return "Sky view requires larger terminal"
	}

	// Reserve lines for header and status
	viewHeight := m.height - 5

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSkyCanvas(m.width, viewHeight))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m SkyViewModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	name := m.observer.Name
	if name == "" {
		name = "Observer"
	}
	return titleStyle.Render("Sky from "+name) + "  " +
		dimStyle.Render(fmt.Sprintf("%s  camera: %s", formatLatLon(m.observer.LatDeg, m.observer.LonDeg), m.target))
}

func (m SkyViewModel) renderStatus() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	sep := astro.SunMoonSeparation(m.observer, m.frame.Ephemeris)
	lines := []string{
		labelStyle.Render("Sun  ") + valueStyle.Render(fmt.Sprintf("az %6.1f° el %+5.1f°", m.sun.AzDeg, m.sun.ElDeg)) + "   " +
			renderWindow(m.panel.sun),
		labelStyle.Render("Moon ") + valueStyle.Render(fmt.Sprintf("az %6.1f° el %+5.1f°", m.moon.AzDeg, m.moon.ElDeg)) + "   " +
			renderWindow(m.panel.moon),
		dimStyle.Render(fmt.Sprintf("Sun-Moon %.1f°  lit %.0f%%  times UTC", sep, m.frame.Illumination*100)),
	}
	if m.panel.err != nil {
		lines = append(lines, dimStyle.Render("rise/set: "+m.panel.err.Error()))
	}
	return strings.Join(lines, "\n")
}

// renderWindow formats a rise/transit/set window as
// "Rise 05:12   Peak 12:01 @ 61°   Set 20:48".
func renderWindow(w astro.VisibilityWindow) string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(tierColor(astro.GetElevationTier(w.MaxElevation))))

	switch {
	case w.NeverVisible:
		return dimStyle.Render("Below horizon all day")
	case w.AlwaysVisible:
		return style.Render(fmt.Sprintf("Always up, peak %s @ %.0f°", w.Transit.UTC().Format("15:04"), w.MaxElevation))
	}

	var parts []string
	if !w.Rise.IsZero() {
		parts = append(parts, "Rise "+w.Rise.UTC().Format("15:04"))
	}
	if !w.Transit.IsZero() {
		parts = append(parts, fmt.Sprintf("Peak %s @ %.0f°", w.Transit.UTC().Format("15:04"), w.MaxElevation))
	}
	if !w.Set.IsZero() {
		parts = append(parts, "Set "+w.Set.UTC().Format("15:04"))
	}
	if len(parts) == 0 {
		return dimStyle.Render("Calculating...")
	}
	return style.Render(strings.Join(parts, "   "))
}

func tierColor(t astro.ElevationTier) string {
	switch t {
	case astro.ElevationHigh:
		return "#7CFC00"
	case astro.ElevationMedium:
		return "#FFD700"
	case astro.ElevationLow:
		return "#FF6347"
	default:
		return "#444444"
	}
}

func (m SkyViewModel) renderSkyCanvas(width, height int) string {
	canvas := make([][]rune, height)
	colors := make([][]lipgloss.Color, height)
	for y := 0; y < height; y++ {
		canvas[y] = []rune(strings.Repeat(" ", width))
		colors[y] = make([]lipgloss.Color, width)
		for x := range colors[y] {
			colors[y][x] = "236"
		}
	}

	horizonY := height - 2
	plot := func(h astro.Horizontal, glyph rune, color lipgloss.Color) {
		if h.ElDeg <= 0 {
			return
		}
		x, y, visible := m.projectToScreen(h.AzDeg, h.ElDeg, width, height)
		if !visible || x < 0 || x >= width || y < 0 || y >= horizonY {
			return
		}
		canvas[y][x] = glyph
		colors[y][x] = color
	}

	// Stars only show once the Sun is well down.
	if m.sun.ElDeg < -6 {
		for _, star := range m.stars {
			glyph, color := starGlyph(star.Mag)
			plot(astro.StarHorizontal(m.observer, star, m.frame.Ephemeris), glyph, color)
		}
	}

	for x := 0; x < width; x++ {
		canvas[horizonY][x] = '─'
		colors[horizonY][x] = "60"
	}
	for _, c := range []struct {
		label string
		az    float64
	}{{"N", 0}, {"E", 90}, {"S", 180}, {"W", 270}} {
		m.drawCardinal(canvas, colors, width, height, c.label, c.az)
	}

	plot(m.sun, glyphSun, colorSun)
	plot(m.moon, glyphMoon, colorMoon)

	stationX, stationY := width/2, height-1
	if stationY >= 0 && stationX >= 0 && stationX < width {
		canvas[stationY][stationX] = '▲'
		colors[stationY][stationX] = "46"
	}

	var b strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			style := lipgloss.NewStyle().Foreground(colors[y][x])
			b.WriteString(style.Render(string(canvas[y][x])))
		}
		if y < height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// starGlyph returns the glyph and color for a star by magnitude.
func starGlyph(mag float64) (rune, lipgloss.Color) {
	switch {
	case mag < 1.5:
		return glyphStarBright, colorStarBright
	case mag < 3.0:
		return glyphStarMedium, colorStarMedium
	default:
		return glyphStarDim, colorStarDim
	}
}

func (m SkyViewModel) drawCardinal(canvas [][]rune, colors [][]lipgloss.Color, width, height int, label string, az float64) {
	x, _, visible := m.projectToScreen(az, 0, width, height)
	if !visible {
		return
	}
	y := height - 2
	if x >= 0 && x < width && y >= 0 && y < height {
		canvas[y][x] = rune(label[0])
		colors[y][x] = "252"
	}
}

// projectToScreen converts az/el to screen coordinates relative to the camera.
func (m SkyViewModel) projectToScreen(az, el float64, width, height int) (int, int, bool) {
	dAz := normalizeAngle(az - m.camAz)
	dEl := el - m.camEl

	if dAz < -fovAz/2 || dAz > fovAz/2 {
		return 0, 0, false
	}
	if dEl < -fovEl/2 || dEl > fovEl/2 {
		return 0, 0, false
	}

	horizonY := height - 2
	x := int((dAz + fovAz/2) / fovAz * float64(width))
	y := int((fovEl/2 - dEl) / fovEl * float64(horizonY))
	return x, y, true
}

// normalizeAngle wraps angle to -180..+180 range
func normalizeAngle(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a < -180 {
		a += 360
	}
	return a
}

func normalize360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// lerpAngle interpolates between angles, taking shortest path
func lerpAngle(a, b, t float64) float64 {
	diff := normalizeAngle(b - a)
	return a + diff*t
}

// lerp linear interpolation
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
