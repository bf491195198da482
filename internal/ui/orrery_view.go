package ui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/scene"
)

// Projection selects how the orrery is looked at.
type Projection int

const (
	ProjectionTopDown Projection = iota // From ecliptic north
	ProjectionEdgeOn                    // Along the ecliptic plane
)

func (p Projection) String() string {
	if p == ProjectionEdgeOn {
		return "edge-on"
	}
	return "top-down"
}

// LabelMode controls how body labels are displayed.
type LabelMode int

const (
	LabelNone    LabelMode = iota // No labels
	LabelFocused                  // Only the focused body
	LabelAll                      // Every body
)

// Discrete zoom levels, as the distance in AU mapped to the canvas edge.
var zoomLevels = []float64{2.0, 1.2, 0.6, 0.2, 0.05, 0.01, 0.004}

const defaultZoom = 1

// OrreryModel renders the Sun-Earth-Moon system as seen from outside.
type OrreryModel struct {
	width  int
	height int
	frame  scene.Frame

	projection Projection
	zoomLevel  int // Index into zoomLevels
	scaleMode  astro.ScaleMode
	labelMode  LabelMode
}

// NewOrreryModel creates a top-down orrery framing Earth's orbit.
func NewOrreryModel() OrreryModel {
	return OrreryModel{
		zoomLevel: defaultZoom,
		scaleMode: astro.ScaleLinear,
		labelMode: LabelFocused,
	}
}

// SetSize updates the viewport size.
func (m OrreryModel) SetSize(width, height int) OrreryModel {
	m.width = width
	m.height = height
	return m
}

// UpdateFrame replaces the frame being drawn.
func (m OrreryModel) UpdateFrame(f scene.Frame) OrreryModel {
	m.frame = f
	return m
}

// SetProjection switches between the top-down and edge-on views.
func (m OrreryModel) SetProjection(p Projection) OrreryModel {
	m.projection = p
	return m
}

// ZoomIn narrows the field by one level.
func (m OrreryModel) ZoomIn() OrreryModel {
	if m.zoomLevel < len(zoomLevels)-1 {
		m.zoomLevel++
	}
	return m
}

// ZoomOut widens the field by one level.
func (m OrreryModel) ZoomOut() OrreryModel {
	if m.zoomLevel > 0 {
		m.zoomLevel--
	}
	return m
}

// Update handles view-local keys.
func (m OrreryModel) Update(msg tea.Msg) (OrreryModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "l":
			m.labelMode = (m.labelMode + 1) % 3
		case "s":
			if m.scaleMode == astro.ScaleLinear {
				m.scaleMode = astro.ScaleLog
			} else {
				m.scaleMode = astro.ScaleLinear
			}
		case "0":
			m.zoomLevel = defaultZoom
		}
	}
	return m, nil
}

// extentAU returns the distance mapped to the canvas edge.
func (m OrreryModel) extentAU() float64 {
	if m.zoomLevel < 0 || m.zoomLevel >= len(zoomLevels) {
		return zoomLevels[defaultZoom]
	}
	return zoomLevels[m.zoomLevel]
}

func (m OrreryModel) projectionConfig() astro.ProjectionConfig {
	scale := m.frame.Scale
	if scale <= 0 {
		scale = scene.DefaultScale
	}
	return astro.ProjectionConfig{
		Extent: m.extentAU() * scale,
		Mode:   m.scaleMode,
	}
}

func (m OrreryModel) project(v astro.Vec3, cfg astro.ProjectionConfig) astro.ProjectedPoint {
	if m.projection == ProjectionEdgeOn {
		return astro.ProjectEdgeOn(v, cfg)
	}
	return astro.ProjectTopDown(v, cfg)
}

// View renders the orrery canvas and its HUD.
func (m OrreryModel) View() string {
	if m.width < 40 || m.height < 10 {
		return "Terminal too small for orrery view"
	}
	if len(m.frame.Bodies) == 0 {
		return "Waiting for first frame..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.buildCanvas(), m.renderHUD())
}

// placed tracks a body's screen cell for label rendering.
type placed struct {
	x, y      int
	id        scene.BodyID
	depth     float64
	isFocused bool
}

// canvas is a character grid with the origin at its centre.
type canvas struct {
	grid     [][]rune
	cx, cy   int
	radius   float64 // Cells per normalized unit, horizontally
	width    int
	height   int
	occupied map[[2]int]bool
}

func newCanvas(width, height int) *canvas {
	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", width))
	}
	cx, cy := width/2, height/2
	return &canvas{
		grid:     grid,
		cx:       cx,
		cy:       cy,
		radius:   float64(min(cx, cy*2)) * 0.9,
		width:    width,
		height:   height,
		occupied: make(map[[2]int]bool),
	}
}

// cell maps a projected point to a grid cell. Terminal cells are about twice
// as tall as they are wide, so Y is halved.
func (c *canvas) cell(p astro.ProjectedPoint) (int, int, bool) {
	x := c.cx + int(math.Round(p.X*c.radius))
	y := c.cy - int(math.Round(p.Y*c.radius*0.5))
	return x, y, x >= 0 && x < c.width && y >= 0 && y < c.height
}

func (c *canvas) set(x, y int, r rune) {
	c.grid[y][x] = r
}

func (m OrreryModel) buildCanvas() string {
	// Reserve space for the HUD.
	c := newCanvas(m.width, max(m.height-4, 5))
	cfg := m.projectionConfig()

	for _, ring := range m.frame.Orbits {
		m.drawRing(c, ring, cfg)
	}

	var bodies []placed
	for _, b := range m.frame.Bodies {
		p := m.project(b.Pos, cfg)
		x, y, ok := c.cell(p)
		if !ok {
			continue
		}
		bodies = append(bodies, placed{x: x, y: y, id: b.ID, depth: p.Depth, isFocused: b.ID == m.frame.Focus})
	}

	// Far bodies first so nearer ones win a shared cell.
	sort.SliceStable(bodies, func(i, j int) bool { return bodies[i].depth < bodies[j].depth })
	for _, b := range bodies {
		c.set(b.x, b.y, bodyGlyph(b.id, b.isFocused))
		c.occupied[[2]int{b.x, b.y}] = true
	}

	m.renderLabels(c, bodies)
	return renderGrid(c.grid)
}

// drawRing samples an orbit ring in its own plane and plots it.
func (m OrreryModel) drawRing(c *canvas, ring scene.OrbitRing, cfg astro.ProjectionConfig) {
	if ring.Radius <= 0 {
		return
	}
	u, w := planeBasis(ring.Normal)
	const steps = 180
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / steps
		pt := ring.CenterPos.
			Add(u.Scale(ring.Radius * math.Cos(theta))).
			Add(w.Scale(ring.Radius * math.Sin(theta)))
		x, y, ok := c.cell(m.project(pt, cfg))
		if ok && c.grid[y][x] == ' ' {
			c.set(x, y, '·')
		}
	}
}

// planeBasis returns two unit vectors spanning the plane with normal n.
func planeBasis(n astro.Vec3) (astro.Vec3, astro.Vec3) {
	n = n.Normalized()
	if n.Norm() == 0 {
		n = astro.Vec3{Y: 1}
	}
	ref := astro.Vec3{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = astro.Vec3{Z: 1}
	}
	u := n.Cross(ref).Normalized()
	return u, n.Cross(u).Normalized()
}

func (m OrreryModel) renderLabels(c *canvas, bodies []placed) {
	if m.labelMode == LabelNone {
		return
	}
	for _, b := range bodies {
		if m.labelMode == LabelFocused && !b.isFocused {
			continue
		}
		text := b.id.Title()
		if b.isFocused {
			text = "◄ " + text
		}
		x := b.x + 2
		for _, r := range text {
			if x >= c.width {
				break
			}
			if !c.occupied[[2]int{x, b.y}] {
				c.set(x, b.y, r)
			}
			x++
		}
	}
}

func bodyGlyph(id scene.BodyID, focused bool) rune {
	switch id {
	case scene.Sun:
		return '☉'
	case scene.Earth:
		if focused {
			return '◉'
		}
		return '⊕'
	case scene.Moon:
		if focused {
			return '●'
		}
		return '○'
	default:
		return '?'
	}
}

func renderGrid(grid [][]rune) string {
	var b strings.Builder

	ringStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sunStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	earthStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	moonStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("249"))

	for _, row := range grid {
		for _, ch := range row {
			var style lipgloss.Style
			switch ch {
			case ' ':
				b.WriteRune(ch)
				continue
			case '·':
				style = ringStyle
			case '☉':
				style = sunStyle
			case '⊕':
				style = earthStyle
			case '○':
				style = moonStyle
			case '◉', '●', '◄':
				style = focusStyle
			default:
				style = labelStyle
			}
			b.WriteString(style.Render(string(ch)))
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func (m OrreryModel) renderHUD() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	f := m.frame
	focus := f.Body(f.Focus)
	b.WriteString(headerStyle.Render(fmt.Sprintf("%c %s", bodyGlyph(f.Focus, true), f.Focus.Title())))
	if focus != nil && f.Focus != scene.Sun {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Distance: "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.5f AU", focus.DistanceAU())))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Light: "))
		b.WriteString(valueStyle.Render(astro.FormatLightTime(focus.LightTimeSec())))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("λ "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.2f°", focus.EclipticLonDeg())))
		b.WriteString(labelStyle.Render("  β "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%+.3f°", focus.EclipticLatDeg())))
	}
	b.WriteString("\n")

	moonKm := f.Ephemeris.Moon.Position.Norm() * astro.AU
	b.WriteString(labelStyle.Render("Moon: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s %.0f%%  %.0f km", f.PhaseName, f.Illumination*100, moonKm)))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("Sub-solar: "))
	b.WriteString(valueStyle.Render(formatLatLon(f.SubSolar.LatDeg, f.SubSolar.LonDeg)))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("Shadow: "))
	b.WriteString(valueStyle.Render(formatShadow(f.Shadow)))
	b.WriteString("\n")

	b.WriteString(dimStyle.Render(fmt.Sprintf("%s · %s · field %.3g AU · Moon ×%g",
		m.projection, m.scaleMode, m.extentAU(), moonExaggeration(f))))
	return b.String()
}

// moonExaggeration recovers the Earth-Moon distance multiplier of a frame.
func moonExaggeration(f scene.Frame) float64 {
	earth, moon := f.Body(scene.Earth), f.Body(scene.Moon)
	geo := f.Ephemeris.Moon.Position.Norm()
	if earth == nil || moon == nil || geo == 0 || f.Scale == 0 {
		return 1
	}
	return math.Round(moon.Pos.Sub(earth.Pos).Norm()/f.Scale/geo*10) / 10
}

func formatShadow(sh astro.Shadow) string {
	if !sh.Hit {
		if math.IsInf(sh.Gamma, 0) {
			return "none"
		}
		return fmt.Sprintf("off Earth (γ %+.2f)", sh.Gamma)
	}
	return fmt.Sprintf("%s (γ %+.2f)", formatLatLon(sh.LatDeg, sh.LonDeg), sh.Gamma)
}

// formatLatLon renders a ground point as 16.80°S 73.50°W.
func formatLatLon(latDeg, lonDeg float64) string {
	ns, ew := "N", "E"
	if latDeg < 0 {
		ns = "S"
	}
	if lonDeg < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.2f°%s %.2f°%s", math.Abs(latDeg), ns, math.Abs(lonDeg), ew)
}
