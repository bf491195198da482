package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/reference"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/simclock"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/tick"
)

const (
	// maxEclipseSpan bounds one eclipse search request.
	maxEclipseSpan = 20 * 366 * 24 * time.Hour

	// maxCheckSamples bounds one reference sweep request.
	maxCheckSamples = 20000

	defaultEvents = 20
)

func respondError(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

// simNow returns the latest simulated instant, or wall now before the first tick.
func (s *Server) simNow() time.Time {
	if st := s.driver.State().Clock(); !st.SimTime.IsZero() {
		return st.SimTime
	}
	return s.now().UTC()
}

// instantParam parses an optional instant query parameter.
func (s *Server) instantParam(c *gin.Context, name string, def time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	t, err := simclock.ParseInstant(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

func durationParam(c *gin.Context, name string, def time.Duration) (time.Duration, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", name, raw)
	}
	return d, nil
}

// ephemerisResponse is the engine output at one instant.
type ephemerisResponse struct {
	At           time.Time             `json:"at"`
	DayCount     float64               `json:"day_count"`
	Earth        scene.BodyStateExport `json:"earth"`
	Moon         scene.BodyStateExport `json:"moon"`
	MoonAbsolute scene.Vec3Export      `json:"moon_absolute"`
	Elongation   float64               `json:"elongation_deg"`
	Illumination float64               `json:"illumination"`
	KeplerSteps  int                   `json:"kepler_steps"`
	SubSolar     scene.GeoPoint        `json:"sub_solar"`
	SubLunar     scene.GeoPoint        `json:"sub_lunar"`
	Shadow       *scene.ShadowExport   `json:"shadow,omitempty"`
}

func (s *Server) getEphemeris(c *gin.Context) {
	at, err := s.instantParam(c, "t", s.simNow())
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	st := astro.Ephemeris(at)
	moonAbs := st.MoonAbsolute()
	resp := ephemerisResponse{
		At:           st.At,
		DayCount:     st.DayCount,
		Earth:        scene.ExportBodyState(st.Earth),
		Moon:         scene.ExportBodyState(st.Moon),
		MoonAbsolute: scene.Vec3Export{X: moonAbs.X, Y: moonAbs.Y, Z: moonAbs.Z},
		Elongation:   st.Elongation(),
		Illumination: st.Illumination(),
		KeplerSteps:  st.KeplerSteps,
		Shadow:       scene.ExportShadow(astro.ShadowGroundPoint(st)),
	}
	resp.SubSolar.LonDeg, resp.SubSolar.LatDeg = astro.SubSolarPoint(st)
	resp.SubLunar.LonDeg, resp.SubLunar.LatDeg = astro.SubLunarPoint(st)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getFrame(c *gin.Context) {
	snap := s.driver.State().Snapshot()
	if snap.Frame == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("no frame yet"))
		return
	}
	c.JSON(http.StatusOK, scene.ExportFrame(*snap.Frame))
}

func (s *Server) getEvents(c *gin.Context) {
	n := defaultEvents
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			respondError(c, http.StatusBadRequest, fmt.Errorf("n: invalid count %q", raw))
			return
		}
		n = v
	}
	events := s.driver.State().RecentEvents(n)
	if events == nil {
		events = []state.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type eclipseResponse struct {
	At     time.Time      `json:"at"`
	Kind   string         `json:"kind"`
	Gamma  float64        `json:"gamma"`
	Ground scene.GeoPoint `json:"ground"`
}

func (s *Server) getEclipses(c *gin.Context) {
	now := s.simNow()
	start, err := s.instantParam(c, "start", now)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	end, err := s.instantParam(c, "end", start.AddDate(1, 0, 0))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	step, err := durationParam(c, "step", time.Hour)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if end.Sub(start) > maxEclipseSpan || step < time.Minute {
		respondError(c, http.StatusBadRequest, errors.New("search limited to 20 years at steps of a minute or more"))
		return
	}

	found, err := astro.SearchEclipses(start, end, step)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	out := make([]eclipseResponse, 0, len(found))
	for _, e := range found {
		out = append(out, eclipseResponse{
			At:     e.At,
			Kind:   e.Kind(),
			Gamma:  e.Gamma,
			Ground: scene.GeoPoint{LonDeg: e.LonDeg, LatDeg: e.LatDeg},
		})
	}
	c.JSON(http.StatusOK, gin.H{"start": start.UTC(), "end": end.UTC(), "eclipses": out})
}

func (s *Server) getCheck(c *gin.Context) {
	at, err := s.instantParam(c, "t", s.simNow())
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	tol := reference.DefaultTolerance()

	// A range turns the check into a sweep.
	if c.Query("end") != "" {
		end, err := s.instantParam(c, "end", at)
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		step, err := durationParam(c, "step", 6*time.Hour)
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		if end.After(at) && end.Sub(at)/step > maxCheckSamples {
			respondError(c, http.StatusBadRequest, fmt.Errorf("sweep limited to %d samples", maxCheckSamples))
			return
		}
		report, err := reference.Sweep(at, end, step, tol)
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	d := reference.Compare(at)
	resp := gin.H{"deviation": d, "ok": true}
	if err := d.Check(tol); err != nil {
		resp["ok"] = false
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

type bodySky struct {
	AzDeg  float64                `json:"az_deg"`
	ElDeg  float64                `json:"el_deg"`
	Window astro.VisibilityWindow `json:"window"`
}

func (s *Server) getSky(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		respondError(c, http.StatusBadRequest, errors.New("lat and lon are required, in degrees"))
		return
	}
	at, err := s.instantParam(c, "t", s.simNow())
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	obs := astro.Observer{LatDeg: lat, LonDeg: lon}
	st := astro.Ephemeris(at)
	sunWin, errSun := astro.RiseSet(obs, astro.TargetSun, at, 24*time.Hour)
	moonWin, errMoon := astro.RiseSet(obs, astro.TargetMoon, at, 24*time.Hour)
	if err := errors.Join(errSun, errMoon); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	sun, moon := astro.SunHorizontal(obs, st), astro.MoonHorizontal(obs, st)
	c.JSON(http.StatusOK, gin.H{
		"at":           st.At,
		"sun":          bodySky{AzDeg: sun.AzDeg, ElDeg: sun.ElDeg, Window: sunWin},
		"moon":         bodySky{AzDeg: moon.AzDeg, ElDeg: moon.ElDeg, Window: moonWin},
		"sun_moon_sep": astro.SunMoonSeparation(obs, st),
		"illumination": st.Illumination(),
	})
}

// clockResponse reports the clock after any command.
type clockResponse struct {
	state.ClockStatus
	Ticks uint64 `json:"ticks"`
}

func (s *Server) getClock(c *gin.Context) {
	mgr := s.driver.State()
	c.JSON(http.StatusOK, clockResponse{ClockStatus: mgr.Clock(), Ticks: mgr.Ticks()})
}

// submit applies cmd through the driver and replies with the clock status.
func (s *Server) submit(c *gin.Context, cmd tick.Command) {
	err := s.driver.Submit(c.Request.Context(), cmd)
	switch {
	case err == nil:
		s.getClock(c)
	case errors.Is(err, tick.ErrInvalidCommand):
		respondError(c, http.StatusBadRequest, err)
	case errors.Is(err, tick.ErrDriverStopped):
		respondError(c, http.StatusServiceUnavailable, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}

type speedRequest struct {
	Speed *float64 `json:"speed" binding:"required"`
}

func (s *Server) putSpeed(c *gin.Context) {
	var req speedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	s.submit(c, tick.SetSpeed(*req.Speed))
}

type currentRequest struct {
	Instant string `json:"instant" binding:"required"`
}

func (s *Server) putCurrent(c *gin.Context) {
	var req currentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	t, err := simclock.ParseInstant(req.Instant)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	s.submit(c, tick.SetCurrent(t))
}

func (s *Server) postSync(c *gin.Context) {
	s.submit(c, tick.Sync())
}

type jumpRequest struct {
	Seconds *float64 `json:"seconds" binding:"required"`
}

func (s *Server) postJump(c *gin.Context) {
	var req jumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	s.submit(c, tick.Jump(*req.Seconds))
}
