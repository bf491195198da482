package simclock

import (
	"math"
	"time"
)

// newMoonEpoch is the reference new moon for the phase helpers.
var newMoonEpoch = time.Date(2018, 1, 17, 2, 17, 0, 0, time.UTC)

const (
	// SynodicMonth is the mean new-moon to new-moon period.
	SynodicMonth = time.Duration(29.530588853 * 24 * float64(time.Hour))

	// yearSeconds is the mean tropical year used for YearFraction.
	yearSeconds = 31556926.0

	// sunCycleMillis paces SunCycle, about 25.5 days per unit.
	sunCycleMillis = 2203850000.0
)

// DayFraction returns the elapsed fraction of the UTC day, in [0, 1).
func DayFraction(t time.Time) float64 {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return t.Sub(midnight).Seconds() / 86400
}

// YearFraction returns the time since the start of the UTC calendar year as a
// fraction of a mean tropical year. It slightly exceeds 1 late on December 31st.
func YearFraction(t time.Time) float64 {
	t = t.UTC()
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return t.Sub(start).Seconds() / yearSeconds
}

// LunarMonthFraction returns the mean lunar phase in [0, 1): 0 is new moon,
// 0.5 full moon. Works before the reference new moon too.
func LunarMonthFraction(t time.Time) float64 {
	elapsed := secondsSince(t, newMoonEpoch) / SynodicMonth.Seconds()
	f := elapsed - math.Floor(elapsed)
	if f >= 1 {
		f = 0
	}
	return f
}

// SunCycle returns an unbounded phase that grows by one every
// 2,203,850,000 ms from the reference new moon. Consumers take its
// fractional part to animate the solar surface.
func SunCycle(t time.Time) float64 {
	return secondsSince(t, newMoonEpoch) * 1000 / sunCycleMillis
}

// secondsSince is t.Sub(ref).Seconds() without time.Duration's ±292 year limit.
func secondsSince(t, ref time.Time) float64 {
	return float64(t.Unix()-ref.Unix()) + float64(t.Nanosecond()-ref.Nanosecond())/1e9
}

// PhaseName names the lunar phase for a LunarMonthFraction value.
func PhaseName(fraction float64) string {
	names := [...]string{
		"New Moon", "Waxing Crescent", "First Quarter", "Waxing Gibbous",
		"Full Moon", "Waning Gibbous", "Last Quarter", "Waning Crescent",
	}
	f := fraction - math.Floor(fraction)
	return names[int(math.Floor(f*8+0.5))%8]
}
