package astro

import "time"

// DayCount returns the continuous day number used by the orbital elements:
// 1.0 at 2000-01-01T00:00Z, growing by exactly 1 per 86400 s and carrying
// the time of day as its fractional part. The instant is read in UTC.
//
// The integer part is the Schlyter calendar formula with Go's truncating
// integer division. The (m-9)/7 term must truncate toward zero, or the
// century correction slips a day in non-leap century years such as 2100.
// Valid for Gregorian years from 1 on.
func DayCount(t time.Time) float64 {
	t = t.UTC()
	y := t.Year()
	m := int(t.Month())
	d := t.Day()

	n := 367*y -
		7*(y+(m+9)/12)/4 -
		3*((y+(m-9)/7)/100+1)/4 +
		275*m/9 + d - 730515

	return float64(n) + DayFraction(t)
}

// DayFraction returns the UTC time of day as a fraction in [0, 1).
func DayFraction(t time.Time) float64 {
	t = t.UTC()
	return float64(t.Hour())/24 +
		float64(t.Minute())/1440 +
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/86400
}
