// Package solar computes the daily daylight window (dawn, sunrise, sunset,
// dusk) the archive uses to decide which images are worth showing.
package solar

import (
	"fmt"
	"math"
	"time"

	"kamera/internal/timestamp"

	"github.com/nathan-osman/go-sunrise"
)

const (
	// DefaultZenith was tuned by hand against yr.no for Gimsøya.
	DefaultZenith     = 90.58333
	DefaultDawnOffset = 3 * time.Hour

	DefaultPolarNightSunriseHour = 11
	DefaultPolarNightSunsetHour  = 12

	degree = math.Pi / 180
)

// GeoLocation is where the camera is. Zenith is the solar zenith angle, in
// degrees, that counts as sunrise and sunset.
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zenith    float64 `json:"zenith"`
}

// Window is the daylight window of one calendar day.
type Window struct {
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
	Dawn        time.Time `json:"dawn"`
	Dusk        time.Time `json:"dusk"`
	MidnightSun bool      `json:"midnight_sun"`
	PolarNight  bool      `json:"polar_night"`
}

type Calculator struct {
	seasons          SeasonPolicy
	tz               *time.Location
	dawnOffset       time.Duration
	polarSunriseHour int
	polarSunsetHour  int
}

type CalculatorConfig struct {
	Seasons               SeasonPolicy
	TimeZone              *time.Location
	DawnOffset            time.Duration
	PolarNightSunriseHour int
	PolarNightSunsetHour  int
}

func NewCalculator(cfg CalculatorConfig) *Calculator {
	c := &Calculator{
		seasons:          cfg.Seasons,
		tz:               cfg.TimeZone,
		dawnOffset:       cfg.DawnOffset,
		polarSunriseHour: cfg.PolarNightSunriseHour,
		polarSunsetHour:  cfg.PolarNightSunsetHour,
	}
	if c.seasons == nil {
		c.seasons = DefaultSeasons()
	}
	if c.tz == nil {
		c.tz = time.Local
	}
	if c.dawnOffset == 0 {
		c.dawnOffset = DefaultDawnOffset
	}
	if c.polarSunriseHour == 0 && c.polarSunsetHour == 0 {
		c.polarSunriseHour = DefaultPolarNightSunriseHour
		c.polarSunsetHour = DefaultPolarNightSunsetHour
	}
	return c
}

// TimeZone is the civil timezone windows are expressed in.
func (c *Calculator) TimeZone() *time.Location {
	return c.tz
}

// Compute returns the daylight window of date at location.
func (c *Calculator) Compute(date timestamp.Date, location GeoLocation) (Window, error) {
	if !date.Valid() {
		return Window{}, fmt.Errorf("%w: %+v", timestamp.ErrInvalidDate, date)
	}

	start, end := date.Start(c.tz), date.End(c.tz)

	var w Window
	switch c.seasons.Classify(date.Month, date.Day) {
	case SeasonMidnightSun:
		w = Window{Sunrise: start, Sunset: end, Dawn: start, Dusk: end, MidnightSun: true}
	case SeasonPolarNight:
		rise := date.At(c.polarSunriseHour, 0, 0, c.tz)
		set := date.At(c.polarSunsetHour, 0, 0, c.tz)
		w = Window{Sunrise: rise, Sunset: set, Dawn: rise, Dusk: set, PolarNight: true}
	default:
		rise, set, state := c.SunriseSunset(date, location)
		switch state {
		case SunNeverSets:
			w = Window{Sunrise: start, Sunset: end, Dawn: start, Dusk: end, MidnightSun: true}
		case SunNeverRises:
			w = Window{Sunrise: rise, Sunset: set, PolarNight: true}
		default:
			w = Window{Sunrise: rise, Sunset: set}
		}
		if !w.MidnightSun {
			w.Dawn = w.Sunrise.Add(-c.dawnOffset)
			w.Dusk = w.Sunset.Add(c.dawnOffset)
		}
	}

	// Near the season boundaries the offsets reach into the neighbouring days.
	w.Dawn = clamp(w.Dawn, start, end)
	w.Sunrise = clamp(w.Sunrise, start, end)
	w.Sunset = clamp(w.Sunset, start, end)
	w.Dusk = clamp(w.Dusk, start, end)
	return w, nil
}

type SunState int

const (
	SunRisesAndSets SunState = iota
	SunNeverSets
	SunNeverRises
)

// SunriseSunset is the astronomical sunrise and sunset of date at location,
// in the calculator's timezone, ignoring the season policy and without
// clamping. When the sun never rises both times are the solar transit.
func (c *Calculator) SunriseSunset(date timestamp.Date, location GeoLocation) (rise, set time.Time, state SunState) {
	var (
		d           = sunrise.MeanSolarNoon(location.Longitude, date.Year, time.Month(date.Month), date.Day)
		anomaly     = sunrise.SolarMeanAnomaly(d)
		center      = sunrise.EquationOfCenter(anomaly)
		ecliptic    = sunrise.EclipticLongitude(anomaly, center, d)
		transit     = sunrise.SolarTransit(d, anomaly, ecliptic)
		declination = sunrise.Declination(ecliptic)
	)

	cosH := hourAngleCosine(location.Latitude, declination, zenithOrDefault(location.Zenith))
	switch {
	case cosH < -1:
		return date.Start(c.tz), date.End(c.tz), SunNeverSets
	case cosH > 1, math.IsNaN(cosH):
		noon := sunrise.JulianDayToTime(transit).In(c.tz)
		return noon, noon, SunNeverRises
	}

	frac := math.Acos(cosH) / degree / 360
	rise = sunrise.JulianDayToTime(transit - frac).In(c.tz)
	set = sunrise.JulianDayToTime(transit + frac).In(c.tz)
	return rise, set, SunRisesAndSets
}

// hourAngleCosine is cos(ω) for the sun at the given zenith angle, all
// arguments in degrees.
func hourAngleCosine(latitude, declination, zenith float64) float64 {
	lat := latitude * degree
	decl := declination * degree
	return (math.Cos(zenith*degree) - math.Sin(lat)*math.Sin(decl)) /
		(math.Cos(lat) * math.Cos(decl))
}

func zenithOrDefault(z float64) float64 {
	if z == 0 {
		return DefaultZenith
	}
	return z
}

func clamp(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}
