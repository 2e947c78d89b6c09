package solar

import (
	"testing"
	"time"

	"kamera/internal/timestamp"

	"github.com/nathan-osman/go-sunrise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cet      = time.FixedZone("CET", 3600)
	gimsoya  = GeoLocation{Latitude: 68.329891, Longitude: 14.092439, Zenith: DefaultZenith}
	equator  = GeoLocation{Latitude: 0.5, Longitude: 10, Zenith: DefaultZenith}
	svalbard = GeoLocation{Latitude: 78.22, Longitude: 15.65, Zenith: DefaultZenith}
	antarc   = GeoLocation{Latitude: -77.85, Longitude: 166.67, Zenith: DefaultZenith}
)

func newTestCalculator(seasons SeasonPolicy) *Calculator {
	return NewCalculator(CalculatorConfig{Seasons: seasons, TimeZone: cet})
}

func TestComputeMidnightSun(t *testing.T) {
	calc := newTestCalculator(nil)

	w, err := calc.Compute(timestamp.Date{Year: 2015, Month: 6, Day: 15}, gimsoya)
	require.NoError(t, err)

	assert.True(t, w.MidnightSun)
	assert.False(t, w.PolarNight)
	assert.Equal(t, time.Date(2015, 6, 15, 0, 0, 0, 0, cet), w.Sunrise)
	assert.Equal(t, time.Date(2015, 6, 15, 23, 59, 59, 0, cet), w.Sunset)
	assert.Equal(t, w.Sunrise, w.Dawn)
	assert.Equal(t, w.Sunset, w.Dusk)
}

func TestComputePolarNight(t *testing.T) {
	calc := newTestCalculator(nil)

	w, err := calc.Compute(timestamp.Date{Year: 2015, Month: 12, Day: 10}, gimsoya)
	require.NoError(t, err)

	assert.True(t, w.PolarNight)
	assert.False(t, w.MidnightSun)
	assert.Equal(t, time.Date(2015, 12, 10, 11, 0, 0, 0, cet), w.Sunrise)
	assert.Equal(t, time.Date(2015, 12, 10, 12, 0, 0, 0, cet), w.Sunset)
	assert.Equal(t, w.Sunrise, w.Dawn)
	assert.Equal(t, w.Sunset, w.Dusk)
}

func TestComputePolarNightCustomHours(t *testing.T) {
	calc := NewCalculator(CalculatorConfig{TimeZone: cet, PolarNightSunriseHour: 10, PolarNightSunsetHour: 13})

	w, err := calc.Compute(timestamp.Date{Year: 2016, Month: 1, Day: 3}, gimsoya)
	require.NoError(t, err)
	assert.True(t, w.PolarNight)
	assert.Equal(t, 10, w.Sunrise.Hour())
	assert.Equal(t, 13, w.Sunset.Hour())
}

func TestComputeNormalDay(t *testing.T) {
	calc := newTestCalculator(nil)

	// Around the March equinox the day is roughly twelve hours long.
	w, err := calc.Compute(timestamp.Date{Year: 2015, Month: 3, Day: 20}, gimsoya)
	require.NoError(t, err)

	assert.False(t, w.MidnightSun)
	assert.False(t, w.PolarNight)
	assert.True(t, w.Sunrise.After(time.Date(2015, 3, 20, 5, 45, 0, 0, cet)), w.Sunrise)
	assert.True(t, w.Sunrise.Before(time.Date(2015, 3, 20, 6, 30, 0, 0, cet)), w.Sunrise)
	assert.True(t, w.Sunset.After(time.Date(2015, 3, 20, 18, 0, 0, 0, cet)), w.Sunset)
	assert.True(t, w.Sunset.Before(time.Date(2015, 3, 20, 18, 45, 0, 0, cet)), w.Sunset)

	assert.Equal(t, 3*time.Hour, w.Sunrise.Sub(w.Dawn))
	assert.Equal(t, 3*time.Hour, w.Dusk.Sub(w.Sunset))
}

func TestComputeClampsDawnAndDusk(t *testing.T) {
	calc := newTestCalculator(nil)

	// Just before the midnight sun period the sun sets close to midnight,
	// so dusk and dawn would leak into the neighbouring days.
	date := timestamp.Date{Year: 2015, Month: 5, Day: 20}
	w, err := calc.Compute(date, gimsoya)
	require.NoError(t, err)

	assert.False(t, w.MidnightSun)
	assert.Equal(t, date.Start(cet), w.Dawn)
	assert.Equal(t, date.End(cet), w.Dusk)
}

func TestComputeInvalidDate(t *testing.T) {
	calc := newTestCalculator(nil)

	_, err := calc.Compute(timestamp.Date{Year: 2015, Month: 2, Day: 30}, gimsoya)
	assert.ErrorIs(t, err, timestamp.ErrInvalidDate)
}

func TestWindowInvariants(t *testing.T) {
	policies := map[string]SeasonPolicy{
		"fixed calendar": DefaultSeasons(),
		"computed only":  NoSeasons{},
	}
	locations := map[string]GeoLocation{
		"gimsoya":    gimsoya,
		"equator":    equator,
		"svalbard":   svalbard,
		"antarctica": antarc,
	}

	for policyName, policy := range policies {
		for locName, loc := range locations {
			t.Run(policyName+"/"+locName, func(t *testing.T) {
				calc := newTestCalculator(policy)
				date := timestamp.Date{Year: 2015, Month: 1, Day: 1}
				for ; date.Year < 2017; date = date.AddDays(1) {
					w, err := calc.Compute(date, loc)
					require.NoError(t, err)

					require.False(t, w.Dawn.After(w.Sunrise), "%s dawn after sunrise", date)
					require.False(t, w.Sunrise.After(w.Sunset), "%s sunrise after sunset", date)
					require.False(t, w.Sunset.After(w.Dusk), "%s sunset after dusk", date)
					require.False(t, w.Dawn.Before(date.Start(cet)), "%s dawn before start of day", date)
					require.False(t, w.Dusk.After(date.End(cet)), "%s dusk after end of day", date)
					require.False(t, w.MidnightSun && w.PolarNight, "%s both flags set", date)
				}
			})
		}
	}
}

func TestComputedPolarExtremes(t *testing.T) {
	calc := newTestCalculator(NoSeasons{})

	summer, err := calc.Compute(timestamp.Date{Year: 2015, Month: 6, Day: 21}, svalbard)
	require.NoError(t, err)
	assert.True(t, summer.MidnightSun)

	winter, err := calc.Compute(timestamp.Date{Year: 2015, Month: 12, Day: 21}, svalbard)
	require.NoError(t, err)
	assert.True(t, winter.PolarNight)
	assert.Equal(t, winter.Sunrise, winter.Sunset)
}

func TestSunriseSunsetMatchesStandardRefraction(t *testing.T) {
	calc := NewCalculator(CalculatorConfig{TimeZone: time.UTC})
	loc := GeoLocation{Latitude: 59.91, Longitude: 10.75, Zenith: 90.83}

	for _, date := range []timestamp.Date{
		{Year: 2015, Month: 3, Day: 20},
		{Year: 2015, Month: 6, Day: 21},
		{Year: 2015, Month: 9, Day: 23},
		{Year: 2015, Month: 12, Day: 21},
	} {
		rise, set, state := calc.SunriseSunset(date, loc)
		require.Equal(t, SunRisesAndSets, state)

		wantRise, wantSet := sunrise.SunriseSunset(loc.Latitude, loc.Longitude, date.Year, time.Month(date.Month), date.Day)
		assert.WithinDuration(t, wantRise, rise, 30*time.Second, date.String())
		assert.WithinDuration(t, wantSet, set, 30*time.Second, date.String())
	}
}

func TestLargerZenithWidensDay(t *testing.T) {
	calc := newTestCalculator(NoSeasons{})
	date := timestamp.Date{Year: 2015, Month: 10, Day: 1}

	narrow := gimsoya
	narrow.Zenith = 90
	wide := gimsoya
	wide.Zenith = 96

	r1, s1, _ := calc.SunriseSunset(date, narrow)
	r2, s2, _ := calc.SunriseSunset(date, wide)
	assert.True(t, r2.Before(r1))
	assert.True(t, s2.After(s1))
}
