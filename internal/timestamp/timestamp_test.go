package timestamp

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImageName(t *testing.T) {
	dt, err := ParseImageName("image-2015120209401201.jpg")
	require.NoError(t, err)
	assert.Equal(t, CivilDateTime{Year: 2015, Month: 12, Day: 2, Hour: 9, Minute: 40, Second: 12, Subsecond: 1}, dt)

	withDir, err := ParseImageName("20151202/image-2015120209401201.jpg")
	require.NoError(t, err)
	assert.Equal(t, dt, withDir)
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"too short", "201512020940120"},
		{"too long", "20151202094012011"},
		{"letters", "2015120209401a01"},
		{"month 13", "2015130209401201"},
		{"february 30", "2015023009401201"},
		{"hour 24", "2015120224401201"},
		{"minute 60", "2015120209601201"},
		{"second 60", "2015120209406001"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.payload)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedTimestamp))
		})
	}
}

func TestParseImageNameRejectsOtherFiles(t *testing.T) {
	for _, name := range []string{"thumbs.db", "image-2015120209401201.png", "img-2015120209401201.jpg", "image-.jpg"} {
		_, err := ParseImageName(name)
		assert.ErrorIs(t, err, ErrMalformedTimestamp, name)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	samples := []CivilDateTime{
		{Year: 2015, Month: 12, Day: 2, Hour: 9, Minute: 40, Second: 12, Subsecond: 1},
		{Year: 2016, Month: 2, Day: 29, Hour: 23, Minute: 59, Second: 59, Subsecond: 99},
		{Year: 1, Month: 1, Day: 1},
		{Year: 9999, Month: 12, Day: 31, Hour: 0, Minute: 0, Second: 0, Subsecond: 50},
	}
	for _, dt := range samples {
		got, err := Parse(Format(dt))
		require.NoError(t, err)
		assert.Equal(t, dt, got)
		assert.Len(t, Format(dt), 16)
	}

	// Every second of one day, with a rotating subsecond.
	start := time.Date(2016, 2, 29, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24*60*60; i += 7 {
		dt := FromTime(start.Add(time.Duration(i) * time.Second))
		dt.Subsecond = i % 100
		got, err := Parse(Format(dt))
		require.NoError(t, err)
		require.Equal(t, dt, got)
	}
}

func TestImageNameInverse(t *testing.T) {
	dt := CivilDateTime{Year: 2015, Month: 6, Day: 15, Hour: 3, Minute: 4, Second: 5, Subsecond: 6}
	assert.Equal(t, "image-2015061503040506.jpg", ImageName(dt))
	got, err := ParseImageName(ImageName(dt))
	require.NoError(t, err)
	assert.Equal(t, dt, got)
}

func TestCompare(t *testing.T) {
	a := CivilDateTime{Year: 2015, Month: 12, Day: 2, Hour: 9, Minute: 40, Second: 12, Subsecond: 1}
	b := a
	b.Subsecond = 2

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, 0, a.CompareClock(9, 40, 12))
	assert.Equal(t, 1, a.CompareClock(9, 40, 11))
	assert.Equal(t, -1, a.CompareClock(10, 0, 0))
}

func TestDate(t *testing.T) {
	t.Run("parse directory name", func(t *testing.T) {
		d, err := ParseDate("20151202")
		require.NoError(t, err)
		assert.Equal(t, Date{Year: 2015, Month: 12, Day: 2}, d)
		assert.Equal(t, "20151202", d.String())
	})

	t.Run("reject invalid", func(t *testing.T) {
		for _, s := range []string{"20150230", "2015120", "201512021", "2015120x", "20151300"} {
			_, err := ParseDate(s)
			assert.ErrorIs(t, err, ErrInvalidDate, s)
		}
	})

	t.Run("add days rolls over", func(t *testing.T) {
		assert.Equal(t, Date{Year: 2016, Month: 1, Day: 1}, Date{Year: 2015, Month: 12, Day: 31}.AddDays(1))
		assert.Equal(t, Date{Year: 2016, Month: 2, Day: 29}, Date{Year: 2016, Month: 3, Day: 1}.AddDays(-1))
		assert.Equal(t, Date{Year: 2015, Month: 2, Day: 28}, Date{Year: 2015, Month: 3, Day: 1}.AddDays(-1))
	})

	t.Run("day bounds", func(t *testing.T) {
		loc := time.FixedZone("CET", 3600)
		d := Date{Year: 2015, Month: 12, Day: 2}
		assert.Equal(t, time.Date(2015, 12, 2, 0, 0, 0, 0, loc), d.Start(loc))
		assert.Equal(t, time.Date(2015, 12, 2, 23, 59, 59, 0, loc), d.End(loc))
		assert.Equal(t, d, DateOf(d.End(loc)))
	})

	t.Run("ordering", func(t *testing.T) {
		a := Date{Year: 2015, Month: 12, Day: 31}
		b := Date{Year: 2016, Month: 1, Day: 1}
		assert.True(t, a.Before(b))
		assert.True(t, b.After(a))
		assert.Equal(t, 0, a.Compare(a))
	})

	t.Run("days in month", func(t *testing.T) {
		assert.Equal(t, 29, DaysIn(2016, 2))
		assert.Equal(t, 28, DaysIn(2015, 2))
		assert.Equal(t, 31, DaysIn(2015, 12))
		assert.Equal(t, 30, DaysIn(2015, 11))
	})
}

func TestInTruncatesSubsecond(t *testing.T) {
	dt := CivilDateTime{Year: 2015, Month: 12, Day: 2, Hour: 9, Minute: 40, Second: 12, Subsecond: 99}
	assert.Equal(t, time.Date(2015, 12, 2, 9, 40, 12, 0, time.UTC), dt.In(time.UTC))
}
