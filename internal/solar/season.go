package solar

import (
	"fmt"
	"strconv"
)

type Season int

const (
	SeasonNormal Season = iota
	SeasonMidnightSun
	SeasonPolarNight
)

func (s Season) String() string {
	switch s {
	case SeasonMidnightSun:
		return "midnight_sun"
	case SeasonPolarNight:
		return "polar_night"
	default:
		return "normal"
	}
}

// SeasonPolicy decides whether a calendar day is overridden as midnight sun
// or polar night instead of being computed.
type SeasonPolicy interface {
	Classify(month, day int) Season
}

// MonthDay is a day of the year without the year.
type MonthDay struct {
	Month int
	Day   int
}

// ParseMonthDay decodes "MM-DD".
func ParseMonthDay(s string) (MonthDay, error) {
	if len(s) != 5 || s[2] != '-' {
		return MonthDay{}, fmt.Errorf("invalid month-day %q", s)
	}
	month, err := strconv.Atoi(s[:2])
	if err != nil {
		return MonthDay{}, fmt.Errorf("invalid month-day %q: %w", s, err)
	}
	day, err := strconv.Atoi(s[3:])
	if err != nil {
		return MonthDay{}, fmt.Errorf("invalid month-day %q: %w", s, err)
	}
	md := MonthDay{Month: month, Day: day}
	if md.Month < 1 || md.Month > 12 || md.Day < 1 || md.Day > 31 {
		return MonthDay{}, fmt.Errorf("invalid month-day %q", s)
	}
	return md, nil
}

func (md MonthDay) ordinal() int {
	return md.Month*100 + md.Day
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", md.Month, md.Day)
}

// DayRange is an inclusive range of days of the year. A range whose start is
// after its end wraps over the new year.
type DayRange struct {
	Start MonthDay
	End   MonthDay
}

func (r DayRange) Contains(month, day int) bool {
	v := MonthDay{Month: month, Day: day}.ordinal()
	start, end := r.Start.ordinal(), r.End.ordinal()
	if start <= end {
		return v >= start && v <= end
	}
	return v >= start || v <= end
}

// FixedCalendar classifies days by fixed calendar ranges tuned for one
// latitude. It does not look at the location at all.
type FixedCalendar struct {
	MidnightSun DayRange
	PolarNight  DayRange
}

// DefaultSeasons are the ranges observed at Gimsøya, Lofoten (68.33°N).
func DefaultSeasons() FixedCalendar {
	return FixedCalendar{
		MidnightSun: DayRange{Start: MonthDay{5, 24}, End: MonthDay{7, 18}},
		PolarNight:  DayRange{Start: MonthDay{12, 6}, End: MonthDay{1, 6}},
	}
}

func (f FixedCalendar) Classify(month, day int) Season {
	// Midnight sun wins if a misconfiguration makes the ranges overlap.
	if f.MidnightSun.Contains(month, day) {
		return SeasonMidnightSun
	}
	if f.PolarNight.Contains(month, day) {
		return SeasonPolarNight
	}
	return SeasonNormal
}

// NoSeasons never overrides; every day is computed.
type NoSeasons struct{}

func (NoSeasons) Classify(int, int) Season {
	return SeasonNormal
}
