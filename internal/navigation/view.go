package navigation

import (
	"errors"
	"fmt"
	"strconv"

	"kamera/internal/timestamp"
)

var (
	ErrUnknownView = errors.New("unknown view")
	ErrInvalidKey  = errors.New("invalid view key")
)

type Kind string

const (
	KindImage Kind = "image"
	KindDay   Kind = "day"
	KindMonth Kind = "month"
	KindYear  Kind = "year"
)

// View identifies one navigable page. Which fields are meaningful depends on
// Kind: Image for image views, Year/Month/Day for the others.
type View struct {
	Kind  Kind                     `json:"kind"`
	Key   string                   `json:"key"`
	Year  int                      `json:"year"`
	Month int                      `json:"month,omitempty"`
	Day   int                      `json:"day,omitempty"`
	Image *timestamp.CivilDateTime `json:"image,omitempty"`
}

func ImageView(dt timestamp.CivilDateTime) View {
	return View{
		Kind:  KindImage,
		Key:   timestamp.Format(dt),
		Year:  dt.Year,
		Month: dt.Month,
		Day:   dt.Day,
		Image: &dt,
	}
}

func DayView(d timestamp.Date) View {
	return View{Kind: KindDay, Key: d.String(), Year: d.Year, Month: d.Month, Day: d.Day}
}

func MonthView(year, month int) View {
	return View{Kind: KindMonth, Key: fmt.Sprintf("%04d%02d", year, month), Year: year, Month: month}
}

func YearView(year int) View {
	return View{Kind: KindYear, Key: fmt.Sprintf("%04d", year), Year: year}
}

// Date is the calendar day of an image or day view.
func (v View) Date() timestamp.Date {
	return timestamp.Date{Year: v.Year, Month: v.Month, Day: v.Day}
}

func (v View) String() string {
	return string(v.Kind) + ":" + v.Key
}

// ParseView decodes a kind and a fixed-width key: 16 digits for an image,
// YYYYMMDD for a day, YYYYMM for a month and YYYY for a year. Coarse image
// keys are resolved by Resolver.ResolveView instead.
func ParseView(kind, key string) (View, error) {
	switch Kind(kind) {
	case KindImage:
		dt, err := timestamp.Parse(key)
		if err != nil {
			return View{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return ImageView(dt), nil
	case KindDay:
		d, err := timestamp.ParseDate(key)
		if err != nil {
			return View{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return DayView(d), nil
	case KindMonth:
		if len(key) != 6 {
			return View{}, fmt.Errorf("%w: month %q", ErrInvalidKey, key)
		}
		year, err1 := strconv.Atoi(key[:4])
		month, err2 := strconv.Atoi(key[4:])
		if err1 != nil || err2 != nil || month < 1 || month > 12 || year < 0 {
			return View{}, fmt.Errorf("%w: month %q", ErrInvalidKey, key)
		}
		return MonthView(year, month), nil
	case KindYear:
		year, err := strconv.Atoi(key)
		if err != nil || len(key) != 4 || year < 0 {
			return View{}, fmt.Errorf("%w: year %q", ErrInvalidKey, key)
		}
		return YearView(year), nil
	}
	return View{}, fmt.Errorf("%w: %q", ErrUnknownView, kind)
}

func monthIndex(year, month int) int {
	return year*12 + month - 1
}

func previousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

func nextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}
