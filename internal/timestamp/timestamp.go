// Package timestamp parses and formats the fixed-width timestamps embedded in
// archive directory and image file names.
package timestamp

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrInvalidDate        = errors.New("invalid calendar date")
)

const (
	payloadLen = 16 // YYYYMMDDHHMMSSff
	dateLen    = 8  // YYYYMMDD

	imagePrefix = "image-"
	imageSuffix = ".jpg"
)

// CivilDateTime is a wall clock reading in the archive's civil timezone.
// Subsecond holds the two trailing hundredths digits of a file name.
type CivilDateTime struct {
	Year      int `json:"year"`
	Month     int `json:"month"`
	Day       int `json:"day"`
	Hour      int `json:"hour"`
	Minute    int `json:"minute"`
	Second    int `json:"second"`
	Subsecond int `json:"subsecond"`
}

// Parse decodes a 16 digit YYYYMMDDHHMMSSff payload.
func Parse(payload string) (CivilDateTime, error) {
	if len(payload) != payloadLen || !allDigits(payload) {
		return CivilDateTime{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, payload)
	}

	field := func(from, to int) int {
		v, _ := strconv.Atoi(payload[from:to])
		return v
	}

	dt := CivilDateTime{
		Year:      field(0, 4),
		Month:     field(4, 6),
		Day:       field(6, 8),
		Hour:      field(8, 10),
		Minute:    field(10, 12),
		Second:    field(12, 14),
		Subsecond: field(14, 16),
	}
	if !dt.Valid() {
		return CivilDateTime{}, fmt.Errorf("%w: %q out of range", ErrMalformedTimestamp, payload)
	}
	return dt, nil
}

// Format is the inverse of Parse.
func Format(dt CivilDateTime) string {
	return fmt.Sprintf("%04d%02d%02d%02d%02d%02d%02d",
		dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Subsecond)
}

// ParseImageName extracts the timestamp from "image-YYYYMMDDHHMMSSff.jpg".
// A leading directory is allowed and ignored.
func ParseImageName(name string) (CivilDateTime, error) {
	base := path.Base(name)
	if !IsImageName(base) {
		return CivilDateTime{}, fmt.Errorf("%w: %q is not an image name", ErrMalformedTimestamp, name)
	}
	return Parse(strings.TrimSuffix(strings.TrimPrefix(base, imagePrefix), imageSuffix))
}

// IsImageName reports whether name has the image-*.jpg shape, regardless of
// whether the embedded payload is valid.
func IsImageName(name string) bool {
	return strings.HasPrefix(name, imagePrefix) && strings.HasSuffix(name, imageSuffix) &&
		len(name) >= len(imagePrefix)+len(imageSuffix)
}

// ImageName returns the file name an image taken at dt is stored under.
func ImageName(dt CivilDateTime) string {
	return imagePrefix + Format(dt) + imageSuffix
}

func (dt CivilDateTime) Valid() bool {
	return dt.Date().Valid() &&
		dt.Hour >= 0 && dt.Hour <= 23 &&
		dt.Minute >= 0 && dt.Minute <= 59 &&
		dt.Second >= 0 && dt.Second <= 59 &&
		dt.Subsecond >= 0 && dt.Subsecond <= 99
}

func (dt CivilDateTime) Date() Date {
	return Date{Year: dt.Year, Month: dt.Month, Day: dt.Day}
}

// In returns the instant dt denotes in loc, truncated to whole seconds.
func (dt CivilDateTime) In(loc *time.Location) time.Time {
	return time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, 0, loc)
}

// Compare orders two readings at full precision, including Subsecond.
func (dt CivilDateTime) Compare(other CivilDateTime) int {
	a := [...]int{dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Subsecond}
	b := [...]int{other.Year, other.Month, other.Day, other.Hour, other.Minute, other.Second, other.Subsecond}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// CompareClock orders the time of day of dt against h:m:s, ignoring Subsecond.
func (dt CivilDateTime) CompareClock(hour, minute, second int) int {
	a := dt.Hour*3600 + dt.Minute*60 + dt.Second
	b := hour*3600 + minute*60 + second
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (dt CivilDateTime) String() string {
	return Format(dt)
}

// FromTime converts an instant into the wall clock of its own location.
func FromTime(t time.Time) CivilDateTime {
	return CivilDateTime{
		Year:      t.Year(),
		Month:     int(t.Month()),
		Day:       t.Day(),
		Hour:      t.Hour(),
		Minute:    t.Minute(),
		Second:    t.Second(),
		Subsecond: t.Nanosecond() / int(10*time.Millisecond),
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
