package storage

import (
	"time"

	"gorm.io/gorm"
)

// DayAlmanac is one exported day: its daylight window and how many images
// the archive holds for it.
type DayAlmanac struct {
	gorm.Model
	Date   string `gorm:"uniqueIndex;size:8" json:"date"`
	Year   int    `gorm:"index" json:"year"`
	Season string `json:"season"`

	// Window
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
	Dawn        time.Time `json:"dawn"`
	Dusk        time.Time `json:"dusk"`
	MidnightSun bool      `json:"midnight_sun"`
	PolarNight  bool      `json:"polar_night"`

	// Images
	HasDirectory  bool `json:"has_directory"`
	Images        int  `json:"images"`
	VisibleImages int  `json:"visible_images"`
}

// DaylightMinutes is the length of the dawn to dusk window.
func (d *DayAlmanac) DaylightMinutes() float64 {
	return d.Dusk.Sub(d.Dawn).Minutes()
}

type YearSummary struct {
	Year            int   `json:"year"`
	Days            int64 `json:"days"`
	DaysWithImages  int64 `json:"days_with_images"`
	Images          int64 `json:"images"`
	VisibleImages   int64 `json:"visible_images"`
	MidnightSunDays int64 `json:"midnight_sun_days"`
	PolarNightDays  int64 `json:"polar_night_days"`
}
