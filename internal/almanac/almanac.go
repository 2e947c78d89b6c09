// Package almanac exports a year of daylight windows and image counts into
// the almanac database. The archive views never read the export back.
package almanac

import (
	"errors"
	"fmt"
	"log"

	"kamera/internal/catalog"
	"kamera/internal/daylight"
	"kamera/internal/solar"
	"kamera/internal/storage"
	"kamera/internal/timestamp"
)

type Catalog interface {
	ImagesForDay(date timestamp.Date) ([]catalog.Image, error)
}

type Store interface {
	SaveDays(days []storage.DayAlmanac) error
}

type Exporter struct {
	catalog  Catalog
	calc     *solar.Calculator
	location solar.GeoLocation
	store    Store
	logger   *log.Logger
}

type ExporterConfig struct {
	Catalog    Catalog
	Calculator *solar.Calculator
	Location   solar.GeoLocation
	Store      Store
	Logger     *log.Logger
}

func NewExporter(cfg ExporterConfig) *Exporter {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Exporter{
		catalog:  cfg.Catalog,
		calc:     cfg.Calculator,
		location: cfg.Location,
		store:    cfg.Store,
		logger:   logger,
	}
}

// Day builds the almanac row of one date.
func (e *Exporter) Day(date timestamp.Date) (*storage.DayAlmanac, error) {
	w, err := e.calc.Compute(date, e.location)
	if err != nil {
		return nil, err
	}

	row := &storage.DayAlmanac{
		Date:        date.String(),
		Year:        date.Year,
		Season:      season(w).String(),
		Sunrise:     w.Sunrise,
		Sunset:      w.Sunset,
		Dawn:        w.Dawn,
		Dusk:        w.Dusk,
		MidnightSun: w.MidnightSun,
		PolarNight:  w.PolarNight,
	}

	images, err := e.catalog.ImagesForDay(date)
	switch {
	case errors.Is(err, catalog.ErrDayNotFound):
		return row, nil
	case err != nil:
		return nil, err
	}
	row.HasDirectory = true
	row.Images = len(images)
	row.VisibleImages = len(daylight.Visible(images, w, e.calc.TimeZone()))
	return row, nil
}

// Year exports every day of year and returns how many rows were written.
func (e *Exporter) Year(year int) (int, error) {
	if year < 0 || year > 9999 {
		return 0, fmt.Errorf("%w: year %d", timestamp.ErrInvalidDate, year)
	}

	var rows []storage.DayAlmanac
	for date := (timestamp.Date{Year: year, Month: 1, Day: 1}); date.Year == year; date = date.AddDays(1) {
		row, err := e.Day(date)
		if err != nil {
			return 0, fmt.Errorf("failed to build %s: %w", date, err)
		}
		rows = append(rows, *row)
	}

	if err := e.store.SaveDays(rows); err != nil {
		return 0, err
	}
	e.logger.Printf("Almanac for %d exported (%d days)", year, len(rows))
	return len(rows), nil
}

func season(w solar.Window) solar.Season {
	switch {
	case w.MidnightSun:
		return solar.SeasonMidnightSun
	case w.PolarNight:
		return solar.SeasonPolarNight
	}
	return solar.SeasonNormal
}
