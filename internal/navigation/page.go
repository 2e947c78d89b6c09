package navigation

import (
	"errors"
	"fmt"

	"kamera/internal/catalog"
	"kamera/internal/daylight"
	"kamera/internal/solar"
	"kamera/internal/timestamp"
)

// Page is everything a view renders: its neighbours, the daylight window it
// was filtered with, and its images in order. Year pages carry no window.
type Page struct {
	View   View            `json:"view"`
	Links  Links           `json:"links"`
	Window *solar.Window   `json:"window,omitempty"`
	Images []catalog.Image `json:"images"`
}

// Page assembles the content of v.
func (r *Resolver) Page(v View) (*Page, error) {
	links, err := r.Links(v)
	if err != nil {
		return nil, err
	}
	page := &Page{View: v, Links: links}

	switch v.Kind {
	case KindImage:
		err = r.imagePage(page)
	case KindDay:
		err = r.dayPage(page)
	case KindMonth:
		err = r.monthPage(page)
	case KindYear:
		err = r.yearPage(page)
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Latest is the page of the newest image in the archive, shown whether or not
// it was taken in daylight. It returns nil for an empty archive.
func (r *Resolver) Latest() (*Page, error) {
	img, err := r.catalog.LatestImage()
	if err != nil || img == nil {
		return nil, err
	}
	return r.Page(ImageView(img.Timestamp))
}

func (r *Resolver) imagePage(page *Page) error {
	img, err := r.catalog.Find(*page.View.Image)
	if err != nil {
		return err
	}
	w, err := r.Window(img.Timestamp.Date())
	if err != nil {
		return err
	}
	page.Window = &w
	page.Images = []catalog.Image{*img}
	return nil
}

func (r *Resolver) dayPage(page *Page) error {
	date := page.View.Date()
	w, err := r.Window(date)
	if err != nil {
		return err
	}
	page.Window = &w

	images, err := r.catalog.ImagesForDay(date)
	if err != nil && !errors.Is(err, catalog.ErrDayNotFound) {
		return err
	}
	page.Images = daylight.Visible(images, w, r.calc.TimeZone())
	return nil
}

// Month pages show the last image of the configured hour for every day.
func (r *Resolver) monthPage(page *Page) error {
	year, month := page.View.Year, page.View.Month
	day := min(r.monthWindowDay, timestamp.DaysIn(year, month))
	w, err := r.Window(timestamp.Date{Year: year, Month: month, Day: day})
	if err != nil {
		return err
	}
	page.Window = &w

	page.Images = []catalog.Image{}
	for d := 1; d <= 31; d++ {
		date := timestamp.Date{Year: year, Month: month, Day: d}
		if !date.Valid() {
			continue
		}
		img, err := r.catalog.LatestImageInHour(date, r.monthHour)
		if err != nil {
			if errors.Is(err, catalog.ErrDayNotFound) {
				continue
			}
			return fmt.Errorf("month %s: %w", page.View.Key, err)
		}
		if img != nil {
			page.Images = append(page.Images, *img)
		}
	}
	return nil
}

// Year pages show the first image at or after the configured hour for every
// day of the year.
func (r *Resolver) yearPage(page *Page) error {
	page.Images = []catalog.Image{}
	for month := 1; month <= 12; month++ {
		for d := 1; d <= 31; d++ {
			date := timestamp.Date{Year: page.View.Year, Month: month, Day: d}
			if !date.Valid() {
				continue
			}
			img, err := r.catalog.FirstImageAtOrAfter(date, r.yearHour, 0, 0)
			if err != nil {
				if errors.Is(err, catalog.ErrDayNotFound) {
					continue
				}
				return fmt.Errorf("year %s: %w", page.View.Key, err)
			}
			if img != nil {
				page.Images = append(page.Images, *img)
			}
		}
	}
	return nil
}
