// Package navigation resolves the previous, next, up and down neighbours of
// image, day, month and year views, and assembles the images each view shows.
package navigation

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"kamera/internal/catalog"
	"kamera/internal/solar"
	"kamera/internal/timestamp"
)

const (
	DefaultMonthHour      = 11
	DefaultMonthWindowDay = 1
	DefaultYearHour       = 11
)

// Catalog is the part of catalog.Index the resolver reads.
type Catalog interface {
	ImagesForDay(date timestamp.Date) ([]catalog.Image, error)
	LatestImage() (*catalog.Image, error)
	FirstDayWithImages(year, month int) (*timestamp.Date, error)
	EarliestDay() (*timestamp.Date, error)
	LatestImageInHour(date timestamp.Date, hour int) (*catalog.Image, error)
	FirstImageAtOrAfter(date timestamp.Date, hour, minute, second int) (*catalog.Image, error)
	Find(dt timestamp.CivilDateTime) (*catalog.Image, error)
	Neighbors(img catalog.Image) (prev, next *catalog.Image, err error)
}

// Links are the neighbours of a view. A nil link means there is nowhere to go
// in that direction.
type Links struct {
	Previous *View `json:"previous,omitempty"`
	Next     *View `json:"next,omitempty"`
	Up       *View `json:"up,omitempty"`
	Down     *View `json:"down,omitempty"`
}

type Resolver struct {
	catalog        Catalog
	calc           *solar.Calculator
	location       solar.GeoLocation
	now            func() time.Time
	monthHour      int
	monthWindowDay int
	yearHour       int
}

type ResolverConfig struct {
	Catalog    Catalog
	Calculator *solar.Calculator
	Location   solar.GeoLocation
	// Now is the clock used to suppress links into the future.
	Now func() time.Time

	MonthHour      int
	MonthWindowDay int
	YearHour       int
}

func NewResolver(cfg ResolverConfig) *Resolver {
	r := &Resolver{
		catalog:        cfg.Catalog,
		calc:           cfg.Calculator,
		location:       cfg.Location,
		now:            cfg.Now,
		monthHour:      cfg.MonthHour,
		monthWindowDay: cfg.MonthWindowDay,
		yearHour:       cfg.YearHour,
	}
	if r.calc == nil {
		r.calc = solar.NewCalculator(solar.CalculatorConfig{})
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.monthHour == 0 {
		r.monthHour = DefaultMonthHour
	}
	if r.monthWindowDay == 0 {
		r.monthWindowDay = DefaultMonthWindowDay
	}
	if r.yearHour == 0 {
		r.yearHour = DefaultYearHour
	}
	return r
}

// Window computes the daylight window of date at the configured location.
func (r *Resolver) Window(date timestamp.Date) (solar.Window, error) {
	return r.calc.Compute(date, r.location)
}

// ResolveView turns a kind and key into a view. Image keys may be coarse, see
// ResolveImageKey.
func (r *Resolver) ResolveView(kind, key string) (View, error) {
	if Kind(kind) == KindImage {
		img, err := r.ResolveImageKey(key)
		if err != nil {
			return View{}, err
		}
		return ImageView(img.Timestamp), nil
	}
	return ParseView(kind, key)
}

// ResolveImageKey finds the image a key refers to. A full 16 digit key is
// looked up exactly. A coarse YYYYMMDDHH key is resolved in two steps: the
// day's dawn is computed first, then the first image of that hour at or after
// dawn's minute and second is taken. When the hour is not dawn's hour the
// search starts at the top of the hour.
func (r *Resolver) ResolveImageKey(key string) (*catalog.Image, error) {
	switch len(key) {
	case 16:
		dt, err := timestamp.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return r.catalog.Find(dt)
	case 10:
		date, err := timestamp.ParseDate(key[:8])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		hour, err := strconv.Atoi(key[8:])
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("%w: hour %q", ErrInvalidKey, key[8:])
		}

		w, err := r.Window(date)
		if err != nil {
			return nil, err
		}
		minute, second := 0, 0
		if w.Dawn.Hour() == hour {
			minute, second = w.Dawn.Minute(), w.Dawn.Second()
		}

		img, err := r.catalog.FirstImageAtOrAfter(date, hour, minute, second)
		if err != nil {
			return nil, err
		}
		if img == nil {
			return nil, fmt.Errorf("%w: %s", catalog.ErrImageNotFound, key)
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
}

// Links resolves the neighbours of v.
func (r *Resolver) Links(v View) (Links, error) {
	switch v.Kind {
	case KindImage:
		return r.imageLinks(v)
	case KindDay:
		return r.dayLinks(v.Date())
	case KindMonth:
		return r.monthLinks(v.Year, v.Month)
	case KindYear:
		return r.yearLinks(v.Year)
	}
	return Links{}, fmt.Errorf("%w: %q", ErrUnknownView, v.Kind)
}

// Image neighbours stay inside the day and ignore the daylight window.
func (r *Resolver) imageLinks(v View) (Links, error) {
	if v.Image == nil {
		return Links{}, fmt.Errorf("%w: image view without timestamp", ErrInvalidKey)
	}
	img, err := r.catalog.Find(*v.Image)
	if err != nil {
		return Links{}, err
	}
	prev, next, err := r.catalog.Neighbors(*img)
	if err != nil {
		return Links{}, err
	}

	links := Links{Up: viewPtr(DayView(img.Timestamp.Date()))}
	if prev != nil {
		links.Previous = viewPtr(ImageView(prev.Timestamp))
	}
	if next != nil {
		links.Next = viewPtr(ImageView(next.Timestamp))
	}
	return links, nil
}

func (r *Resolver) dayLinks(date timestamp.Date) (Links, error) {
	if !date.Valid() {
		return Links{}, fmt.Errorf("%w: %+v", timestamp.ErrInvalidDate, date)
	}
	links := Links{Up: viewPtr(MonthView(date.Year, date.Month))}

	earliest, err := r.catalog.EarliestDay()
	if err != nil {
		return Links{}, err
	}
	if prev := date.AddDays(-1); earliest != nil && !prev.Before(*earliest) {
		links.Previous = viewPtr(DayView(prev))
	}
	if next := date.AddDays(1); !next.After(r.today()) {
		links.Next = viewPtr(DayView(next))
	}

	down, err := r.firstImageAfterDawn(date)
	if err != nil {
		return Links{}, err
	}
	if down != nil {
		links.Down = viewPtr(ImageView(down.Timestamp))
	}
	return links, nil
}

func (r *Resolver) firstImageAfterDawn(date timestamp.Date) (*catalog.Image, error) {
	w, err := r.Window(date)
	if err != nil {
		return nil, err
	}
	img, err := r.catalog.FirstImageAtOrAfter(date, w.Dawn.Hour(), w.Dawn.Minute(), w.Dawn.Second())
	if errors.Is(err, catalog.ErrDayNotFound) {
		return nil, nil
	}
	return img, err
}

func (r *Resolver) monthLinks(year, month int) (Links, error) {
	if month < 1 || month > 12 {
		return Links{}, fmt.Errorf("%w: month %d", ErrInvalidKey, month)
	}
	links := Links{Up: viewPtr(YearView(year))}

	earliest, err := r.catalog.EarliestDay()
	if err != nil {
		return Links{}, err
	}
	py, pm := previousMonth(year, month)
	if earliest != nil && monthIndex(py, pm) >= monthIndex(earliest.Year, earliest.Month) {
		links.Previous = viewPtr(MonthView(py, pm))
	}
	today := r.today()
	ny, nm := nextMonth(year, month)
	if monthIndex(ny, nm) <= monthIndex(today.Year, today.Month) {
		links.Next = viewPtr(MonthView(ny, nm))
	}

	first, err := r.catalog.FirstDayWithImages(year, month)
	if err != nil {
		return Links{}, err
	}
	if first != nil {
		links.Down = viewPtr(DayView(*first))
	}
	return links, nil
}

func (r *Resolver) yearLinks(year int) (Links, error) {
	links := Links{Previous: viewPtr(YearView(year - 1))}
	if year+1 <= r.today().Year {
		links.Next = viewPtr(YearView(year + 1))
	}

	for month := 1; month <= 12; month++ {
		first, err := r.catalog.FirstDayWithImages(year, month)
		if err != nil {
			return Links{}, err
		}
		if first != nil {
			links.Down = viewPtr(MonthView(year, month))
			break
		}
	}
	return links, nil
}

func (r *Resolver) today() timestamp.Date {
	return timestamp.DateOf(r.now().In(r.calc.TimeZone()))
}

func viewPtr(v View) *View {
	return &v
}
