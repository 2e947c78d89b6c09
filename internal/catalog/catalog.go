// Package catalog indexes the image archive: one directory per day named
// YYYYMMDD, one image-YYYYMMDDHHMMSSff.jpg file per captured frame.
//
// Nothing is cached. Every query lists the directories again and sorts on the
// parsed timestamps, never on the order the filesystem returns entries in.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"sort"
	"time"

	"kamera/internal/timestamp"
)

var (
	ErrDayNotFound   = errors.New("day directory not found")
	ErrImageNotFound = errors.New("image not found")
)

// Image is one captured frame. Path is slash separated and relative to the
// archive root.
type Image struct {
	Timestamp timestamp.CivilDateTime `json:"timestamp"`
	Path      string                  `json:"path"`
}

// Key is the 16 digit timestamp identifying the image.
func (i Image) Key() string {
	return timestamp.Format(i.Timestamp)
}

// Time is the instant the image was taken, to the second.
func (i Image) Time(loc *time.Location) time.Time {
	return i.Timestamp.In(loc)
}

type Index struct {
	fsys    fs.FS
	logger  *log.Logger
	verbose bool
}

type IndexConfig struct {
	// Root is the archive directory. Ignored when FS is set.
	Root    string
	FS      fs.FS
	Logger  *log.Logger
	Verbose bool
}

func NewIndex(cfg IndexConfig) *Index {
	fsys := cfg.FS
	if fsys == nil {
		fsys = os.DirFS(cfg.Root)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Index{fsys: fsys, logger: logger, verbose: cfg.Verbose}
}

// Days lists every day directory in the archive, oldest first. Directories
// that are empty are included.
func (x *Index) Days() ([]timestamp.Date, error) {
	entries, err := fs.ReadDir(x.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}

	days := make([]timestamp.Date, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		date, err := timestamp.ParseDate(entry.Name())
		if err != nil {
			x.debugf("Ignoring directory %s: %v", entry.Name(), err)
			continue
		}
		days = append(days, date)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// ImagesForDay returns the images of one day ordered by timestamp. A day
// without a directory yields ErrDayNotFound; an empty directory yields an
// empty slice.
func (x *Index) ImagesForDay(date timestamp.Date) ([]Image, error) {
	dir := date.String()
	entries, err := fs.ReadDir(x.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDayNotFound, dir)
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	images := make([]Image, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !timestamp.IsImageName(name) {
			continue
		}

		rel := path.Join(dir, name)
		dt, err := timestamp.ParseImageName(name)
		if err != nil {
			x.logger.Printf("Skipping %s: %v", rel, err)
			continue
		}
		if dt.Date() != date {
			x.logger.Printf("Skipping %s: taken on %s, filed under %s", rel, dt.Date(), dir)
			continue
		}
		images = append(images, Image{Timestamp: dt, Path: rel})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Timestamp.Compare(images[j].Timestamp) < 0
	})
	return images, nil
}

// LatestImage returns the newest image in the archive, or nil when the
// archive holds no images. Trailing empty day directories are passed over.
func (x *Index) LatestImage() (*Image, error) {
	days, err := x.Days()
	if err != nil {
		return nil, err
	}
	for i := len(days) - 1; i >= 0; i-- {
		images, err := x.ImagesForDay(days[i])
		if err != nil {
			return nil, err
		}
		if len(images) > 0 {
			latest := images[len(images)-1]
			return &latest, nil
		}
	}
	return nil, nil
}

// FirstDayWithImages returns the earliest day of the month holding at least
// one image, or nil.
func (x *Index) FirstDayWithImages(year, month int) (*timestamp.Date, error) {
	return x.firstDay(func(d timestamp.Date) bool {
		return d.Year == year && d.Month == month
	})
}

// EarliestDay returns the first day of the archive holding at least one
// image, or nil for an empty archive.
func (x *Index) EarliestDay() (*timestamp.Date, error) {
	return x.firstDay(func(timestamp.Date) bool { return true })
}

func (x *Index) firstDay(match func(timestamp.Date) bool) (*timestamp.Date, error) {
	days, err := x.Days()
	if err != nil {
		return nil, err
	}
	for _, day := range days {
		if !match(day) {
			continue
		}
		images, err := x.ImagesForDay(day)
		if err != nil {
			return nil, err
		}
		if len(images) > 0 {
			found := day
			return &found, nil
		}
	}
	return nil, nil
}

// LatestImageInHour returns the last image taken during the given hour of
// date, or nil.
func (x *Index) LatestImageInHour(date timestamp.Date, hour int) (*Image, error) {
	images, err := x.ImagesForDay(date)
	if err != nil {
		return nil, err
	}
	for i := len(images) - 1; i >= 0; i-- {
		if images[i].Timestamp.Hour == hour {
			found := images[i]
			return &found, nil
		}
	}
	return nil, nil
}

// FirstImageAtOrAfter returns the first image of date taken within hour at or
// after hour:minute:second. The search stays inside that hour: when nothing
// qualifies it returns nil even if later hours hold images.
func (x *Index) FirstImageAtOrAfter(date timestamp.Date, hour, minute, second int) (*Image, error) {
	images, err := x.ImagesForDay(date)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		if img.Timestamp.Hour != hour {
			continue
		}
		if img.Timestamp.CompareClock(hour, minute, second) >= 0 {
			found := img
			return &found, nil
		}
	}
	return nil, nil
}

// Find looks up the image with exactly the given timestamp.
func (x *Index) Find(dt timestamp.CivilDateTime) (*Image, error) {
	images, err := x.ImagesForDay(dt.Date())
	if err != nil {
		return nil, err
	}
	i, ok := locate(images, dt)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, timestamp.Format(dt))
	}
	found := images[i]
	return &found, nil
}

// Neighbors returns the images immediately before and after img on the same
// day. Either is nil at the edges of the day.
func (x *Index) Neighbors(img Image) (prev, next *Image, err error) {
	images, err := x.ImagesForDay(img.Timestamp.Date())
	if err != nil {
		return nil, nil, err
	}
	i, ok := locate(images, img.Timestamp)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrImageNotFound, img.Key())
	}
	if i > 0 {
		p := images[i-1]
		prev = &p
	}
	if i < len(images)-1 {
		n := images[i+1]
		next = &n
	}
	return prev, next, nil
}

func locate(images []Image, dt timestamp.CivilDateTime) (int, bool) {
	i := sort.Search(len(images), func(i int) bool {
		return images[i].Timestamp.Compare(dt) >= 0
	})
	if i < len(images) && images[i].Timestamp.Compare(dt) == 0 {
		return i, true
	}
	return i, false
}

func (x *Index) debugf(format string, args ...any) {
	if x.verbose {
		x.logger.Printf(format, args...)
	}
}
