// Package watcher follows the archive for newly captured images and announces
// each one together with the daylight window of its day.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"kamera/internal/catalog"
	"kamera/internal/daylight"
	"kamera/internal/solar"
	"kamera/internal/timestamp"

	"github.com/fsnotify/fsnotify"
)

// Event describes the newest image in the archive.
type Event struct {
	Image    catalog.Image `json:"image"`
	Window   solar.Window  `json:"window"`
	Daylight bool          `json:"daylight"`
}

type Publisher interface {
	Publish(event *Event) error
}

type Catalog interface {
	Days() ([]timestamp.Date, error)
	LatestImage() (*catalog.Image, error)
}

type Watcher struct {
	catalog    Catalog
	calc       *solar.Calculator
	location   solar.GeoLocation
	root       string
	publisher  Publisher
	interval   time.Duration
	enabled    bool
	logger     *log.Logger
	watchedDay string

	mu       sync.RWMutex
	latest   *Event
	watching bool
}

type WatcherConfig struct {
	Catalog    Catalog
	Calculator *solar.Calculator
	Location   solar.GeoLocation
	// Root is the archive directory to watch. Without it only the interval
	// scan runs.
	Root      string
	Publisher Publisher
	Interval  time.Duration
	Enabled   bool
	Logger    *log.Logger
}

func NewWatcher(cfg WatcherConfig) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	calc := cfg.Calculator
	if calc == nil {
		calc = solar.NewCalculator(solar.CalculatorConfig{})
	}
	return &Watcher{
		catalog:   cfg.Catalog,
		calc:      calc,
		location:  cfg.Location,
		root:      cfg.Root,
		publisher: cfg.Publisher,
		interval:  interval,
		enabled:   cfg.Enabled,
		logger:    logger,
	}
}

// Start scans once, then again on every filesystem change under the archive
// and on every interval tick, until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.enabled {
		w.logger.Println("Watcher is disabled")
		return nil
	}

	w.mu.Lock()
	w.watching = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	}()

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
		fsw    *fsnotify.Watcher
	)
	if w.root != "" {
		var err error
		fsw, err = fsnotify.NewWatcher()
		if err != nil {
			w.logger.Printf("Filesystem notifications unavailable, polling only: %v", err)
		} else {
			defer fsw.Close()
			if err := fsw.Add(w.root); err != nil {
				w.logger.Printf("Failed to watch %s: %v", w.root, err)
			}
			w.watchNewestDay(fsw)
			events, errs = fsw.Events, fsw.Errors
		}
	}

	w.logger.Printf("Starting watcher with interval %s", w.interval)

	// Initial scan
	w.scanAndLog()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Println("Watcher stopped")
			return nil
		case <-ticker.C:
			w.scanAndLog()
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			w.handle(fsw, event)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Base(event.Name)
	if _, err := timestamp.ParseDate(name); err == nil && filepath.Dir(event.Name) == filepath.Clean(w.root) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watchNewestDay(fsw)
		}
	}
	if !timestamp.IsImageName(name) {
		return
	}
	w.scanAndLog()
}

// watchNewestDay moves the directory watch to the newest day directory.
func (w *Watcher) watchNewestDay(fsw *fsnotify.Watcher) {
	days, err := w.catalog.Days()
	if err != nil || len(days) == 0 {
		return
	}
	newest := days[len(days)-1].String()
	if newest == w.watchedDay {
		return
	}
	if err := fsw.Add(filepath.Join(w.root, newest)); err != nil {
		w.logger.Printf("Failed to watch %s: %v", newest, err)
		return
	}
	if w.watchedDay != "" {
		_ = fsw.Remove(filepath.Join(w.root, w.watchedDay))
	}
	w.watchedDay = newest
}

func (w *Watcher) scanAndLog() {
	if _, err := w.Scan(); err != nil {
		w.logger.Printf("Error scanning archive: %v", err)
	}
}

// Scan looks up the newest image and, when it is newer than the last one
// seen, records and publishes it. It returns nil when nothing changed.
func (w *Watcher) Scan() (*Event, error) {
	img, err := w.catalog.LatestImage()
	if err != nil || img == nil {
		return nil, err
	}

	w.mu.RLock()
	previous := w.latest
	w.mu.RUnlock()
	if previous != nil && img.Timestamp.Compare(previous.Image.Timestamp) <= 0 {
		return nil, nil
	}

	window, err := w.calc.Compute(img.Timestamp.Date(), w.location)
	if err != nil {
		return nil, err
	}
	event := &Event{
		Image:    *img,
		Window:   window,
		Daylight: daylight.Contains(window, img.Time(w.calc.TimeZone())),
	}

	w.mu.Lock()
	w.latest = event
	w.mu.Unlock()

	if w.publisher != nil {
		if err := w.publisher.Publish(event); err != nil {
			w.logger.Printf("Error publishing to MQTT: %v", err)
		}
	}

	w.logger.Printf("New image: %s (daylight=%t)", img.Path, event.Daylight)
	return event, nil
}

func (w *Watcher) Latest() *Event {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest
}

func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}
