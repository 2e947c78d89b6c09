package watcher

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"kamera/internal/catalog"
	"kamera/internal/solar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cet = time.FixedZone("CET", 3600)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*Event
}

func (p *recordingPublisher) Publish(event *Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Image.Key())
	}
	return out
}

func writeImage(t *testing.T, root, day, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, day), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, day, name), []byte("jpeg"), 0o644))
}

func newTestWatcher(root string, pub Publisher, interval time.Duration) *Watcher {
	logger := log.New(io.Discard, "", 0)
	return NewWatcher(WatcherConfig{
		Catalog:    catalog.NewIndex(catalog.IndexConfig{Root: root, Logger: logger}),
		Calculator: solar.NewCalculator(solar.CalculatorConfig{TimeZone: cet}),
		Location:   solar.GeoLocation{Latitude: 68.329891, Longitude: 14.092439, Zenith: solar.DefaultZenith},
		Root:       root,
		Publisher:  pub,
		Interval:   interval,
		Enabled:    true,
		Logger:     logger,
	})
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	pub := &recordingPublisher{}
	w := newTestWatcher(root, pub, time.Hour)

	event, err := w.Scan()
	require.NoError(t, err)
	assert.Nil(t, event, "empty archive")

	writeImage(t, root, "20151210", "image-2015121011300001.jpg")
	event, err = w.Scan()
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "2015121011300001", event.Image.Key())
	assert.True(t, event.Window.PolarNight)
	assert.True(t, event.Daylight)
	assert.Equal(t, event, w.Latest())

	event, err = w.Scan()
	require.NoError(t, err)
	assert.Nil(t, event, "nothing new")

	writeImage(t, root, "20151210", "image-2015121013000001.jpg")
	event, err = w.Scan()
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.False(t, event.Daylight, "13:00 is after polar night dusk")

	assert.Equal(t, []string{"2015121011300001", "2015121013000001"}, pub.keys())
}

func TestStartFollowsNewImages(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "20151210", "image-2015121011000001.jpg")

	pub := &recordingPublisher{}
	w := newTestWatcher(root, pub, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool { return len(pub.keys()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.True(t, w.IsWatching())

	writeImage(t, root, "20151210", "image-2015121011050001.jpg")
	require.Eventually(t, func() bool { return len(pub.keys()) == 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.False(t, w.IsWatching())
	assert.Equal(t, "2015121011050001", w.Latest().Image.Key())
}

func TestStartPollsWithoutNotifications(t *testing.T) {
	root := t.TempDir()
	pub := &recordingPublisher{}
	w := newTestWatcher(root, pub, 20*time.Millisecond)
	w.root = ""

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	writeImage(t, root, "20151211", "image-2015121111000001.jpg")
	require.Eventually(t, func() bool { return len(pub.keys()) == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestDisabledWatcherReturnsImmediately(t *testing.T) {
	w := NewWatcher(WatcherConfig{Logger: log.New(io.Discard, "", 0)})
	require.NoError(t, w.Start(context.Background()))
	assert.False(t, w.IsWatching())
	assert.Nil(t, w.Latest())
}
