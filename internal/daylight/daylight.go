// Package daylight restricts image sequences to a day's dawn-dusk window.
package daylight

import (
	"time"

	"kamera/internal/catalog"
	"kamera/internal/solar"
)

// Visible keeps the images taken within [Dawn, Dusk], both ends included,
// preserving their order. Image times are read in loc at whole seconds.
func Visible(images []catalog.Image, w solar.Window, loc *time.Location) []catalog.Image {
	visible := make([]catalog.Image, 0, len(images))
	for _, img := range images {
		if Contains(w, img.Time(loc)) {
			visible = append(visible, img)
		}
	}
	return visible
}

// Contains reports whether t lies within [Dawn, Dusk].
func Contains(w solar.Window, t time.Time) bool {
	return !t.Before(w.Dawn) && !t.After(w.Dusk)
}
