package daylight

import (
	"testing"
	"time"

	"kamera/internal/catalog"
	"kamera/internal/solar"
	"kamera/internal/timestamp"

	"github.com/stretchr/testify/assert"
)

var cet = time.FixedZone("CET", 3600)

func image(h, m, s, ff int) catalog.Image {
	dt := timestamp.CivilDateTime{Year: 2015, Month: 12, Day: 2, Hour: h, Minute: m, Second: s, Subsecond: ff}
	return catalog.Image{Timestamp: dt, Path: "20151202/" + timestamp.ImageName(dt)}
}

func window(dawnH, dawnM, duskH, duskM int) solar.Window {
	return solar.Window{
		Dawn: time.Date(2015, 12, 2, dawnH, dawnM, 0, 0, cet),
		Dusk: time.Date(2015, 12, 2, duskH, duskM, 0, 0, cet),
	}
}

func TestVisible(t *testing.T) {
	images := []catalog.Image{image(8, 0, 0, 1), image(9, 40, 0, 1), image(22, 0, 0, 1)}

	got := Visible(images, window(8, 30, 21, 0), cet)

	assert.Equal(t, []catalog.Image{image(9, 40, 0, 1)}, got)
}

func TestVisibleBoundaries(t *testing.T) {
	w := window(8, 30, 21, 0)

	tests := []struct {
		name  string
		image catalog.Image
		want  bool
	}{
		{"exactly dawn", image(8, 30, 0, 0), true},
		{"exactly dawn with subsecond", image(8, 30, 0, 99), true},
		{"one second before dawn", image(8, 29, 59, 0), false},
		{"exactly dusk", image(21, 0, 0, 0), true},
		{"exactly dusk with subsecond", image(21, 0, 0, 42), true},
		{"one second after dusk", image(21, 0, 1, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Visible([]catalog.Image{tt.image}, w, cet)
			if tt.want {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestVisiblePreservesOrderAndNeverReturnsNil(t *testing.T) {
	images := []catalog.Image{image(10, 0, 0, 0), image(11, 0, 0, 0), image(12, 0, 0, 0)}

	got := Visible(images, window(0, 0, 23, 59), cet)
	assert.Equal(t, images, got)

	none := Visible(images, window(13, 0, 14, 0), cet)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	assert.NotNil(t, Visible(nil, window(0, 0, 1, 0), cet))
}
