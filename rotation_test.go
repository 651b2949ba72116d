package facecam

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotation_BucketOrientation(t *testing.T) {
	testCases := map[int]Rotation{
		-1:  Rotation0,
		0:   Rotation0,
		30:  Rotation0,
		44:  Rotation0,
		45:  Rotation270,
		100: Rotation270,
		134: Rotation270,
		135: Rotation180,
		200: Rotation180,
		224: Rotation180,
		225: Rotation90,
		300: Rotation90,
		314: Rotation90,
		315: Rotation0,
		359: Rotation0,
		360: Rotation0,
	}
	for raw, want := range testCases {
		assert.Equal(t, want, BucketOrientation(raw), "raw orientation %d", raw)
	}
}

func TestRotation_String(t *testing.T) {
	assert.Equal(t, "270°", Rotation270.String())
}

func TestRotation_CellObserve(t *testing.T) {
	var cell RotationCell
	assert.Equal(t, Rotation0, cell.Load())

	assert.Equal(t, Rotation180, cell.Observe(200))
	assert.Equal(t, Rotation180, cell.Load())

	cell.Store(Rotation90)
	assert.Equal(t, Rotation90, cell.Load())

	assert.Equal(t, Rotation270, NewRotationCell(Rotation270).Load())
}

func TestRotation_CellConcurrentAccess(t *testing.T) {
	cell := NewRotationCell(Rotation0)
	valid := map[Rotation]bool{Rotation0: true, Rotation90: true, Rotation180: true, Rotation270: true}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			cell.Observe(i % 360)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			if r := cell.Load(); !valid[r] {
				t.Errorf("torn rotation value: %d", r)
				return
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, BucketOrientation(9999%360), cell.Load())
}

// makeMarkedImage returns a w*h image with a single white pixel at (x, y).
func makeMarkedImage(w, h, x, y int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(x, y, color.White)
	return img
}

// markedPixel returns the position of the only white pixel of img.
func markedPixel(t *testing.T, img image.Image) image.Point {
	t.Helper()

	var found []image.Point
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r == 0xffff {
				found = append(found, image.Pt(x, y))
			}
		}
	}
	require.Len(t, found, 1)
	return found[0]
}

func TestRotation_CorrectForRotation(t *testing.T) {
	// 4 pixels wide, 3 pixels tall, marked at (1, 0).
	src := makeMarkedImage(4, 3, 1, 0)

	testCases := []struct {
		name   string
		rot    Rotation
		size   image.Point
		marked image.Point
	}{
		{name: "transpose", rot: Rotation0, size: image.Pt(3, 4), marked: image.Pt(0, 1)},
		{name: "identity", rot: Rotation90, size: image.Pt(4, 3), marked: image.Pt(1, 0)},
		{name: "counter-clockwise", rot: Rotation180, size: image.Pt(3, 4), marked: image.Pt(0, 2)},
		{name: "vertical flip", rot: Rotation270, size: image.Pt(4, 3), marked: image.Pt(1, 2)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CorrectForRotation(src, tc.rot)
			assert.Equal(t, tc.size, got.Bounds().Size())
			assert.Equal(t, tc.marked, markedPixel(t, got))
		})
	}
	// The source frame is never modified in place.
	assert.Equal(t, image.Pt(1, 0), markedPixel(t, src))
}

func TestRotation_UnknownRotationIsIdentity(t *testing.T) {
	src := makeMarkedImage(4, 3, 1, 0)

	for _, rot := range []Rotation{Rotation90, Rotation(45), Rotation(-90), Rotation(360)} {
		got := CorrectForRotation(src, rot)
		assert.Same(t, src, got.(*image.NRGBA), "rotation %d", rot)
	}

	r := image.Rect(10, 20, 15, 28)
	got := MapDetectionToDisplay(r, 1.0, Rotation(45), 480, 480)
	assert.Equal(t, image.Rect(10, 20, 15, 28), got.Bounds())
}

func TestRotation_CustomMountingProfile(t *testing.T) {
	// A sensor mounted upright: only the upside down position needs a flip.
	profile := MountingProfile{
		Rotation180: FlipVertical,
	}
	src := makeMarkedImage(4, 3, 1, 0)

	assert.Same(t, src, profile.CorrectForRotation(src, Rotation0).(*image.NRGBA))
	assert.Equal(t, image.Pt(1, 2), markedPixel(t, profile.CorrectForRotation(src, Rotation180)))

	got := profile.MapDetectionToDisplay(image.Rect(10, 20, 15, 28), 1.0, Rotation180, 480, 480)
	assert.Equal(t, [4]float64{10, 460, 15, 452}, [4]float64{got.X1, got.Y1, got.X2, got.Y2})

	assert.Equal(t, Identity, profile.Transform(Rotation90))
	assert.Equal(t, Transpose, DefaultMounting.Transform(Rotation0))
}
