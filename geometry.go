package facecam

import (
	"image"
	"math"

	"github.com/farmboy/facecam/utils"
)

// DefaultMaxDimension is the longest side, in pixels, a frame may have when it reaches the detector.
const DefaultMaxDimension = 480

// Point is a coordinate in display space.
type Point struct {
	X float64
	Y float64
}

// DisplayRect is a detection mapped back into the coordinate space of the full resolution color frame.
// The corners are kept in the order the rotation transform produced them, which means that
// X1 > X2 or Y1 > Y2 is possible and the values are never clamped to the frame.
type DisplayRect struct {
	X1, Y1 float64
	X2, Y2 float64

	// Anchor is the first corner, used for marking the reference dot.
	Anchor Point
}

func newDisplayRect(x1, y1, x2, y2 float64) DisplayRect {
	return DisplayRect{
		X1: x1, Y1: y1,
		X2: x2, Y2: y2,
		Anchor: Point{X: x1, Y: y1},
	}
}

// Center returns the middle point of the rectangle.
func (r DisplayRect) Center() Point {
	return Point{
		X: (r.X1 + r.X2) / 2,
		Y: (r.Y1 + r.Y2) / 2,
	}
}

// Bounds converts the rectangle to a canonical, integer image.Rectangle, suitable for drawing.
func (r DisplayRect) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X1)), int(math.Round(r.Y1)),
		int(math.Round(r.X2)), int(math.Round(r.Y2)),
	)
}

// ComputeScaleFactor returns the ratio a frame of the given size has to be shrunk with,
// so that its longest side does not exceed maxDimension. Frames that already fit are never
// upscaled: the returned ratio is 1.0 in that case.
func ComputeScaleFactor(width, height, maxDimension int) float64 {
	longSide := utils.Max(width, height)
	if maxDimension <= 0 || longSide <= maxDimension {
		return 1.0
	}
	return float64(maxDimension) / float64(longSide)
}

// unscale moves a rectangle from the scaled detector space back to full resolution.
func unscale(rect image.Rectangle, scale float64) (x, y, w, h float64) {
	x, y = float64(rect.Min.X), float64(rect.Min.Y)
	w, h = float64(rect.Dx()), float64(rect.Dy())

	if scale != 1.0 && scale > 0 {
		x /= scale
		y /= scale
		w /= scale
		h /= scale
	}
	return x, y, w, h
}

// MapDetectionToDisplay maps a rectangle returned by the detector back to display space,
// using the default device mounting table. See MountingProfile.MapDetectionToDisplay.
func MapDetectionToDisplay(rect image.Rectangle, scale float64, rot Rotation, displayWidth, displayHeight int) DisplayRect {
	return DefaultMounting.MapDetectionToDisplay(rect, scale, rot, displayWidth, displayHeight)
}
