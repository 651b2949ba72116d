package facecam

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

const (
	boxThickness = 2
	anchorRadius = 4
)

// drawRect draws the outline of r over dst. The edges are laid inside the rectangle
// and anything outside the frame is clipped.
func drawRect(dst draw.Image, r image.Rectangle, c color.Color, thickness int) {
	r = r.Canon().Add(dst.Bounds().Min)
	src := &image.Uniform{C: c}

	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r).Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawDot paints a filled circle of the given radius centered on p.
func drawDot(dst draw.Image, p Point, radius int, c color.Color) {
	b := dst.Bounds()
	cx := b.Min.X + int(math.Round(p.X))
	cy := b.Min.Y + int(math.Round(p.Y))

	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > radius*radius {
				continue
			}
			pt := image.Pt(cx+x, cy+y)
			if pt.In(b) {
				dst.Set(pt.X, pt.Y, c)
			}
		}
	}
}
