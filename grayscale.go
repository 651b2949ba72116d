package facecam

import (
	"image"
)

// Frame is a single camera callback: a color view the overlay is drawn on and a
// grayscale view of the same content and size, used for detection.
// A Frame is owned by one ProcessFrame call and must not be retained afterwards.
type Frame struct {
	Color *image.NRGBA
	Gray  image.Image
}

// NewFrame builds both views of a frame out of a decoded image.
// When img is already an *image.NRGBA anchored at the origin, the color view shares its pixels.
func NewFrame(img image.Image) Frame {
	color := imgToNRGBA(img)
	return Frame{
		Color: color,
		Gray:  Grayscale(color),
	}
}

// Grayscale converts the image to an 8 bit luminance image anchored at (0, 0).
func Grayscale(src image.Image) *image.Gray {
	bounds := src.Bounds()
	dx, dy := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, dx, dy))

	for y := 0; y < dy; y++ {
		for x := 0; x < dx; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			lum := float32(r)*0.299 + float32(g)*0.587 + float32(b)*0.114
			dst.Pix[y*dst.Stride+x] = uint8(lum / 256)
		}
	}
	return dst
}

// grayPixels returns the luminance values of img as a row-major slice together with its size.
func grayPixels(img image.Image) (pixels []uint8, rows, cols int) {
	b := img.Bounds()
	rows, cols = b.Dy(), b.Dx()

	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) && g.Stride == cols {
		return g.Pix[:rows*cols], rows, cols
	}
	return Grayscale(img).Pix, rows, cols
}
