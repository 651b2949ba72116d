package facecam

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/disintegration/imaging"
)

// Rotation is a device orientation bucket, expressed in degrees.
type Rotation int

// The four canonical orientation buckets.
const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

func (r Rotation) String() string {
	return fmt.Sprintf("%d°", int(r))
}

// BucketOrientation converts a raw orientation sensor reading into one of the four rotation buckets.
// The labels are inverted relative to the raw degrees (45–134 is reported as 270 and 225–314 as 90),
// which compensates for the sensor and the display using opposite conventions.
// Readings outside [0, 360), including the -1 "unknown" value, end up in the 0 bucket.
func BucketOrientation(raw int) Rotation {
	switch {
	case raw >= 45 && raw <= 134:
		return Rotation270
	case raw >= 135 && raw <= 224:
		return Rotation180
	case raw >= 225 && raw <= 314:
		return Rotation90
	default:
		return Rotation0
	}
}

// RotationCell holds the latest known orientation bucket.
//
// The orientation callback writes the cell and the frame callback reads it, independently
// of each other and without any coordination. The rotation applied to a frame is therefore
// whatever was last stored, which may be up to one sensor update interval stale.
// The zero value holds Rotation0 and is ready to use.
type RotationCell struct {
	v atomic.Int32
}

// NewRotationCell returns a cell initialized with r.
func NewRotationCell(r Rotation) *RotationCell {
	c := &RotationCell{}
	c.Store(r)
	return c
}

// Load returns the last stored rotation.
func (c *RotationCell) Load() Rotation {
	return Rotation(c.v.Load())
}

// Store overwrites the current rotation.
func (c *RotationCell) Store(r Rotation) {
	c.v.Store(int32(r))
}

// Observe buckets a raw sensor reading and stores the result. It is meant to be called
// from the orientation listener.
func (c *RotationCell) Observe(raw int) Rotation {
	r := BucketOrientation(raw)
	c.Store(r)
	return r
}

// Transform is a fixed geometric transformation applied to a frame before detection.
type Transform int

const (
	// Identity leaves the frame untouched.
	Identity Transform = iota
	// Transpose rotates the frame 90° clockwise, then mirrors it horizontally.
	Transpose
	// RotateCCW rotates the frame 90° counter-clockwise.
	RotateCCW
	// FlipVertical mirrors the frame top to bottom.
	FlipVertical
)

// Apply transforms img. Identity (and any unknown transform) returns img itself, without copying.
func (t Transform) Apply(img image.Image) image.Image {
	switch t {
	case Transpose:
		return imaging.FlipH(imaging.Rotate270(img))
	case RotateCCW:
		return imaging.Rotate90(img)
	case FlipVertical:
		return imaging.FlipV(img)
	default:
		return img
	}
}

// unmap takes an unscaled rectangle detected in the transformed frame and returns its
// corners in the un-rotated display buffer.
func (t Transform) unmap(x, y, w, h float64, displayWidth, displayHeight int) DisplayRect {
	switch t {
	case Transpose:
		return newDisplayRect(y, x, y+h, x+w)
	case RotateCCW:
		yFixed := float64(displayWidth) - y
		hFixed := yFixed - h
		return newDisplayRect(yFixed, x, hFixed, x+w)
	case FlipVertical:
		yFixed := float64(displayHeight) - y
		hFixed := yFixed - h
		return newDisplayRect(x, yFixed, x+w, hFixed)
	default:
		return newDisplayRect(x, y, x+w, y+h)
	}
}

// MountingProfile is the lookup table between the orientation buckets and the transform
// needed to bring the preview upright. The table encodes how the camera sensor is mounted
// relative to the display, so it differs between device families.
// Rotations missing from the table fall back to Identity.
type MountingProfile map[Rotation]Transform

// DefaultMounting is the mounting table of a front facing camera on a portrait-first phone.
var DefaultMounting = MountingProfile{
	Rotation0:   Transpose,
	Rotation90:  Identity,
	Rotation180: RotateCCW,
	Rotation270: FlipVertical,
}

// Transform returns the transform registered for rot.
func (m MountingProfile) Transform(rot Rotation) Transform {
	if t, ok := m[rot]; ok {
		return t
	}
	return Identity
}

// CorrectForRotation applies the transform registered for rot to img.
func (m MountingProfile) CorrectForRotation(img image.Image, rot Rotation) image.Image {
	return m.Transform(rot).Apply(img)
}

// MapDetectionToDisplay maps a rectangle produced by the detector in the scaled, rotation
// corrected frame back into display space. The scale is undone first, then the rotation.
//
// The mirrored branches compute the far edge as yFixed - h, which goes negative when a
// detection is larger than its distance to the mirror edge. The result is intentionally
// neither clamped nor reordered.
func (m MountingProfile) MapDetectionToDisplay(rect image.Rectangle, scale float64, rot Rotation, displayWidth, displayHeight int) DisplayRect {
	x, y, w, h := unscale(rect, scale)
	return m.Transform(rot).unmap(x, y, w, h, displayWidth, displayHeight)
}

// CorrectForRotation applies the default mounting transform for rot to img.
func CorrectForRotation(img image.Image, rot Rotation) image.Image {
	return DefaultMounting.CorrectForRotation(img, rot)
}
