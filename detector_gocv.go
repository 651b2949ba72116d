//go:build gocv

package facecam

import (
	"image"

	"gocv.io/x/gocv"
)

// HaarDetector detects faces with an OpenCV Haar cascade, such as haarcascade_frontalface_alt2.xml.
// It requires the OpenCV libraries and is only built with the gocv build tag.
// The underlying classifier is not safe for concurrent use.
type HaarDetector struct {
	classifier gocv.CascadeClassifier
	loaded     bool
}

var _ Detector = (*HaarDetector)(nil)

// LoadHaarDetector loads the cascade stored at path. A file OpenCV cannot parse yields
// an unusable detector, mirroring CascadeClassifier.empty().
func LoadHaarDetector(path string) (*HaarDetector, error) {
	d := &HaarDetector{classifier: gocv.NewCascadeClassifier()}
	d.loaded = d.classifier.Load(path)
	return d, nil
}

// Usable reports whether the cascade has been loaded.
func (d *HaarDetector) Usable() bool {
	return d != nil && d.loaded
}

// Detect runs the multi scale detection over the luminance of img.
func (d *HaarDetector) Detect(img image.Image) []image.Rectangle {
	if !d.Usable() {
		return nil
	}
	mat, err := gocv.ImageGrayToMatGray(Grayscale(img))
	if err != nil {
		return nil
	}
	defer mat.Close()

	return d.classifier.DetectMultiScale(mat)
}

// Close releases the native classifier.
func (d *HaarDetector) Close() error {
	return d.classifier.Close()
}

func init() {
	RegisterBackend("haar", func(path string) (Detector, error) {
		d, err := LoadHaarDetector(path)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}
