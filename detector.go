package facecam

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sort"
	"sync"

	pigo "github.com/esimov/pigo/core"
	"github.com/farmboy/facecam/utils"
)

// Detector is the capability the frame processor needs from a face detector.
// The geometry code makes no assumption about the backend behind it.
type Detector interface {
	// Usable reports whether a model has been loaded. An unusable ("empty") detector
	// disables detection for the rest of the session.
	Usable() bool
	// Detect returns the face rectangles found in a grayscale frame, in the frame's own coordinates.
	Detect(img image.Image) []image.Rectangle
}

// DetectorFactory builds a detector out of a model file.
type DetectorFactory func(path string) (Detector, error)

var (
	backendsMu sync.RWMutex
	backends   = map[string]DetectorFactory{}
)

// RegisterBackend makes a detector backend available by name.
func RegisterBackend(name string, factory DetectorFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = factory
}

// Backend returns the factory registered under name.
func Backend(name string) (DetectorFactory, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	f, ok := backends[name]
	return f, ok
}

// Backends returns the sorted names of the registered backends.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// closeDetector releases the resources held by a detector, if it holds any.
func closeDetector(d Detector) error {
	if c, ok := d.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// PigoOptions holds the cascade parameters of the pigo detector.
type PigoOptions struct {
	MinSize      int     // minimum face size in pixels
	MaxSize      int     // maximum face size in pixels
	ShiftFactor  float64 // detection window shift, relative to the window size
	ScaleFactor  float64 // detection window growth between two passes
	Angle        float64 // cascade rotation angle. 0.0 is 0 radians and 1.0 is 2*pi radians
	IoUThreshold float64 // intersection over union threshold used when clustering detections
	MinScore     float32 // detections scoring below this value are dropped
}

// DefaultPigoOptions returns the cascade parameters used when none are provided.
func DefaultPigoOptions() PigoOptions {
	return PigoOptions{
		MinSize:      20,
		MaxSize:      1000,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		Angle:        0.0,
		IoUThreshold: 0.2,
		MinScore:     5.0,
	}
}

// withDefaults replaces the values the cascade cannot run with.
// A scale factor of 1 or less would never grow the detection window.
func (o PigoOptions) withDefaults() PigoOptions {
	def := DefaultPigoOptions()
	if o.MinSize <= 0 {
		o.MinSize = def.MinSize
	}
	if o.MaxSize <= 0 {
		o.MaxSize = def.MaxSize
	}
	if o.ShiftFactor <= 0 {
		o.ShiftFactor = def.ShiftFactor
	}
	if o.ScaleFactor <= 1 {
		o.ScaleFactor = def.ScaleFactor
	}
	return o
}

// cascadeHeaderSize covers the 8 skipped bytes, the tree depth and the number of trees.
const cascadeHeaderSize = 16

// PigoDetector detects faces with the pigo pixel intensity comparison cascade.
type PigoDetector struct {
	classifier *pigo.Pigo
	opts       PigoOptions
}

var _ Detector = (*PigoDetector)(nil)

// NewPigoDetector unpacks a binary pigo cascade.
// A well-formed cascade without any tree yields an unusable detector rather than an error.
func NewPigoDetector(cascade []byte, opts PigoOptions) (d *PigoDetector, err error) {
	if len(cascade) < cascadeHeaderSize {
		return nil, fmt.Errorf("cascade file too short: %d bytes", len(cascade))
	}
	d = &PigoDetector{opts: opts.withDefaults()}
	if binary.LittleEndian.Uint32(cascade[12:16]) == 0 {
		return d, nil
	}

	// pigo indexes the packet without bounds checks, a truncated file panics.
	defer func() {
		if r := recover(); r != nil {
			d, err = nil, fmt.Errorf("error unpacking the cascade file: %v", r)
		}
	}()

	// Unpack the binary file. This will return the number of cascade trees,
	// the tree depth, the threshold and the prediction from tree's leaf nodes.
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}
	d.classifier = classifier
	return d, nil
}

// LoadPigoDetector reads and unpacks a cascade file.
func LoadPigoDetector(path string, opts PigoOptions) (*PigoDetector, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading the cascade file: %w", err)
	}
	return NewPigoDetector(cascade, opts)
}

// PigoFactory returns a DetectorFactory building pigo detectors with opts.
func PigoFactory(opts PigoOptions) DetectorFactory {
	return func(path string) (Detector, error) {
		d, err := LoadPigoDetector(path, opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

// Usable reports whether the cascade holds at least one tree.
func (d *PigoDetector) Usable() bool {
	return d != nil && d.classifier != nil
}

// Detect runs the cascade over img and returns the clustered detections as squares
// centered on the detection point, clipped to the frame.
func (d *PigoDetector) Detect(img image.Image) []image.Rectangle {
	if !d.Usable() {
		return nil
	}
	pixels, rows, cols := grayPixels(img)
	if rows == 0 || cols == 0 {
		return nil
	}

	cParams := pigo.CascadeParams{
		MinSize:     d.opts.MinSize,
		MaxSize:     utils.Min(d.opts.MaxSize, utils.Min(rows, cols)),
		ShiftFactor: d.opts.ShiftFactor,
		ScaleFactor: d.opts.ScaleFactor,

		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	// Run the classifier over the obtained leaf nodes and return the detection results.
	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := d.classifier.RunCascade(cParams, d.opts.Angle)

	// Calculate the intersection over union (IoU) of two clusters.
	dets = d.classifier.ClusterDetections(dets, d.opts.IoUThreshold)

	frame := image.Rect(0, 0, cols, rows)
	rects := make([]image.Rectangle, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.opts.MinScore {
			continue
		}
		rect := image.Rect(
			det.Col-det.Scale/2,
			det.Row-det.Scale/2,
			det.Col+det.Scale/2,
			det.Row+det.Scale/2,
		).Intersect(frame)
		if !rect.Empty() {
			rects = append(rects, rect)
		}
	}
	return rects
}

// ErrNoBackend is returned when a backend name has not been registered.
var ErrNoBackend = errors.New("unknown detector backend")

func init() {
	RegisterBackend("pigo", PigoFactory(DefaultPigoOptions()))
}
