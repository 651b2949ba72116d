package facecam

import (
	"errors"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/farmboy/facecam/utils"
)

// DefaultBoxColor is the color of the face rectangles.
const DefaultBoxColor = "#ff0000"

// Processor options
type Processor struct {
	// MaxDimension bounds the longest side of the frame handed to the detector.
	// Zero means DefaultMaxDimension.
	MaxDimension int
	// Detector finds the faces. Detection is disabled while it is nil or unusable.
	Detector Detector
	// Rotation is the cell updated by the orientation listener. A nil cell reads as Rotation0.
	Rotation *RotationCell
	// Mounting maps the rotation buckets to frame transforms. Nil means DefaultMounting.
	Mounting MountingProfile
	// BoxColor is the hex color of the overlay.
	BoxColor string
	// MarkAnchor draws a dot on the anchor corner of every rectangle.
	MarkAnchor bool
	Metrics    *Metrics

	// modelPath is set when the model file has been copied by SetupDetector.
	mu        sync.Mutex
	modelPath string
}

var _ FrameProcessor = (*Processor)(nil)

// FrameProcessor processes one camera frame at a time and returns the face rectangles
// drawn over its color view.
type FrameProcessor interface {
	ProcessFrame(Frame) []DisplayRect
}

func (p *Processor) maxDimension() int {
	if p.MaxDimension <= 0 {
		return DefaultMaxDimension
	}
	return p.MaxDimension
}

func (p *Processor) rotation() Rotation {
	if p.Rotation == nil {
		return Rotation0
	}
	return p.Rotation.Load()
}

func (p *Processor) mounting() MountingProfile {
	if p.Mounting == nil {
		return DefaultMounting
	}
	return p.Mounting
}

func (p *Processor) boxColor() string {
	if p.BoxColor == "" {
		return DefaultBoxColor
	}
	return p.BoxColor
}

// DetectionEnabled reports whether frames are currently run through a usable detector.
func (p *Processor) DetectionEnabled() bool {
	return p.Detector != nil && p.Detector.Usable()
}

// SetupDetector copies the bundled model read from src into dir/name and builds
// the detector from the copy. Failures are not fatal: they are logged and the
// session simply runs without detection. It reports whether detection is enabled.
func (p *Processor) SetupDetector(src io.Reader, dir, name string, build DetectorFactory) bool {
	_, statErr := os.Stat(filepath.Join(dir, name))
	path, err := ProvisionModel(src, dir, name)
	if err != nil {
		log.Printf("error loading cascade face model: %v", err)
		p.Detector = nil
		return false
	}
	if errors.Is(statErr, fs.ErrNotExist) {
		p.mu.Lock()
		p.modelPath = path
		p.mu.Unlock()
	}

	det, err := build(path)
	if err != nil {
		log.Printf("error loading cascade face model: %v", err)
		p.Detector = nil
		return false
	}
	if det == nil || !det.Usable() {
		log.Printf("the face model %s is empty, face detection is disabled", path)
		if det != nil {
			closeDetector(det)
		}
		p.Detector = nil
		return false
	}

	p.Detector = det
	return true
}

// Close releases the detector and removes the model file copied by SetupDetector.
// It must not run while frames are being processed.
func (p *Processor) Close() error {
	var err error
	if p.Detector != nil {
		err = closeDetector(p.Detector)
		p.Detector = nil
	}
	if rerr := p.RemoveModel(); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

// RemoveModel deletes the model file copied by SetupDetector, together with its
// directory once that is empty. The detector is left untouched, so it is safe to
// call while frames are still being processed, e.g. from a signal handler.
func (p *Processor) RemoveModel() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.modelPath == "" {
		return nil
	}
	var err error
	if rerr := os.Remove(p.modelPath); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
		err = rerr
	}
	// Fails harmlessly when the directory holds anything else.
	os.Remove(filepath.Dir(p.modelPath))
	p.modelPath = ""

	return err
}

// ProcessFrame detects the faces of a single frame and draws them over its color view.
//
// The grayscale view is shrunk to MaxDimension, corrected for the current rotation
// and handed to the detector. Every detection is then mapped back to the full resolution,
// un-rotated color frame before anything is drawn. The rotation is read once per frame.
// Temporary buffers are dropped when the call returns.
func (p *Processor) ProcessFrame(f Frame) []DisplayRect {
	if !p.DetectionEnabled() || f.Color == nil || f.Gray == nil {
		p.Metrics.frameSkipped()
		return nil
	}
	start := time.Now()

	gb := f.Gray.Bounds()
	ratio := ComputeScaleFactor(gb.Dx(), gb.Dy(), p.maxDimension())
	scaled := ScaleFrame(f.Gray, ratio)

	rot := p.rotation()
	mounting := p.mounting()
	upright := mounting.CorrectForRotation(scaled, rot)

	dets := p.Detector.Detect(upright)

	cb := f.Color.Bounds()
	col := utils.HexToRGBA(p.boxColor())
	rects := make([]DisplayRect, 0, len(dets))

	for _, det := range dets {
		rect := mounting.MapDetectionToDisplay(det, ratio, rot, cb.Dx(), cb.Dy())
		rects = append(rects, rect)

		drawRect(f.Color, rect.Bounds(), col, boxThickness)
		if p.MarkAnchor {
			drawDot(f.Color, rect.Anchor, anchorRadius, col)
		}
	}
	p.Metrics.frameProcessed(len(rects), start)

	return rects
}

// Process decodes an image, processes it as a single camera frame and
// encodes the marked image into w.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	src, err := decodeImg(r)
	if err != nil {
		return err
	}
	frame := NewFrame(src)
	p.ProcessFrame(frame)

	return encodeImg(w, frame.Color)
}
