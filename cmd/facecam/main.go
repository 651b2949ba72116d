package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/farmboy/facecam"
	"github.com/farmboy/facecam/utils"
)

const HelpBanner = `
┌─┐┌─┐┌─┐┌─┐┌─┐┌─┐┌┬┐
├┤ ├─┤│  ├┤ │  ├─┤│││
└  ┴ ┴└─┘└─┘└─┘┴ ┴┴ ┴

Face overlay for camera frames.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source image, directory or URL")
	destination = flag.String("out", pipeName, "Destination image or directory")
	maxDim      = flag.Int("max", facecam.DefaultMaxDimension, "Longest frame side handed to the detector")
	orientation = flag.Int("orientation", -1, "Raw orientation sensor reading in degrees (-1 if unknown)")
	rotation    = flag.Int("rotation", -1, "Rotation bucket (0, 90, 180, 270), overrides -orientation")
	cascade     = flag.String("cc", "", "Cascade classifier")
	backend     = flag.String("backend", "pigo", "Detector backend")
	modelDir    = flag.String("model-dir", "", "Directory the classifier is copied to (defaults to a temporary directory)")
	minSize     = flag.Int("minsize", 20, "Minimum face size")
	maxSize     = flag.Int("maxsize", 1000, "Maximum face size")
	shiftFactor = flag.Float64("shift", 0.1, "Shift detection window by percentage")
	scaleFactor = flag.Float64("scale", 1.1, "Scale detection window by percentage")
	faceAngle   = flag.Float64("angle", 0.0, "Plane rotated faces angle")
	iouThresh   = flag.Float64("iou", 0.2, "Intersection over union (IoU) threshold")
	minScore    = flag.Float64("score", 5.0, "Minimum detection score")
	boxColor    = flag.String("color", facecam.DefaultBoxColor, "Face rectangle color")
	markAnchor  = flag.Bool("anchor", false, "Mark the anchor corner of each face")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
	metricsFile = flag.String("metrics", "", "Write a Prometheus textfile snapshot to this path")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	if len(*cascade) == 0 {
		flag.Usage()
		log.Fatal(utils.DecorateText("\nPlease specify a face classifier with the -cc flag!", utils.ErrorMessage))
	}

	// The orientation listener and the frame source are independent:
	// the reading is stored in the cell and picked up by the next frame.
	rot := facecam.NewRotationCell(facecam.Rotation0)
	if *rotation >= 0 {
		rot.Store(facecam.Rotation(*rotation))
	} else {
		rot.Observe(*orientation)
	}

	proc := &facecam.Processor{
		MaxDimension: *maxDim,
		Rotation:     rot,
		BoxColor:     *boxColor,
		MarkAnchor:   *markAnchor,
		Metrics:      facecam.NewMetrics(),
	}

	build, conc, err := detectorFactory(*backend)
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	if !conc {
		*workers = 1
	}

	dir := *modelDir
	if dir == "" {
		dir, err = os.MkdirTemp("", "facelib")
		if err != nil {
			log.Fatal(utils.DecorateText(fmt.Sprintf("Unable to create the model directory: %v", err), utils.ErrorMessage))
		}
	}

	model, err := os.Open(*cascade)
	if err != nil {
		log.Fatal(utils.DecorateText(fmt.Sprintf("Unable to open the cascade classifier: %v", err), utils.ErrorMessage))
	}
	if !proc.SetupDetector(model, dir, filepath.Base(*cascade), build) {
		fmt.Fprintln(os.Stderr, utils.DecorateText("Face detection is disabled, the images are copied unmarked.", utils.StatusMessage))
	}
	model.Close()
	defer proc.Close()

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ FACECAM", utils.StatusMessage),
		utils.DecorateText("⇢ marking faces...", utils.DefaultMessage))
	spinner := utils.NewSpinner(spinnerText, time.Millisecond*80, true)

	// Capture CTRL-C signal and restore the cursor visibility back.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		spinner.RestoreCursor()
		// The workers may still be reading the detector, only the model file goes.
		proc.RemoveModel()
		os.Exit(1)
	}()

	op := &facecam.Ops{
		Src:      *source,
		Dst:      *destination,
		PipeName: pipeName,
		Workers:  *workers,
		Spinner:  spinner,
	}
	if *destination == pipeName {
		op.Spinner = nil
	}

	execErr := proc.Execute(op)

	if *metricsFile != "" {
		if err := proc.Metrics.WriteTextfile(*metricsFile); err != nil {
			fmt.Fprintln(os.Stderr, utils.DecorateText(fmt.Sprintf("Unable to write the metrics: %v", err), utils.ErrorMessage))
		}
	}
	if execErr != nil {
		proc.Close()
		log.Fatal(utils.DecorateText(execErr.Error(), utils.ErrorMessage))
	}
}

// detectorFactory resolves the backend flag. The second value reports whether
// the backend can be shared between concurrent workers.
func detectorFactory(name string) (facecam.DetectorFactory, bool, error) {
	if name == "pigo" {
		return facecam.PigoFactory(facecam.PigoOptions{
			MinSize:      *minSize,
			MaxSize:      *maxSize,
			ShiftFactor:  *shiftFactor,
			ScaleFactor:  *scaleFactor,
			Angle:        *faceAngle,
			IoUThreshold: *iouThresh,
			MinScore:     float32(*minScore),
		}), true, nil
	}
	build, ok := facecam.Backend(name)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s (available: %s)", facecam.ErrNoBackend, name, strings.Join(facecam.Backends(), ", "))
	}
	return build, false, nil
}
