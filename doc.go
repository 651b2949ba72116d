/*
Package facecam marks the faces found in camera frames.

Every frame arrives as a color view and a grayscale view. The grayscale view is shrunk so that
its longest side fits the working resolution, turned upright according to the latest device
orientation and handed to a cascade face detector. The detected rectangles are then mapped back
through the inverse scale and rotation, so the overlay lines up with the un-rotated color frame.

The package also provides a command line interface, which processes still images as single frames.
To check the supported commands type:

	$ facecam --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"log"
		"os"

		"github.com/farmboy/facecam"
	)

	func main() {
		rot := facecam.NewRotationCell(facecam.Rotation90)
		p := &facecam.Processor{Rotation: rot}

		model, err := os.Open("facefinder")
		if err != nil {
			log.Fatal(err)
		}
		defer model.Close()

		p.SetupDetector(model, os.TempDir()+"/facelib", "facefinder", facecam.PigoFactory(facecam.DefaultPigoOptions()))
		defer p.Close()

		// From the orientation listener:
		//	rot.Observe(degrees)
		// From the camera callback:
		//	rects := p.ProcessFrame(facecam.Frame{Color: rgba, Gray: gray})
	}
*/
package facecam
