package facecam

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the frame processing statistics on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	framesProcessed prometheus.Counter
	framesSkipped   prometheus.Counter
	facesDetected   prometheus.Counter
	processLatency  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facecam_frames_processed_total",
			Help: "Total frames run through the face detector",
		}),
		framesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facecam_frames_skipped_total",
			Help: "Total frames passed through without detection because no usable detector is loaded",
		}),
		facesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facecam_faces_detected_total",
			Help: "Total face rectangles mapped to display space",
		}),
		processLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "facecam_frame_process_seconds",
			Help:    "Time spent processing a single frame",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	m.registry.MustRegister(
		m.framesProcessed,
		m.framesSkipped,
		m.facesDetected,
		m.processLatency,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes a snapshot of the metrics in the text exposition format,
// suitable for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) frameProcessed(faces int, start time.Time) {
	if m == nil {
		return
	}
	m.framesProcessed.Inc()
	m.facesDetected.Add(float64(faces))
	m.processLatency.Observe(time.Since(start).Seconds())
}

func (m *Metrics) frameSkipped() {
	if m == nil {
		return
	}
	m.framesSkipped.Inc()
}
