package facecam

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.frameProcessed(3, time.Now())
	m.frameProcessed(0, time.Now())
	m.frameSkipped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.framesProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesSkipped))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.facesDetected))

	n, err := testutil.GatherAndCount(m.Registry())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.frameProcessed(1, time.Now())
		m.frameSkipped()
	})
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.frameProcessed(2, time.Now())

	path := filepath.Join(t.TempDir(), "facecam.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "facecam_faces_detected_total 2")
	assert.Contains(t, string(data), "facecam_frame_process_seconds_count 1")
}
