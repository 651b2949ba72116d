package facecam

import (
	"bytes"
	"image"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/farmboy/facecam/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExec_Directory(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "marked")

	names := []string{"a.png", "b.png", "c.png"}
	for _, name := range names {
		writePNG(t, filepath.Join(src, name), 32, 24)
	}
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("skip me"), 0o644))

	det := &fakeDetector{usable: true, rects: []image.Rectangle{image.Rect(2, 2, 10, 10)}}
	p := &Processor{Detector: det, Metrics: NewMetrics()}

	err := p.Execute(&Ops{
		Src:      src,
		Dst:      dst,
		PipeName: "-",
		Workers:  2,
		Stdout:   io.Discard,
	})
	require.NoError(t, err)
	assert.Equal(t, len(names), det.calls())

	for _, name := range names {
		f, err := os.Open(filepath.Join(dst, name))
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err, name)
		assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())
	}
	assert.NoFileExists(t, filepath.Join(dst, "notes.txt"))
}

func TestExec_DirectoryKeepsGifFormat(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "marked")

	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 32, 24)), nil))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.gif"), buf.Bytes(), 0o644))
	writePNG(t, filepath.Join(src, "a.png"), 32, 24)

	det := &fakeDetector{usable: true, rects: []image.Rectangle{image.Rect(2, 2, 10, 10)}}
	p := &Processor{Detector: det}

	err := p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-", Workers: 2, Stdout: io.Discard})
	require.NoError(t, err)
	assert.Equal(t, 2, det.calls())

	f, err := os.Open(filepath.Join(dst, "b.gif"))
	require.NoError(t, err)
	defer f.Close()
	img, err := gif.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())
}

func TestExec_SingleFileToGif(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame.png")
	writePNG(t, src, 16, 16)

	out := filepath.Join(dir, "frame.gif")
	p := &Processor{}
	require.NoError(t, p.Execute(&Ops{Src: src, Dst: out, PipeName: "-", Stdout: io.Discard}))
	assert.FileExists(t, out)
}

func TestExec_WorkerCount(t *testing.T) {
	assert.Equal(t, 3, workerCount(3))
	assert.Equal(t, maxWorkers, workerCount(maxWorkers))
	assert.Equal(t, maxWorkers, workerCount(maxWorkers+50))
	assert.Equal(t, utils.Min(runtime.NumCPU(), maxWorkers), workerCount(0))
	assert.Equal(t, utils.Min(runtime.NumCPU(), maxWorkers), workerCount(-1))
}

func TestExec_SingleFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame.png")
	writePNG(t, src, 16, 16)

	p := &Processor{}
	out := filepath.Join(dir, "frame_marked.jpg")
	require.NoError(t, p.Execute(&Ops{Src: src, Dst: out, PipeName: "-", Stdout: io.Discard}))
	assert.FileExists(t, out)

	err := p.Execute(&Ops{Src: src, Dst: filepath.Join(dir, "frame.tiff"), PipeName: "-", Stdout: io.Discard})
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "frame.tiff"))
}

func TestExec_Errors(t *testing.T) {
	dir := t.TempDir()
	p := &Processor{}

	err := p.Execute(&Ops{Src: filepath.Join(dir, "missing.png"), Dst: "out.png", PipeName: "-", Stdout: io.Discard})
	assert.Error(t, err)

	// A directory cannot be written to a pipe.
	err = p.Execute(&Ops{Src: dir, Dst: "-", PipeName: "-", Stdout: io.Discard})
	assert.Error(t, err)

	// Decoding failures remove the half written destination.
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	out := filepath.Join(dir, "out.png")
	err = p.Execute(&Ops{Src: bad, Dst: out, PipeName: "-", Stdout: io.Discard})
	assert.Error(t, err)
	assert.NoFileExists(t, out)
}
