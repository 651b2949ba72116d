package facecam

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// copyBufferSize is the chunk size used when copying the bundled model.
const copyBufferSize = 4096

// ProvisionModel copies a bundled classifier model into dir/name, so that detectors
// which only load models from the file system can use it. The copy is skipped when
// the destination already exists. It returns the path of the model file.
func ProvisionModel(src io.Reader, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("unable to create the model directory: %w", err)
	}
	dst := filepath.Join(dir, name)

	_, err := os.Stat(dst)
	if err == nil {
		return dst, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("unable to stat the model file: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("unable to create the model file: %w", err)
	}

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(onlyWriter{out}, onlyReader{src}, buf); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("unable to copy the model file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("unable to close the model file: %w", err)
	}
	return dst, nil
}

// onlyReader and onlyWriter hide ReadFrom/WriteTo, so io.CopyBuffer really goes through the buffer.
type onlyReader struct{ io.Reader }

type onlyWriter struct{ io.Writer }
