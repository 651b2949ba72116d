package facecam

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/farmboy/facecam/utils"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// validExtensions lists the image files picked up when walking a directory.
var validExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif"}

// Ops describes a batch run: every source image is processed as one camera frame.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
	Spinner            *utils.Spinner
	// Stdout receives the per file status lines. Defaults to os.Stderr.
	Stdout io.Writer
}

// result holds the relevant information about the processing of a single image.
type result struct {
	path string
	err  error
}

// Execute runs the processor over op.Src, which can be a single image, a directory
// of images, a pipe name or an URL. Directories are processed by a bounded pool of workers,
// all of them sharing the processor, so the detector has to be safe for concurrent use
// when op.Workers is greater than one.
func (p *Processor) Execute(op *Ops) error {
	var (
		fs  os.FileInfo
		src = op.Src
		err error
	)
	if op.Stdout == nil {
		op.Stdout = os.Stderr
	}

	// Check if source path is a local image or URL.
	if utils.IsValidUrl(src) {
		img, err := utils.DownloadImage(src)
		if err != nil {
			return fmt.Errorf("failed to load the source image: %w", err)
		}
		defer os.Remove(img.Name())
		img.Close()
		src = img.Name()
	}

	// Check if the source is a pipe name or a regular file.
	if src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(src)
	}
	if err != nil {
		return fmt.Errorf("failed to load the source image: %w", err)
	}

	now := time.Now()
	if op.Spinner != nil {
		op.Spinner.Start()
	}

	switch mode := fs.Mode(); {
	case mode.IsDir():
		err = p.executeDir(op, src)
	case mode.IsRegular() || mode&os.ModeNamedPipe != 0:
		ext := strings.ToLower(filepath.Ext(op.Dst))
		if !utils.Contains(validExtensions, ext) && op.Dst != op.PipeName {
			err = fmt.Errorf("%v file type not supported", ext)
			break
		}
		err = op.process(p, src, op.Dst)
		op.printOpStatus(op.Dst, err)
	default:
		err = fmt.Errorf("unsupported source: %s", src)
	}

	if op.Spinner != nil {
		op.Spinner.Stop()
	}
	if err == nil && op.Dst != op.PipeName {
		fmt.Fprintf(op.Stdout, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	}
	return err
}

// executeDir processes recursively the image files from the src directory concurrently.
func (p *Processor) executeDir(op *Ops, src string) error {
	var (
		wg       sync.WaitGroup
		firstErr error
	)
	if op.Dst == op.PipeName {
		return errors.New("a directory source needs a destination directory")
	}
	if err := os.MkdirAll(op.Dst, 0o755); err != nil {
		return fmt.Errorf("unable to create the destination directory: %w", err)
	}

	workers := workerCount(op.Workers)

	ch := make(chan result)
	done := make(chan struct{})
	defer close(done)

	paths, errc := walkDir(done, src, validExtensions)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			op.consumer(p, op.Dst, ch, done, paths)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	// Consume the channel values.
	for res := range ch {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		op.printOpStatus(res.path, res.err)
	}

	if err := <-errc; err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// workerCount limits the concurrently running workers to maxWorkers.
// A non positive value means one worker per CPU.
func workerCount(n int) int {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return utils.Min(n, maxWorkers)
}

// walkDir starts a goroutine to walk the specified directory tree in recursive manner
// and send the path of each regular file on the string channel.
// It sends the result of the walk on the error channel.
// It terminates in case done channel is closed.
func walkDir(
	done <-chan struct{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() {
				return nil
			}
			if !utils.Contains(srcExts, strings.ToLower(filepath.Ext(info.Name()))) {
				return nil
			}

			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// consumer reads the path names from the paths channel and calls the processor against the source image.
func (op *Ops) consumer(
	p *Processor,
	dest string,
	res chan<- result,
	done <-chan struct{},
	paths <-chan string,
) {
	for src := range paths {
		dst := filepath.Join(dest, filepath.Base(src))
		err := op.process(p, src, dst)

		select {
		case <-done:
			return
		case res <- result{
			path: src,
			err:  err,
		}:
		}
	}
}

// process opens the source and the destination and runs the processor over them.
func (op *Ops) process(p *Processor, in, out string) error {
	src, dst, err := op.pathToFile(in, out)
	if err != nil {
		return err
	}

	defer func() {
		if f, ok := src.(*os.File); ok && f != os.Stdin {
			if err := f.Close(); err != nil {
				log.Printf("could not close the opened file: %v", err)
			}
		}
	}()

	err = p.Process(src, dst)

	if f, ok := dst.(*os.File); ok && f != os.Stdout {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			// remove the generated image file in case of an error
			os.Remove(f.Name())
		}
	}
	return err
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			closeReader(src)
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			closeReader(src)
			return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
		}
	}
	return src, dst, nil
}

func closeReader(r io.Reader) {
	if f, ok := r.(*os.File); ok && f != os.Stdin {
		f.Close()
	}
}

// printOpStatus displays the relevant information about the processing of a single image.
func (op *Ops) printOpStatus(fname string, err error) {
	if err != nil {
		fmt.Fprint(op.Stdout,
			utils.DecorateText("\nError processing the image: ", utils.ErrorMessage)+
				utils.DecorateText(fmt.Sprintf("%s\n\tReason: %v\n", fname, err), utils.DefaultMessage),
		)
		return
	}
	if fname != op.PipeName {
		fmt.Fprintf(op.Stdout, "\nThe marked image has been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}
