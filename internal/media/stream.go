package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// Stream is a running encoder consuming raw BGRA frames of a fixed size.
//
// Not safe for concurrent use; the recorder calls it from the UI context.
type Stream struct {
	Width  int
	Height int
	FPS    int
	Format VideoFormat

	binary string
	proc   Process
	dir    string
	output string
	frames int
	bytes  int64
}

// StartStream spawns an encoder reading width x height BGRA frames at fps
// from its standard input and writing format's container.
func (e *Encoder) StartStream(width, height, fps int, format VideoFormat) (_ *Stream, err error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("start stream: invalid frame size %dx%d", width, height)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("start stream: invalid fps %d", fps)
	}
	dir, err := os.MkdirTemp(e.TempRoot, "compose-driver-video-")
	if err != nil {
		return nil, fmt.Errorf("start stream: create temp dir: %w", err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dir) //nolint:errcheck
		}
	}()

	output := filepath.Join(dir, "output."+format.Extension)
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "bgra",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", strconv.Itoa(fps),
		"-i", "pipe:0",
	}
	args = append(args, format.CodecArgs...)
	args = append(args, output)

	proc, err := e.Spawner.Start(dir, e.Binary, args...)
	if err != nil {
		return nil, fault.Encoder(e.Binary, "", err)
	}
	e.logger().Debug("encoder stream started",
		"size", fmt.Sprintf("%dx%d", width, height),
		"fps", fps,
		"format", format.Name,
	)
	return &Stream{
		Width:  width,
		Height: height,
		FPS:    fps,
		Format: format,
		binary: e.Binary,
		proc:   proc,
		dir:    dir,
		output: output,
	}, nil
}

// FrameSize is the number of bytes written per frame.
func (s *Stream) FrameSize() int {
	return s.Width * s.Height * ui.BytesPerPixel
}

// Frames returns the number of frames written.
func (s *Stream) Frames() int { return s.frames }

// BytesWritten returns the number of pixel bytes written.
func (s *Stream) BytesWritten() int64 { return s.bytes }

// Dir returns the stream's temporary directory.
func (s *Stream) Dir() string { return s.dir }

// WriteFrame fits f to the stream geometry and writes it in one call.
func (s *Stream) WriteFrame(f *ui.Frame) error {
	buf := f.Fit(s.Width, s.Height).BGRA()
	n, err := s.proc.Stdin().Write(buf)
	s.bytes += int64(n)
	if err != nil {
		return fault.Encoder(s.binary, strings.TrimSpace(s.proc.Output()), fmt.Errorf("write frame %d: %w", s.frames, err))
	}
	s.frames++
	return nil
}

// Finish closes the input, waits for the encoder to exit and returns the
// encoded artifact. On failure the temporary directory is removed.
func (s *Stream) Finish() (_ *Artifact, err error) {
	defer func() {
		if err != nil {
			os.RemoveAll(s.dir) //nolint:errcheck
		}
	}()

	closeErr := s.proc.Stdin().Close()
	if err := s.proc.Wait(); err != nil {
		return nil, fault.Encoder(s.binary, strings.TrimSpace(s.proc.Output()), err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close encoder input: %w", closeErr)
	}
	if _, err := os.Stat(s.output); err != nil {
		return nil, fault.Encoder(s.binary, strings.TrimSpace(s.proc.Output()), fmt.Errorf("missing output: %w", err))
	}
	return newArtifact(s.dir, s.output, s.Format.ContentType), nil
}

// Abort kills the encoder and removes the temporary directory.
func (s *Stream) Abort() {
	s.proc.Stdin().Close() //nolint:errcheck
	s.proc.Kill()          //nolint:errcheck
	s.proc.Wait()          //nolint:errcheck
	os.RemoveAll(s.dir)    //nolint:errcheck
}
