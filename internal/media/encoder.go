package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// DefaultMinFrameSpacing is the smallest spacing between encoded frames.
// Browsers slow animated images down below it.
const DefaultMinFrameSpacing = 20 * time.Millisecond

const gifFilterGraph = "split[s0][s1];[s0]palettegen[p];[s1][p]paletteuse"

// Encoder invokes the external encoder binary.
type Encoder struct {
	// Binary is the encoder executable, "ffmpeg" by default.
	Binary string

	// TempRoot is where temporary directories are created; "" means the
	// system default.
	TempRoot string

	// MinFrameSpacing floors the inter-frame interval of batch encodes.
	MinFrameSpacing time.Duration

	Runner  Runner
	Spawner Spawner
	Logger  *slog.Logger
}

// NewEncoder creates an encoder running real ffmpeg processes.
func NewEncoder(binary, tempRoot string) *Encoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Encoder{
		Binary:          binary,
		TempRoot:        tempRoot,
		MinFrameSpacing: DefaultMinFrameSpacing,
		Runner:          OSRunner{},
		Spawner:         OSSpawner{},
		Logger:          slog.Default(),
	}
}

// FrameRate returns the frame rate used to encode frames sampled every
// interval, with interval floored at the encoder's minimum spacing.
func (e *Encoder) FrameRate(interval time.Duration) float64 {
	spacing := max(interval, e.minSpacing())
	return float64(time.Second) / float64(spacing)
}

func (e *Encoder) minSpacing() time.Duration {
	if e.MinFrameSpacing <= 0 {
		return DefaultMinFrameSpacing
	}
	return e.MinFrameSpacing
}

// GIF assembles frames sampled every interval into an animated image.
func (e *Encoder) GIF(ctx context.Context, frames []*ui.Frame, interval time.Duration) (*Artifact, error) {
	return e.batch(ctx, "gif", frames, func(dir string) (string, string, []string) {
		out := filepath.Join(dir, "output.gif")
		args := []string{
			"-y",
			"-framerate", formatRate(e.FrameRate(interval)),
			"-i", filepath.Join(dir, "frame_%03d.png"),
			"-vf", gifFilterGraph,
			out,
		}
		return out, GIFContentType, args
	})
}

// Video encodes frames sampled every interval into format's container.
func (e *Encoder) Video(ctx context.Context, frames []*ui.Frame, interval time.Duration, format VideoFormat) (*Artifact, error) {
	return e.batch(ctx, "video", frames, func(dir string) (string, string, []string) {
		out := filepath.Join(dir, "output."+format.Extension)
		args := []string{
			"-y",
			"-framerate", formatRate(e.FrameRate(interval)),
			"-i", filepath.Join(dir, "frame_%03d.png"),
		}
		args = append(args, format.CodecArgs...)
		args = append(args, out)
		return out, format.ContentType, args
	})
}

type commandBuilder func(dir string) (output, contentType string, args []string)

func (e *Encoder) batch(ctx context.Context, kind string, frames []*ui.Frame, build commandBuilder) (_ *Artifact, err error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("encode %s: no frames", kind)
	}
	dir, err := os.MkdirTemp(e.TempRoot, "compose-driver-"+kind+"-")
	if err != nil {
		return nil, fmt.Errorf("encode %s: create temp dir: %w", kind, err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dir) //nolint:errcheck
		}
	}()

	if err := writeFramePNGs(dir, frames); err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}

	output, contentType, args := build(dir)
	start := time.Now()
	if err := e.run(ctx, dir, args); err != nil {
		return nil, err
	}
	if _, err := os.Stat(output); err != nil {
		return nil, fmt.Errorf("encode %s: missing output: %w", kind, err)
	}
	e.logger().Debug("encoded",
		"kind", kind,
		"frames", len(frames),
		"duration", time.Since(start),
	)
	return newArtifact(dir, output, contentType), nil
}

func (e *Encoder) run(ctx context.Context, dir string, args []string) error {
	out, err := e.Runner.Run(ctx, dir, e.Binary, args...)
	if err != nil {
		return fault.Encoder(e.Binary, strings.TrimSpace(string(out)), err)
	}
	return nil
}

func (e *Encoder) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func writeFramePNGs(dir string, frames []*ui.Frame) error {
	for i, f := range frames {
		path := filepath.Join(dir, fmt.Sprintf("frame_%03d.png", i))
		if err := writePNGFile(path, f); err != nil {
			return fmt.Errorf("write frame %d: %w", i, err)
		}
	}
	return nil
}

func writePNGFile(path string, f *ui.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.WritePNG(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func formatRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}
