package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/jdemeulenaere/compose-driver/internal/engine"
	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/media"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// InlineKind selects the encoding of an inline capture.
type InlineKind int

const (
	InlineGIF InlineKind = iota + 1
	InlineVideo
)

func (k InlineKind) String() string {
	switch k {
	case InlineGIF:
		return "gif"
	case InlineVideo:
		return "video"
	}
	return fmt.Sprintf("inline(%d)", int(k))
}

// Inline describes an animated capture returned in place of "ok".
type Inline struct {
	Kind     InlineKind
	Duration time.Duration
	// Format is the container for InlineVideo.
	Format media.VideoFormat
	// Param names the request parameter carrying Duration.
	Param string
}

// ValidateDuration rejects durations outside [0, MaxInlineDuration].
func (d *Driver) ValidateDuration(param string, duration time.Duration) error {
	if duration < 0 || duration > d.opts.MaxInlineDuration {
		return fault.Validation(param, "%s must be between 0 and %d, was %d",
			param, d.opts.MaxInlineDuration.Milliseconds(), duration.Milliseconds())
	}
	return nil
}

// Capture runs action once with the clock's auto-advance paused, then
// screenshots the first root every FrameStep of virtual time while the
// elapsed time is at most duration. It yields duration/FrameStep+1 frames,
// all with the size of the first one. Auto-advance is restored on return.
func (d *Driver) Capture(ctx context.Context, name string, s *ui.Selector, action Action, duration time.Duration) ([]*ui.Frame, error) {
	if err := d.ValidateDuration("durationMs", duration); err != nil {
		return nil, err
	}
	step := d.opts.FrameStep
	return engine.Call(ctx, d.engine, name, func() ([]*ui.Frame, error) {
		clock := d.harness.Clock()
		restore := ui.PauseAutoAdvance(clock)
		defer restore()

		d.harness.WaitForIdle()
		if err := action(&Target{harness: d.harness, selector: s}); err != nil {
			return nil, err
		}

		frames := make([]*ui.Frame, 0, int(duration/step)+1)
		for elapsed := time.Duration(0); elapsed <= duration; elapsed += step {
			d.harness.WaitForIdle()
			f, err := captureFirstRoot(d.harness)
			if err != nil {
				return nil, fmt.Errorf("capture frame %d: %w", len(frames), err)
			}
			if len(frames) > 0 {
				f = f.Fit(frames[0].Width, frames[0].Height)
			}
			frames = append(frames, f)
			clock.AdvanceBy(step)
		}
		return frames, nil
	})
}

// Animate captures frames like Capture and encodes them. The caller owns
// the returned artifact and must call Cleanup once it has been consumed.
func (d *Driver) Animate(ctx context.Context, name string, s *ui.Selector, action Action, in Inline) (*media.Artifact, error) {
	if err := d.ValidateDuration(in.Param, in.Duration); err != nil {
		return nil, err
	}
	frames, err := d.Capture(ctx, name, s, action, in.Duration)
	if err != nil {
		return nil, err
	}

	// Encoding runs off the UI context and is not cancelled with the request.
	encodeCtx := context.WithoutCancel(ctx)
	start := time.Now()
	var art *media.Artifact
	switch in.Kind {
	case InlineGIF:
		art, err = d.encoder.GIF(encodeCtx, frames, d.opts.FrameStep)
	case InlineVideo:
		art, err = d.encoder.Video(encodeCtx, frames, d.opts.FrameStep, in.Format)
	default:
		return nil, fmt.Errorf("unknown inline capture kind %s", in.Kind)
	}
	if err != nil {
		return nil, err
	}
	d.logger.Debug("inline capture encoded",
		"action", name,
		"kind", in.Kind,
		"frames", len(frames),
		"duration", in.Duration,
		"encode_time", time.Since(start),
	)
	return art, nil
}

func captureFirstRoot(h ui.Harness) (*ui.Frame, error) {
	roots := h.Roots()
	if len(roots) == 0 {
		return nil, fault.NodeResolution("no root node is shown")
	}
	return roots[0].Capture()
}
