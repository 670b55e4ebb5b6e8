package driver

import (
	"context"
	"log/slog"
	"time"

	"github.com/jdemeulenaere/compose-driver/internal/engine"
	"github.com/jdemeulenaere/compose-driver/internal/media"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// Defaults for Options fields left zero.
const (
	DefaultMaxInlineDuration = 5000 * time.Millisecond
	DefaultFrameStep         = 16 * time.Millisecond
	DefaultPollInterval      = 50 * time.Millisecond
)

// FrameSampler is the cooperative hook of a recording session.
type FrameSampler interface {
	// CaptureFrame appends one frame to the active session; it does nothing
	// when no session is active.
	CaptureFrame() error

	// Recording reports whether a session is active.
	Recording() bool
}

// Options tunes a Driver.
type Options struct {
	// MaxInlineDuration bounds gifDurationMs and videoDurationMs.
	MaxInlineDuration time.Duration

	// FrameStep is the clock step between inline frames.
	FrameStep time.Duration

	// PollInterval is the wall-clock pause between waitForNode checks.
	PollInterval time.Duration

	Logger *slog.Logger
}

// Driver runs actions against a harness on the UI context.
type Driver struct {
	engine  *engine.Engine
	harness ui.Harness
	encoder *media.Encoder
	sampler FrameSampler
	opts    Options
	logger  *slog.Logger
}

// New creates a Driver. sampler may be nil when recording is not used.
func New(e *engine.Engine, h ui.Harness, enc *media.Encoder, sampler FrameSampler, opts Options) *Driver {
	if opts.MaxInlineDuration <= 0 {
		opts.MaxInlineDuration = DefaultMaxInlineDuration
	}
	if opts.FrameStep <= 0 {
		opts.FrameStep = DefaultFrameStep
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		engine:  e,
		harness: h,
		encoder: enc,
		sampler: sampler,
		opts:    opts,
		logger:  logger,
	}
}

// Harness returns the driven harness. Only touch it from the UI context.
func (d *Driver) Harness() ui.Harness { return d.harness }

// Options returns the effective options.
func (d *Driver) Options() Options { return d.opts }

// Recording reports whether a recording session is active.
func (d *Driver) Recording() bool {
	return d.sampler != nil && d.sampler.Recording()
}

// Target is what an action operates on. The node is resolved lazily, on
// the UI context, the first time Node is called.
type Target struct {
	harness  ui.Harness
	selector *ui.Selector
	node     ui.Node
}

// Harness returns the harness the action runs against.
func (t *Target) Harness() ui.Harness { return t.harness }

// Selector returns the request's selector, nil for the root set.
func (t *Target) Selector() *ui.Selector { return t.selector }

// Node resolves the selector to a single node.
func (t *Target) Node() (ui.Node, error) {
	if t.node != nil {
		return t.node, nil
	}
	n, err := Resolve(t.harness, t.selector)
	if err != nil {
		return nil, err
	}
	t.node = n
	return n, nil
}

// Nodes resolves the selector to the root set or a single node.
func (t *Target) Nodes() ([]ui.Node, error) {
	return ResolveAll(t.harness, t.selector)
}

// Action mutates or inspects the UI through a Target.
type Action func(t *Target) error

// Gesture returns an action performing g on the target node.
func Gesture(g ui.Gesture) Action {
	return func(t *Target) error {
		n, err := t.Node()
		if err != nil {
			return err
		}
		return n.Perform(g)
	}
}

// Perform runs action on the UI context between two idle waits, sampling
// the active recording session before and after.
func (d *Driver) Perform(ctx context.Context, name string, s *ui.Selector, action Action) error {
	_, err := Call(ctx, d, name, s, func(t *Target) (struct{}, error) {
		return struct{}{}, action(t)
	})
	return err
}

// Call is Perform for actions producing a value.
func Call[T any](ctx context.Context, d *Driver, name string, s *ui.Selector, fn func(t *Target) (T, error)) (T, error) {
	return engine.Call(ctx, d.engine, name, func() (T, error) {
		var zero T
		d.harness.WaitForIdle()
		if err := d.sample(); err != nil {
			return zero, err
		}
		v, err := fn(&Target{harness: d.harness, selector: s})
		if err != nil {
			return zero, err
		}
		d.harness.WaitForIdle()
		if err := d.sample(); err != nil {
			return zero, err
		}
		return v, nil
	})
}

// Exec runs fn on the UI context without idle bracketing or sampling.
// Recording start and stop use it to own the session's frames.
func (d *Driver) Exec(ctx context.Context, name string, fn func(h ui.Harness) error) error {
	return d.engine.Do(ctx, name, func() error {
		return fn(d.harness)
	})
}

// ExecCall is Exec for functions producing a value.
func ExecCall[T any](ctx context.Context, d *Driver, name string, fn func(h ui.Harness) (T, error)) (T, error) {
	return engine.Call(ctx, d.engine, name, func() (T, error) {
		return fn(d.harness)
	})
}

func (d *Driver) sample() error {
	if d.sampler == nil {
		return nil
	}
	return d.sampler.CaptureFrame()
}
