package recorder

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jdemeulenaere/compose-driver/internal/engine"
	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/media"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// State is the session state.
type State int32

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Outcomes reported in a Summary.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeAborted = "aborted"
)

// Info describes a started session.
type Info struct {
	ID       string
	Format   media.VideoFormat
	FPS      int
	Width    int
	Height   int
	Interval time.Duration
}

// Summary describes a finished session.
type Summary struct {
	Info
	Frames  int
	Bytes   int64
	Outcome string
	Error   string
	Elapsed time.Duration
}

// Observer is told about every finished session.
type Observer func(Summary)

// Session is the recording state machine. The zero value is not usable;
// call New.
type Session struct {
	encoder  *media.Encoder
	ids      engine.IDGenerator
	observer Observer
	logger   *slog.Logger

	state  atomic.Int32
	mu     sync.Mutex
	active *active
}

type active struct {
	info    Info
	harness ui.Harness
	target  ui.Node // nil targets the first root
	stream  *media.Stream
	restore func()
	started time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithIDGenerator sets the session ID source.
func WithIDGenerator(g engine.IDGenerator) Option {
	return func(s *Session) { s.ids = g }
}

// WithObserver registers a callback for finished sessions.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates an idle session encoding with enc.
func New(enc *media.Encoder, opts ...Option) *Session {
	s := &Session{
		encoder: enc,
		ids:     engine.UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Recording reports whether a session is active.
func (s *Session) Recording() bool {
	return s.State() == Recording
}

// Active returns the running session, if any.
func (s *Session) Active() (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Info{}, false
	}
	return s.active.info, true
}

// Start begins recording target, or the first root when target is nil. The
// target's size is measured once and frozen for the session; frame 0 is
// captured before Start returns.
func (s *Session) Start(h ui.Harness, target ui.Node, format media.VideoFormat, fps int) (_ Info, err error) {
	if fps <= 0 {
		return Info{}, fault.Validation("fps", "fps must be positive, was %d", fps)
	}
	if !s.state.CompareAndSwap(int32(Idle), int32(Recording)) {
		return Info{}, fault.AlreadyRecording()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Undo in reverse order if any step fails.
	var undo []func()
	defer func() {
		if err == nil {
			return
		}
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		s.state.Store(int32(Idle))
	}()

	h.WaitForIdle()
	first, err := capture(h, target)
	if err != nil {
		return Info{}, fmt.Errorf("measure recording target: %w", err)
	}
	stream, err := s.encoder.StartStream(first.Width, first.Height, fps, format)
	if err != nil {
		return Info{}, err
	}
	undo = append(undo, stream.Abort)

	restore := ui.PauseAutoAdvance(h.Clock())
	undo = append(undo, restore)

	a := &active{
		info: Info{
			ID:       s.ids.Generate(),
			Format:   format,
			FPS:      fps,
			Width:    first.Width,
			Height:   first.Height,
			Interval: FrameInterval(fps),
		},
		harness: h,
		target:  target,
		stream:  stream,
		restore: restore,
		started: time.Now(),
	}
	if err := s.captureLocked(a, true); err != nil {
		return Info{}, err
	}
	s.active = a

	s.logger.Info("recording started",
		"session", a.info.ID,
		"format", format.Name,
		"fps", fps,
		"size", fmt.Sprintf("%dx%d", a.info.Width, a.info.Height),
	)
	return a.info, nil
}

// FrameInterval is the virtual time between two frames at fps, in whole
// milliseconds.
func FrameInterval(fps int) time.Duration {
	return time.Duration(1000/fps) * time.Millisecond
}

// CaptureFrame appends one frame and advances the clock by one frame
// interval. It does nothing while Idle.
func (s *Session) CaptureFrame() error {
	if !s.Recording() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return s.captureLocked(s.active, true)
}

// captureLocked writes one frame, then steps the clock by one interval when
// advance is set.
func (s *Session) captureLocked(a *active, advance bool) error {
	a.harness.WaitForIdle()
	f, err := capture(a.harness, a.target)
	if err != nil {
		return fmt.Errorf("capture recording frame %d: %w", a.stream.Frames(), err)
	}
	if err := a.stream.WriteFrame(f); err != nil {
		return err
	}
	if advance {
		a.harness.Clock().AdvanceBy(a.info.Interval)
	}
	return nil
}

// Stop captures a final frame without advancing the clock, finishes the encoder and returns the video.
// The session is Idle and the clock restored afterwards, whatever the
// outcome. The caller must Cleanup the artifact once it has been consumed.
func (s *Session) Stop() (*media.Artifact, error) {
	if !s.Recording() {
		return nil, fault.NotRecording()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.active
	if a == nil {
		return nil, fault.NotRecording()
	}
	defer func() {
		a.restore()
		s.active = nil
		s.state.Store(int32(Idle))
	}()

	if err := s.captureLocked(a, false); err != nil {
		a.stream.Abort()
		s.finish(a, OutcomeFailed, err)
		return nil, err
	}
	art, err := a.stream.Finish()
	if err != nil {
		s.finish(a, OutcomeFailed, err)
		return nil, err
	}
	s.finish(a, OutcomeOK, nil)
	return art, nil
}

// Abort ends an active session without producing output, removing its
// temporary files. It reports whether a session was active.
func (s *Session) Abort() bool {
	if !s.Recording() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.active
	if a == nil {
		return false
	}
	a.stream.Abort()
	a.restore()
	s.active = nil
	s.state.Store(int32(Idle))
	s.finish(a, OutcomeAborted, nil)
	return true
}

func (s *Session) finish(a *active, outcome string, err error) {
	sum := Summary{
		Info:    a.info,
		Frames:  a.stream.Frames(),
		Bytes:   a.stream.BytesWritten(),
		Outcome: outcome,
		Elapsed: time.Since(a.started),
	}
	if err != nil {
		sum.Error = err.Error()
	}
	if outcome == OutcomeOK {
		s.logger.Info("recording stopped", "session", sum.ID, "frames", sum.Frames, "bytes", sum.Bytes)
	} else {
		s.logger.Warn("recording ended", "session", sum.ID, "outcome", outcome, "error", sum.Error)
	}
	if s.observer != nil {
		s.observer(sum)
	}
}

func capture(h ui.Harness, target ui.Node) (*ui.Frame, error) {
	if target != nil {
		return target.Capture()
	}
	roots := h.Roots()
	if len(roots) == 0 {
		return nil, fault.NodeResolution("no root node is shown")
	}
	return roots[0].Capture()
}
