package scene

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// FrameDuration is how far WaitForIdle advances the clock per step while
// auto-advance is on.
const FrameDuration = 16 * time.Millisecond

// maxIdleFrames bounds WaitForIdle so a runaway animation cannot hang the UI
// context: one minute of virtual time.
const maxIdleFrames = int(time.Minute / FrameDuration)

// Background is the window colour behind every root.
var Background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Content builds the main root of a scene.
type Content func(h *Harness, root *Node)

type animation struct {
	start    time.Duration
	duration time.Duration
	apply    func(progress float64)
}

type timer struct {
	at time.Duration
	fn func()
}

// Harness is an in-memory ui.Harness.
type Harness struct {
	width    int
	height   int
	clock    *ui.VirtualClock
	contents map[string]Content
	current  string
	nextID   int
	roots    []*Node
	anims    []*animation
	timers   []timer
	pointers map[int]ui.Offset
	events   []string
	held     map[string]bool
	onBack   func()
	logger   *slog.Logger
}

// Compile-time check that *Harness implements ui.Harness.
var _ ui.Harness = (*Harness)(nil)

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger for UI events.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithContent registers an extra content under name.
func WithContent(name string, c Content) Option {
	return func(h *Harness) {
		h.contents[name] = c
	}
}

// New creates a harness with a width x height window showing the content
// registered under content. Built-in contents are always registered.
func New(width, height int, content string, opts ...Option) (*Harness, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", width, height)
	}
	h := &Harness{
		width:    width,
		height:   height,
		clock:    ui.NewVirtualClock(),
		contents: builtinContents(),
		pointers: make(map[int]ui.Offset),
		held:     make(map[string]bool),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if err := h.Reset(content); err != nil {
		return nil, err
	}
	return h, nil
}

// Size returns the window size.
func (h *Harness) Size() (width, height int) {
	return h.width, h.height
}

// Clock returns the harness clock.
func (h *Harness) Clock() ui.Clock {
	return h.clock
}

// Content returns the name of the content currently shown.
func (h *Harness) Content() string {
	return h.current
}

// Contents returns the registered content names, sorted.
func (h *Harness) Contents() []string {
	names := make([]string, 0, len(h.contents))
	for name := range h.contents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Roots returns the main root followed by overlays, bottom to top.
func (h *Harness) Roots() []ui.Node {
	out := make([]ui.Node, len(h.roots))
	for i, r := range h.roots {
		out[i] = r
	}
	return out
}

// Reset recreates the content. An empty name recreates the current one.
func (h *Harness) Reset(content string) error {
	if content == "" {
		content = h.current
	}
	build, ok := h.contents[content]
	if !ok {
		return fault.Validation("composable", "Unknown composable '%s'. Available: %s",
			content, strings.Join(h.Contents(), ", "))
	}

	h.roots = nil
	h.anims = nil
	h.timers = nil
	h.onBack = nil
	clear(h.pointers)
	clear(h.held)
	h.current = content

	root := h.NewNode("", image.Rect(0, 0, h.width, h.height), Background)
	h.roots = []*Node{root}
	build(h, root)
	h.record("reset %s", content)
	return nil
}

// NavigateBack closes the top overlay, or hands the event to the content.
func (h *Harness) NavigateBack() error {
	h.record("back")
	if len(h.roots) > 1 {
		h.roots = h.roots[:len(h.roots)-1]
		return nil
	}
	if h.onBack != nil {
		h.onBack()
	}
	return nil
}

// OnBack installs the content's back handler, called when no overlay is
// left to close.
func (h *Harness) OnBack(fn func()) {
	h.onBack = fn
}

// WaitForIdle applies the state for the current virtual time. With
// auto-advance on it then steps the clock until nothing is pending.
func (h *Harness) WaitForIdle() {
	h.tick()
	if !h.clock.AutoAdvance() {
		return
	}
	for i := 0; i < maxIdleFrames && h.pending(); i++ {
		h.clock.AdvanceBy(FrameDuration)
		h.tick()
	}
}

// NewNode creates a detached node. Attach it with Node.Add or ShowOverlay.
func (h *Harness) NewNode(tag string, bounds image.Rectangle, fill color.NRGBA) *Node {
	h.nextID++
	return &Node{h: h, id: h.nextID, tag: tag, bounds: bounds, fill: fill}
}

// ShowOverlay adds n as a new top-most root.
func (h *Harness) ShowOverlay(n *Node) {
	n.parent = nil
	h.roots = append(h.roots, n)
}

// Dismiss removes the overlay n.
func (h *Harness) Dismiss(n *Node) {
	for i, r := range h.roots {
		if r == n && i > 0 {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

// Animate runs apply with a progress from 0 to 1 over duration of virtual
// time, starting now.
func (h *Harness) Animate(duration time.Duration, apply func(progress float64)) {
	a := &animation{start: h.clock.Now(), duration: duration, apply: apply}
	apply(0)
	h.anims = append(h.anims, a)
}

// After runs fn once d of virtual time has elapsed.
func (h *Harness) After(d time.Duration, fn func()) {
	h.timers = append(h.timers, timer{at: h.clock.Now() + d, fn: fn})
}

// Events returns the log of dispatched input, oldest first.
func (h *Harness) Events() []string {
	out := make([]string, len(h.events))
	copy(out, h.events)
	return out
}

func (h *Harness) record(format string, args ...any) {
	ev := fmt.Sprintf(format, args...)
	h.events = append(h.events, ev)
	h.logger.Debug("ui event", "event", ev, "time", h.clock.Now())
}

func (h *Harness) pending() bool {
	return len(h.anims) > 0 || len(h.timers) > 0
}

// tick brings animations and timers up to the current virtual time.
func (h *Harness) tick() {
	now := h.clock.Now()

	// Callbacks may schedule new work; it is kept for the next tick.
	anims := h.anims
	h.anims = nil
	var running []*animation
	for _, a := range anims {
		p := 1.0
		if a.duration > 0 {
			p = min(float64(now-a.start)/float64(a.duration), 1)
		}
		a.apply(p)
		if p < 1 {
			running = append(running, a)
		}
	}
	h.anims = append(running, h.anims...)

	timers := h.timers
	h.timers = nil
	var waiting []timer
	for _, t := range timers {
		if t.at <= now {
			t.fn()
		} else {
			waiting = append(waiting, t)
		}
	}
	h.timers = append(waiting, h.timers...)
}
