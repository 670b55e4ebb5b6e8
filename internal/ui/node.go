package ui

import (
	"fmt"
	"image"
	"strings"

	"github.com/jdemeulenaere/compose-driver/internal/fault"
)

// Node is an addressable element of the UI tree.
type Node interface {
	// ID is unique within the harness for the lifetime of the content.
	ID() int

	// Tag is the node's test tag, or "" if it has none.
	Tag() string

	// Texts returns the node's text values, including editable text.
	Texts() []string

	// Bounds is the node's position in window coordinates.
	Bounds() image.Rectangle

	// Children returns the direct children in drawing order.
	Children() []Node

	// Capture renders the node's current pixels.
	Capture() (*Frame, error)

	// Perform dispatches a gesture to the node.
	Perform(g Gesture) error
}

// Harness is the running UI under test.
type Harness interface {
	// Roots returns the top-level nodes. There is always at least one root
	// while content is shown; overlays such as popups add more.
	Roots() []Node

	// WaitForIdle blocks until no layout, composition or effect work is
	// pending. With auto-advance enabled it also advances the clock until
	// running animations settle.
	WaitForIdle()

	// Clock returns the virtual clock driving the content.
	Clock() Clock

	// Reset recreates the content. A non-empty name switches to the content
	// registered under that name.
	Reset(content string) error

	// NavigateBack dispatches a system back event.
	NavigateBack() error
}

// GestureKind identifies the kind of input sent to a node.
type GestureKind int

const (
	GestureClick GestureKind = iota + 1
	GestureLongClick
	GestureDoubleClick
	GestureTextInput
	GestureTextReplacement
	GestureTextClearance
	GestureScrollTo
	GestureKey
	GestureSwipe
	GesturePointerDown
	GesturePointerMoveBy
	GesturePointerMoveTo
	GesturePointerUp
)

var gestureNames = map[GestureKind]string{
	GestureClick:           "click",
	GestureLongClick:       "longClick",
	GestureDoubleClick:     "doubleClick",
	GestureTextInput:       "textInput",
	GestureTextReplacement: "textReplacement",
	GestureTextClearance:   "textClearance",
	GestureScrollTo:        "scrollTo",
	GestureKey:             "keyEvent",
	GestureSwipe:           "swipe",
	GesturePointerDown:     "pointerDown",
	GesturePointerMoveBy:   "pointerMoveBy",
	GesturePointerMoveTo:   "pointerMoveTo",
	GesturePointerUp:       "pointerUp",
}

func (k GestureKind) String() string {
	if name, ok := gestureNames[k]; ok {
		return name
	}
	return fmt.Sprintf("gesture(%d)", int(k))
}

// Offset is a position in pixels. For pointer gestures it is relative to the
// target node's top-left corner.
type Offset struct {
	X float64
	Y float64
}

// Gesture is one input action. Only the fields relevant to Kind are set.
type Gesture struct {
	Kind      GestureKind
	Text      string
	Key       KeyInput
	Direction Direction
	PointerID int
	Offset    Offset
	// AtCenter makes a pointer-down land on the node's center, ignoring Offset.
	AtCenter bool
}

// Direction is a swipe direction.
type Direction string

const (
	DirectionUp    Direction = "UP"
	DirectionDown  Direction = "DOWN"
	DirectionLeft  Direction = "LEFT"
	DirectionRight Direction = "RIGHT"
)

// ParseDirection parses a swipe direction case-insensitively.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(s))
	switch d {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return d, nil
	}
	return "", fault.Validation("direction", "Unknown direction: %s. Use UP, DOWN, LEFT or RIGHT.", s)
}

// Center returns the center of r in window coordinates.
func Center(r image.Rectangle) Offset {
	return Offset{
		X: float64(r.Min.X) + float64(r.Dx())/2,
		Y: float64(r.Min.Y) + float64(r.Dy())/2,
	}
}
