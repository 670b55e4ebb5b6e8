// Package scene is an in-memory UI harness driven by a virtual clock.
//
// It stands in for a real UI toolkit: a window of fixed size shows a stack
// of roots (the main content plus overlays such as popups), each a tree of
// rectangular nodes with optional text and behaviour hooks. Rendering
// paints node fills into an RGBA canvas; capturing a node crops that
// canvas to the node's bounds.
//
// Animations are functions of virtual time. With auto-advance on,
// WaitForIdle moves the clock forward until every animation and timer has
// settled; with auto-advance off it only applies the state for the current
// time, so callers stepping the clock see every intermediate frame.
//
// A Harness is not safe for concurrent use. Drive it from one goroutine,
// normally the engine's UI context.
package scene
