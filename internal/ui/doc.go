// Package ui describes the live user-interface tree the driver controls.
//
// The driver never renders or composes anything itself. It talks to a
// Harness, which exposes the root nodes of the tree, an idle barrier, and a
// virtual Clock that drives animations deterministically. Nodes can be
// matched with a Selector, captured as a Frame and sent Gestures.
//
// # Threading
//
// None of the types here are safe for concurrent use unless documented
// otherwise. All access to a Harness and its nodes must happen on the single
// UI context owned by the engine package; that serialization is what gives
// "idle" and "frame" a well-defined meaning.
//
// # Frames
//
// A Frame is a tightly packed, non-premultiplied RGBA pixel buffer. It can be
// written as PNG or as the BGRA byte stream expected by an encoder reading
// raw video from its standard input.
package ui
