package scene

import (
	"image"
	"image/color"

	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// Node is a rectangle in the scene tree.
type Node struct {
	h        *Harness
	parent   *Node
	id       int
	tag      string
	texts    []string
	bounds   image.Rectangle
	fill     color.NRGBA
	children []*Node

	// Editable nodes accept text input and typed keys.
	Editable bool

	// Scrollable nodes shift their children on swipe and scroll requests.
	Scrollable bool

	OnClick       func()
	OnLongClick   func()
	OnDoubleClick func()
	OnKey         func(in ui.KeyInput)
	OnSwipe       func(d ui.Direction)
	OnTextChange  func(text string)
}

// Compile-time check that *Node implements ui.Node.
var _ ui.Node = (*Node)(nil)

func (n *Node) ID() int                 { return n.id }
func (n *Node) Tag() string             { return n.tag }
func (n *Node) Bounds() image.Rectangle { return n.bounds }
func (n *Node) Fill() color.NRGBA       { return n.fill }

func (n *Node) Texts() []string {
	out := make([]string, len(n.texts))
	copy(out, n.texts)
	return out
}

func (n *Node) Children() []ui.Node {
	out := make([]ui.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// Capture renders the window and crops it to the node's bounds.
func (n *Node) Capture() (*ui.Frame, error) {
	return n.h.capture(n)
}

// Perform dispatches a gesture to the node.
func (n *Node) Perform(g ui.Gesture) error {
	return n.h.perform(n, g)
}

// Add appends child nodes and returns n.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

// Text returns the first text value, or "".
func (n *Node) Text() string {
	if len(n.texts) == 0 {
		return ""
	}
	return n.texts[0]
}

// SetText replaces the node's text values.
func (n *Node) SetText(texts ...string) *Node {
	n.texts = append([]string(nil), texts...)
	return n
}

func (n *Node) SetFill(c color.NRGBA) *Node {
	n.fill = c
	return n
}

// MoveTo moves the node, and its subtree, so its top-left corner is at p.
func (n *Node) MoveTo(p image.Point) {
	n.translate(p.Sub(n.bounds.Min))
}

func (n *Node) translate(d image.Point) {
	n.bounds = n.bounds.Add(d)
	for _, c := range n.children {
		c.translate(d)
	}
}

func (n *Node) setEditableText(text string) {
	if len(n.texts) == 0 {
		n.texts = []string{text}
	} else {
		n.texts[0] = text
	}
	if n.OnTextChange != nil {
		n.OnTextChange(text)
	}
}

func (n *Node) scrollableAncestor() *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.Scrollable {
			return p
		}
	}
	return nil
}

// scrollBy shifts the children of a scrollable node by dy, clamped so the
// content never leaves a gap at either end.
func (n *Node) scrollBy(dy int) {
	if len(n.children) == 0 {
		return
	}
	top := n.children[0].bounds.Min.Y
	bottom := n.children[len(n.children)-1].bounds.Max.Y
	switch {
	case dy > 0:
		dy = min(dy, n.bounds.Min.Y-top)
		if dy <= 0 {
			return
		}
	case dy < 0:
		dy = max(dy, n.bounds.Max.Y-bottom)
		if dy >= 0 {
			return
		}
	default:
		return
	}
	for _, c := range n.children {
		c.translate(image.Pt(0, dy))
	}
}
