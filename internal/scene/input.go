package scene

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

func (h *Harness) perform(n *Node, g ui.Gesture) error {
	if !h.attached(n) {
		return fmt.Errorf("%s on node #%d: no longer part of the tree", g.Kind, n.id)
	}
	switch g.Kind {
	case ui.GestureClick:
		h.record("click %s", label(n))
		call(n.OnClick)
	case ui.GestureLongClick:
		h.record("longClick %s", label(n))
		call(n.OnLongClick)
	case ui.GestureDoubleClick:
		h.record("doubleClick %s", label(n))
		if n.OnDoubleClick != nil {
			n.OnDoubleClick()
		} else {
			call(n.OnClick)
			call(n.OnClick)
		}
	case ui.GestureTextInput, ui.GestureTextReplacement, ui.GestureTextClearance:
		return h.editText(n, g)
	case ui.GestureScrollTo:
		return h.scrollTo(n)
	case ui.GestureKey:
		h.key(n, g.Key)
	case ui.GestureSwipe:
		h.swipe(n, g.Direction)
	case ui.GesturePointerDown, ui.GesturePointerMoveBy, ui.GesturePointerMoveTo, ui.GesturePointerUp:
		return h.pointer(n, g)
	default:
		return fmt.Errorf("unsupported gesture %s", g.Kind)
	}
	return nil
}

func (h *Harness) editText(n *Node, g ui.Gesture) error {
	if !n.Editable {
		return fmt.Errorf("%s on node %s: node is not editable", g.Kind, label(n))
	}
	switch g.Kind {
	case ui.GestureTextInput:
		n.setEditableText(n.Text() + g.Text)
	case ui.GestureTextReplacement:
		n.setEditableText(g.Text)
	case ui.GestureTextClearance:
		n.setEditableText("")
	}
	h.record("%s %s '%s'", g.Kind, label(n), n.Text())
	return nil
}

func (h *Harness) scrollTo(n *Node) error {
	parent := n.scrollableAncestor()
	if parent == nil {
		return fmt.Errorf("scrollTo node %s: no scrollable ancestor", label(n))
	}
	switch {
	case n.bounds.Max.Y > parent.bounds.Max.Y:
		parent.scrollBy(parent.bounds.Max.Y - n.bounds.Max.Y)
	case n.bounds.Min.Y < parent.bounds.Min.Y:
		parent.scrollBy(parent.bounds.Min.Y - n.bounds.Min.Y)
	}
	h.record("scrollTo %s", label(n))
	return nil
}

func (h *Harness) swipe(n *Node, d ui.Direction) {
	h.record("swipe %s %s", label(n), d)
	if n.OnSwipe != nil {
		n.OnSwipe(d)
		return
	}
	if !n.Scrollable {
		return
	}
	step := n.bounds.Dy() / 2
	switch d {
	case ui.DirectionUp:
		n.scrollBy(-step)
	case ui.DirectionDown:
		n.scrollBy(step)
	}
}

func (h *Harness) key(n *Node, in ui.KeyInput) {
	if in.Action != ui.KeyPress {
		h.keyEvent(n, in.Key, in.Action)
		return
	}
	for _, m := range in.Modifiers {
		h.keyEvent(n, m, ui.KeyDown)
	}
	h.keyEvent(n, in.Key, ui.KeyPress)
	for i := len(in.Modifiers) - 1; i >= 0; i-- {
		h.keyEvent(n, in.Modifiers[i], ui.KeyUp)
	}
}

func (h *Harness) keyEvent(n *Node, k ui.Key, action ui.KeyAction) {
	h.record("key %s %s", action, k.Name)
	switch action {
	case ui.KeyDown:
		h.held[k.Name] = true
	case ui.KeyUp:
		delete(h.held, k.Name)
	}
	if n.OnKey != nil {
		n.OnKey(ui.KeyInput{Key: k, Action: action})
	}
	if n.Editable && action != ui.KeyUp {
		h.typeKey(n, k)
	}
}

var digitNames = map[string]string{
	"Zero": "0", "One": "1", "Two": "2", "Three": "3", "Four": "4",
	"Five": "5", "Six": "6", "Seven": "7", "Eight": "8", "Nine": "9",
}

// typeKey edits an editable node the way a text field handles a typed key.
func (h *Harness) typeKey(n *Node, k ui.Key) {
	text := n.Text()
	switch {
	case k.Name == "Backspace":
		if text != "" {
			_, size := utf8.DecodeLastRuneInString(text)
			n.setEditableText(text[:len(text)-size])
		}
	case k.Name == "Spacebar":
		n.setEditableText(text + " ")
	case len(k.Name) == 1 && k.Name[0] >= 'A' && k.Name[0] <= 'Z':
		ch := strings.ToLower(k.Name)
		if h.held["ShiftLeft"] || h.held["ShiftRight"] {
			ch = k.Name
		}
		n.setEditableText(text + ch)
	default:
		if d, ok := digitNames[k.Name]; ok {
			n.setEditableText(text + d)
		}
	}
}

func (h *Harness) pointer(n *Node, g ui.Gesture) error {
	origin := ui.Offset{X: float64(n.bounds.Min.X), Y: float64(n.bounds.Min.Y)}
	id := g.PointerID
	pos, down := h.pointers[id]

	switch g.Kind {
	case ui.GesturePointerDown:
		if down {
			return fmt.Errorf("pointer %d is already down", id)
		}
		pos = ui.Offset{X: origin.X + g.Offset.X, Y: origin.Y + g.Offset.Y}
		if g.AtCenter {
			pos = ui.Center(n.bounds)
		}
	case ui.GesturePointerMoveBy:
		if !down {
			return fmt.Errorf("pointer %d is not down", id)
		}
		pos = ui.Offset{X: pos.X + g.Offset.X, Y: pos.Y + g.Offset.Y}
	case ui.GesturePointerMoveTo:
		if !down {
			return fmt.Errorf("pointer %d is not down", id)
		}
		pos = ui.Offset{X: origin.X + g.Offset.X, Y: origin.Y + g.Offset.Y}
	case ui.GesturePointerUp:
		if !down {
			return fmt.Errorf("pointer %d is not down", id)
		}
	}

	if g.Kind == ui.GesturePointerUp {
		delete(h.pointers, id)
	} else {
		h.pointers[id] = pos
	}
	h.record("%s %d (%s, %s)", g.Kind, id, coord(pos.X), coord(pos.Y))
	return nil
}

// Pointer returns the position of a pressed pointer.
func (h *Harness) Pointer(id int) (ui.Offset, bool) {
	p, ok := h.pointers[id]
	return p, ok
}

func coord(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func label(n *Node) string {
	if n.tag != "" {
		return n.tag
	}
	return fmt.Sprintf("#%d", n.id)
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
