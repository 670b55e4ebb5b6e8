package scene

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

var textColor = color.NRGBA{R: 33, G: 33, B: 33, A: 255}

// Glyph cell geometry. Text is drawn as one solid block per visible rune,
// which is enough for captures to change whenever text does.
const (
	glyphWidth   = 5
	glyphHeight  = 9
	glyphAdvance = 7
	textInset    = 4
)

// Render paints every root, bottom to top, at the current virtual time.
func (h *Harness) Render() *ui.Frame {
	h.tick()
	canvas := image.NewNRGBA(image.Rect(0, 0, h.width, h.height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)
	for _, r := range h.roots {
		paint(canvas, r, canvas.Bounds())
	}
	return &ui.Frame{Width: h.width, Height: h.height, Pix: canvas.Pix}
}

func paint(dst *image.NRGBA, n *Node, clip image.Rectangle) {
	r := n.bounds.Intersect(clip)
	if r.Empty() {
		return
	}
	if n.fill.A > 0 {
		draw.Draw(dst, r, &image.Uniform{C: n.fill}, image.Point{}, draw.Over)
	}
	if len(n.texts) > 0 {
		paintText(dst, n.bounds.Min, n.texts[0], r)
	}
	for _, c := range n.children {
		paint(dst, c, r)
	}
}

func paintText(dst *image.NRGBA, origin image.Point, text string, clip image.Rectangle) {
	x := origin.X + textInset
	y := origin.Y + textInset
	for _, ch := range text {
		if ch != ' ' {
			glyph := image.Rect(x, y, x+glyphWidth, y+glyphHeight).Intersect(clip)
			draw.Draw(dst, glyph, &image.Uniform{C: textColor}, image.Point{}, draw.Src)
		}
		x += glyphAdvance
	}
}

func (h *Harness) capture(n *Node) (*ui.Frame, error) {
	if !h.attached(n) {
		return nil, fmt.Errorf("capture node #%d: no longer part of the tree", n.id)
	}
	r := n.bounds.Intersect(image.Rect(0, 0, h.width, h.height))
	if r.Empty() {
		return nil, fmt.Errorf("capture node #%d: outside the window", n.id)
	}
	return h.Render().Crop(r), nil
}

// attached reports whether n belongs to one of the current roots.
func (h *Harness) attached(n *Node) bool {
	top := n
	for top.parent != nil {
		top = top.parent
	}
	for _, r := range h.roots {
		if r == top {
			return true
		}
	}
	return false
}
