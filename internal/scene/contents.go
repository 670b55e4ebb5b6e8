package scene

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// SlideDuration is how long the box of the "animated" content moves.
const SlideDuration = 480 * time.Millisecond

var (
	grey   = color.NRGBA{R: 224, G: 224, B: 224, A: 255}
	blue   = color.NRGBA{R: 33, G: 150, B: 243, A: 255}
	red    = color.NRGBA{R: 244, G: 67, B: 54, A: 255}
	green  = color.NRGBA{R: 76, G: 175, B: 80, A: 255}
	scrim  = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	yellow = color.NRGBA{R: 255, G: 235, B: 59, A: 255}
)

func builtinContents() map[string]Content {
	return map[string]Content{
		"counter":  Counter,
		"popup":    Popup,
		"animated": Animated,
		"form":     Form,
		"list":     List,
	}
}

// Counter shows a count and a button incrementing it. A long click on the
// button resets the count.
func Counter(h *Harness, root *Node) {
	count := 0
	label := h.NewNode("counter", image.Rect(20, 20, 220, 60), grey).SetText("Count: 0")
	button := h.NewNode("increment", image.Rect(20, 80, 220, 130), blue).SetText("Increment")
	button.OnClick = func() {
		count++
		label.SetText(fmt.Sprintf("Count: %d", count))
	}
	button.OnLongClick = func() {
		count = 0
		label.SetText("Count: 0")
	}
	root.Add(label, button)
}

// Popup shows a dialog above the main content, so the window has two
// roots until the dialog is closed.
func Popup(h *Harness, root *Node) {
	w, ht := h.Size()
	var dialog *Node
	open := func() {
		dialog = h.NewNode("dialog", image.Rect(w/4, ht/4, w*3/4, ht*3/4), scrim)
		title := h.NewNode("popup-title", image.Rect(w/4+20, ht/4+20, w*3/4-20, ht/4+60), grey).
			SetText("Hello from popup")
		closeButton := h.NewNode("close", image.Rect(w/4+20, ht*3/4-70, w/4+180, ht*3/4-20), red).
			SetText("Close")
		closeButton.OnClick = func() { h.Dismiss(dialog) }
		dialog.Add(title, closeButton)
		h.ShowOverlay(dialog)
	}
	openButton := h.NewNode("open", image.Rect(20, 20, 220, 70), blue).SetText("Open popup")
	openButton.OnClick = open
	root.Add(openButton)
	open()
}

// Animated slides a box across the window when "start" is clicked.
func Animated(h *Harness, root *Node) {
	const from, to = 20, 420
	box := h.NewNode("box", image.Rect(from, 100, from+100, 200), red)
	start := h.NewNode("start", image.Rect(20, 20, 180, 70), blue).SetText("Start")
	start.OnClick = func() {
		h.Animate(SlideDuration, func(p float64) {
			x := from + int(float64(to-from)*p)
			box.MoveTo(image.Pt(x, box.bounds.Min.Y))
		})
	}
	root.Add(start, box)
}

// Form has an editable field, a log of received keys and a submit button
// echoing the field.
func Form(h *Harness, root *Node) {
	field := h.NewNode("field", image.Rect(20, 20, 420, 60), grey).SetText("")
	field.Editable = true
	keys := h.NewNode("keys", image.Rect(20, 80, 420, 110), scrim)
	var received []string
	field.OnKey = func(in ui.KeyInput) {
		received = append(received, string(in.Action)+" "+in.Key.Name)
		keys.SetText(strings.Join(received, ", "))
	}
	echo := h.NewNode("echo", image.Rect(20, 200, 420, 240), yellow)
	submit := h.NewNode("submit", image.Rect(20, 130, 180, 180), green).SetText("Submit")
	submit.OnClick = func() {
		echo.SetText("Submitted: " + field.Text())
	}
	root.Add(field, keys, submit, echo)
}

// ListItems is the number of rows in the "list" content.
const ListItems = 50

// List is a scrollable column of rows taller than the window.
func List(h *Harness, root *Node) {
	w, ht := h.Size()
	const rowHeight = 60
	list := h.NewNode("list", image.Rect(0, 0, w, ht), color.NRGBA{})
	list.Scrollable = true
	for i := 0; i < ListItems; i++ {
		fill := grey
		if i%2 == 1 {
			fill = scrim
		}
		row := h.NewNode(fmt.Sprintf("item-%d", i), image.Rect(0, i*rowHeight, w, (i+1)*rowHeight), fill).
			SetText(fmt.Sprintf("Item %d", i))
		list.Add(row)
	}
	root.Add(list)
}
