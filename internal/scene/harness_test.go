package scene

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

func newHarness(t *testing.T, content string) *Harness {
	t.Helper()
	h, err := New(400, 300, content)
	require.NoError(t, err)
	return h
}

func find(t *testing.T, h *Harness, tag string) ui.Node {
	t.Helper()
	nodes := ui.FindAll(h.Roots(), ui.NewSelector(&tag, nil))
	require.Len(t, nodes, 1, "tag %s", tag)
	return nodes[0]
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(0, 10, "counter")
	assert.Error(t, err)
}

func TestReset_UnknownContent(t *testing.T) {
	h := newHarness(t, "counter")

	err := h.Reset("missing")
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
	assert.Contains(t, err.Error(), "animated, counter, form, list, popup")
	assert.Equal(t, "counter", h.Content())
}

func TestCounter_ClickAndReset(t *testing.T) {
	h := newHarness(t, "counter")
	button := find(t, h, "increment")

	require.NoError(t, button.Perform(ui.Gesture{Kind: ui.GestureClick}))
	require.NoError(t, button.Perform(ui.Gesture{Kind: ui.GestureDoubleClick}))
	assert.Equal(t, []string{"Count: 3"}, find(t, h, "counter").Texts())

	require.NoError(t, h.Reset(""))
	assert.Equal(t, []string{"Count: 0"}, find(t, h, "counter").Texts())

	// The old node is gone with the old content.
	assert.Error(t, button.Perform(ui.Gesture{Kind: ui.GestureClick}))
}

func TestPopup_TwoRootsAndBack(t *testing.T) {
	h := newHarness(t, "popup")
	require.Len(t, h.Roots(), 2)

	require.NoError(t, h.NavigateBack())
	assert.Len(t, h.Roots(), 1)

	require.NoError(t, find(t, h, "open").Perform(ui.Gesture{Kind: ui.GestureClick}))
	require.Len(t, h.Roots(), 2)
	require.NoError(t, find(t, h, "close").Perform(ui.Gesture{Kind: ui.GestureClick}))
	assert.Len(t, h.Roots(), 1)
}

func TestWaitForIdle_AutoAdvanceSettlesAnimation(t *testing.T) {
	h := newHarness(t, "animated")
	box := find(t, h, "box")

	require.NoError(t, find(t, h, "start").Perform(ui.Gesture{Kind: ui.GestureClick}))
	h.WaitForIdle()

	assert.Equal(t, 420, box.Bounds().Min.X)
	assert.Equal(t, 480*time.Millisecond, h.Clock().Now())
}

func TestWaitForIdle_PausedClockOnlyFlushes(t *testing.T) {
	h := newHarness(t, "animated")
	box := find(t, h, "box")
	h.Clock().SetAutoAdvance(false)

	require.NoError(t, find(t, h, "start").Perform(ui.Gesture{Kind: ui.GestureClick}))
	h.WaitForIdle()
	assert.Equal(t, 20, box.Bounds().Min.X)
	assert.Equal(t, time.Duration(0), h.Clock().Now())

	h.Clock().AdvanceBy(240 * time.Millisecond)
	h.WaitForIdle()
	assert.Equal(t, 220, box.Bounds().Min.X)
}

func TestAfter_FiresOnTime(t *testing.T) {
	h := newHarness(t, "counter")
	fired := false
	h.After(100*time.Millisecond, func() { fired = true })

	h.Clock().SetAutoAdvance(false)
	h.WaitForIdle()
	assert.False(t, fired)

	h.Clock().SetAutoAdvance(true)
	h.WaitForIdle()
	assert.True(t, fired)
	assert.Equal(t, 112*time.Millisecond, h.Clock().Now())
}

func TestCapture_CropsToBounds(t *testing.T) {
	h := newHarness(t, "counter")

	root, err := h.Roots()[0].Capture()
	require.NoError(t, err)
	assert.Equal(t, 400, root.Width)
	assert.Equal(t, 300, root.Height)

	f, err := find(t, h, "increment").Capture()
	require.NoError(t, err)
	assert.Equal(t, 200, f.Width)
	assert.Equal(t, 50, f.Height)
	assert.Equal(t, blue, f.Image().NRGBAAt(199, 49))
}

func TestCapture_ReflectsTextChanges(t *testing.T) {
	h := newHarness(t, "counter")
	label := find(t, h, "counter")

	before, err := label.Capture()
	require.NoError(t, err)
	button := find(t, h, "increment")
	for i := 0; i < 10; i++ {
		require.NoError(t, button.Perform(ui.Gesture{Kind: ui.GestureClick}))
	}
	after, err := label.Capture()
	require.NoError(t, err)

	assert.Equal(t, []string{"Count: 10"}, label.Texts())
	assert.NotEqual(t, before.Pix, after.Pix)
}

func TestForm_TextAndKeys(t *testing.T) {
	h := newHarness(t, "form")
	field := find(t, h, "field")

	require.NoError(t, field.Perform(ui.Gesture{Kind: ui.GestureTextInput, Text: "ab"}))
	require.NoError(t, field.Perform(ui.Gesture{Kind: ui.GestureTextInput, Text: "c"}))
	assert.Equal(t, []string{"abc"}, field.Texts())

	shift, _ := ui.KeyByName("ShiftLeft")
	d, _ := ui.KeyByName("D")
	backspace, _ := ui.KeyByName("Backspace")
	require.NoError(t, field.Perform(ui.Gesture{Kind: ui.GestureKey, Key: ui.KeyInput{Key: d, Action: ui.KeyPress, Modifiers: []ui.Key{shift}}}))
	assert.Equal(t, []string{"abcD"}, field.Texts())
	require.NoError(t, field.Perform(ui.Gesture{Kind: ui.GestureKey, Key: ui.KeyInput{Key: backspace, Action: ui.KeyPress}}))
	require.NoError(t, field.Perform(ui.Gesture{Kind: ui.GestureKey, Key: ui.KeyInput{Key: d, Action: ui.KeyPress}}))
	assert.Equal(t, []string{"abcd"}, field.Texts())
	assert.Equal(t,
		[]string{"down ShiftLeft, press D, up ShiftLeft, press Backspace, press D"},
		find(t, h, "keys").Texts())

	require.NoError(t, field.Perform(ui.Gesture{Kind: ui.GestureTextReplacement, Text: "hello"}))
	require.NoError(t, find(t, h, "submit").Perform(ui.Gesture{Kind: ui.GestureClick}))
	assert.Equal(t, []string{"Submitted: hello"}, find(t, h, "echo").Texts())

	require.NoError(t, field.Perform(ui.Gesture{Kind: ui.GestureTextClearance}))
	assert.Equal(t, []string{""}, field.Texts())

	err := find(t, h, "submit").Perform(ui.Gesture{Kind: ui.GestureTextInput, Text: "x"})
	assert.ErrorContains(t, err, "not editable")
}

func TestList_ScrollToAndSwipe(t *testing.T) {
	h := newHarness(t, "list")
	item := find(t, h, "item-20")
	require.Greater(t, item.Bounds().Min.Y, 300)

	require.NoError(t, item.Perform(ui.Gesture{Kind: ui.GestureScrollTo}))
	assert.Equal(t, 300, item.Bounds().Max.Y)

	list := find(t, h, "list")
	require.NoError(t, list.Perform(ui.Gesture{Kind: ui.GestureSwipe, Direction: ui.DirectionDown}))
	assert.Equal(t, 450, item.Bounds().Max.Y)

	// Swiping past the start clamps.
	for i := 0; i < 10; i++ {
		require.NoError(t, list.Perform(ui.Gesture{Kind: ui.GestureSwipe, Direction: ui.DirectionDown}))
	}
	assert.Equal(t, 0, find(t, h, "item-0").Bounds().Min.Y)

	err := find(t, h, "list").Perform(ui.Gesture{Kind: ui.GestureScrollTo})
	assert.ErrorContains(t, err, "no scrollable ancestor")
}

func TestPointer_Lifecycle(t *testing.T) {
	h := newHarness(t, "counter")
	button := find(t, h, "increment") // (20,80)-(220,130)

	require.NoError(t, button.Perform(ui.Gesture{Kind: ui.GesturePointerDown, AtCenter: true}))
	p, ok := h.Pointer(0)
	require.True(t, ok)
	assert.Equal(t, ui.Offset{X: 120, Y: 105}, p)

	require.NoError(t, button.Perform(ui.Gesture{Kind: ui.GesturePointerMoveBy, Offset: ui.Offset{X: 10, Y: -5}}))
	require.NoError(t, button.Perform(ui.Gesture{Kind: ui.GesturePointerMoveTo, Offset: ui.Offset{X: 1.5, Y: 2}}))
	p, _ = h.Pointer(0)
	assert.Equal(t, ui.Offset{X: 21.5, Y: 82}, p)

	require.NoError(t, button.Perform(ui.Gesture{Kind: ui.GesturePointerUp}))
	_, ok = h.Pointer(0)
	assert.False(t, ok)
	assert.Error(t, button.Perform(ui.Gesture{Kind: ui.GesturePointerUp}))

	events := h.Events()
	assert.Equal(t, []string{
		"pointerDown 0 (120, 105)",
		"pointerMoveBy 0 (130, 100)",
		"pointerMoveTo 0 (21.5, 82)",
		"pointerUp 0 (21.5, 82)",
	}, events[len(events)-4:])
}

func TestWithContent_RegistersExtraContent(t *testing.T) {
	h, err := New(100, 100, "blank", WithContent("blank", func(h *Harness, root *Node) {
		root.Add(h.NewNode("only", image.Rect(10, 10, 20, 20), red))
	}))
	require.NoError(t, err)
	assert.Equal(t, "blank", h.Content())
	assert.Contains(t, h.Contents(), "blank")
	find(t, h, "only")
}
