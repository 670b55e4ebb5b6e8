package ui

import (
	"image"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdemeulenaere/compose-driver/internal/fault"
)

// stubNode is a static Node for exercising tree helpers.
type stubNode struct {
	id       int
	tag      string
	texts    []string
	bounds   image.Rectangle
	children []Node
}

func (n *stubNode) ID() int                  { return n.id }
func (n *stubNode) Tag() string              { return n.tag }
func (n *stubNode) Texts() []string          { return n.texts }
func (n *stubNode) Bounds() image.Rectangle  { return n.bounds }
func (n *stubNode) Children() []Node         { return n.children }
func (n *stubNode) Capture() (*Frame, error) { return NewFrame(n.bounds.Dx(), n.bounds.Dy()), nil }
func (n *stubNode) Perform(Gesture) error    { return nil }

func sampleTree() *stubNode {
	return &stubNode{
		id:     1,
		bounds: image.Rect(0, 0, 100, 200),
		children: []Node{
			&stubNode{
				id:     2,
				tag:    "title",
				texts:  []string{"Hello"},
				bounds: image.Rect(10, 10, 90, 40),
				children: []Node{
					&stubNode{id: 4, bounds: image.Rect(12, 12, 20, 20)},
				},
			},
			&stubNode{
				id:     3,
				tag:    "button",
				texts:  []string{"Click", "me"},
				bounds: image.Rect(10, 50, 90, 80),
			},
		},
	}
}

func TestPrintTree_Nested(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "print_tree_nested", []byte(PrintTree([]Node{sampleTree()}, -1)))
}

func TestPrintTree_MaxDepth(t *testing.T) {
	got := PrintTree([]Node{sampleTree()}, 0)
	assert.Equal(t, "Node #1 at (l=0, t=0, r=100, b=200)px\n", got)

	got = PrintTree([]Node{sampleTree()}, 1)
	assert.NotContains(t, got, "Node #4")
	assert.Contains(t, got, "Node #3")
}

func TestPrintTree_MultipleRootsAreNumbered(t *testing.T) {
	a := &stubNode{id: 1, bounds: image.Rect(0, 0, 10, 10)}
	b := &stubNode{id: 7, tag: "popup", bounds: image.Rect(2, 2, 8, 8)}

	got := PrintTree([]Node{a, b}, -1)
	assert.Equal(t,
		"1) Node #1 at (l=0, t=0, r=10, b=10)px\n\n2) Node #7 at (l=2, t=2, r=8, b=8)px, Tag: 'popup'\n",
		got)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("left")
	require.NoError(t, err)
	assert.Equal(t, DirectionLeft, d)

	_, err = ParseDirection("sideways")
	require.Error(t, err)
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "direction", fe.Param)
}

func TestCenter(t *testing.T) {
	assert.Equal(t, Offset{X: 15, Y: 25.5}, Center(image.Rect(10, 20, 20, 31)))
}

func TestGestureKind_String(t *testing.T) {
	assert.Equal(t, "click", GestureClick.String())
	assert.Equal(t, "pointerUp", GesturePointerUp.String())
	assert.Equal(t, "gesture(99)", GestureKind(99).String())
}
