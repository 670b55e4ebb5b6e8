package recorder

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdemeulenaere/compose-driver/internal/engine"
	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/media"
	"github.com/jdemeulenaere/compose-driver/internal/scene"
	"github.com/jdemeulenaere/compose-driver/internal/testutil"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

type fixture struct {
	session   *Session
	harness   *scene.Harness
	spawner   *testutil.FakeSpawner
	tempRoot  string
	summaries []Summary
}

func newFixture(t *testing.T, content string) *fixture {
	t.Helper()
	h, err := scene.New(480, 300, content, scene.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)

	root := t.TempDir()
	enc, _, spawner := testutil.NewFakeEncoder(root)
	f := &fixture{harness: h, spawner: spawner, tempRoot: root}
	f.session = New(enc,
		WithIDGenerator(engine.NewFixedGenerator("rec-1", "rec-2")),
		WithObserver(func(s Summary) { f.summaries = append(f.summaries, s) }),
		WithLogger(testutil.DiscardLogger()),
	)
	return f
}

func (f *fixture) node(t *testing.T, tag string) ui.Node {
	t.Helper()
	nodes := ui.FindAll(f.harness.Roots(), ui.NewSelector(&tag, nil))
	require.Len(t, nodes, 1)
	return nodes[0]
}

func tempEntries(t *testing.T, root string) int {
	t.Helper()
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	return len(entries)
}

func TestStart_TwiceFailsAndKeepsFirstSession(t *testing.T) {
	f := newFixture(t, "counter")

	info, err := f.session.Start(f.harness, nil, media.MP4, 30)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", info.ID)

	_, err = f.session.Start(f.harness, nil, media.WebM, 10)
	require.Error(t, err)
	assert.True(t, fault.IsAlreadyRecording(err))
	assert.Equal(t, Recording, f.session.State())

	active, ok := f.session.Active()
	require.True(t, ok)
	assert.Equal(t, "rec-1", active.ID)
	assert.Equal(t, media.MP4, active.Format)
	assert.Len(t, f.spawner.Processes(), 1)

	art, err := f.session.Stop()
	require.NoError(t, err)
	require.NoError(t, art.Cleanup())
	assert.Equal(t, Idle, f.session.State())
}

func TestStop_WhileIdle(t *testing.T) {
	f := newFixture(t, "counter")

	art, err := f.session.Stop()
	require.Error(t, err)
	assert.Nil(t, art)
	assert.True(t, fault.IsNotRecording(err))
	assert.Equal(t, Idle, f.session.State())
	assert.True(t, f.harness.Clock().AutoAdvance())
	assert.Empty(t, f.summaries)
}

func TestStop_FinalFrameKeepsClock(t *testing.T) {
	f := newFixture(t, "counter")
	clock := f.harness.Clock()

	_, err := f.session.Start(f.harness, nil, media.MP4, 10)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, clock.Now())

	art, err := f.session.Stop()
	require.NoError(t, err)
	defer art.Cleanup()

	assert.Len(t, f.spawner.Last().Writes(), 2)
	assert.Equal(t, 100*time.Millisecond, clock.Now())
}

func TestCaptureFrame_IdleIsNoop(t *testing.T) {
	f := newFixture(t, "counter")

	require.NoError(t, f.session.CaptureFrame())
	assert.Nil(t, f.spawner.Last())
	assert.Equal(t, time.Duration(0), f.harness.Clock().Now())
}

func TestSession_EndToEnd(t *testing.T) {
	f := newFixture(t, "counter")
	clock := f.harness.Clock()

	info, err := f.session.Start(f.harness, nil, media.MP4, 30)
	require.NoError(t, err)
	assert.Equal(t, 480, info.Width)
	assert.Equal(t, 300, info.Height)
	assert.Equal(t, 33*time.Millisecond, info.Interval)
	assert.False(t, clock.AutoAdvance())

	for i := 0; i < 3; i++ {
		require.NoError(t, f.session.CaptureFrame())
	}
	art, err := f.session.Stop()
	require.NoError(t, err)

	p := f.spawner.Last()
	frameSize := 480 * 300 * ui.BytesPerPixel
	assert.Equal(t, []int{frameSize, frameSize, frameSize, frameSize, frameSize}, p.Writes())
	assert.Equal(t, "480x300", p.Arg("-video_size"))
	assert.Equal(t, "30", p.Arg("-framerate"))
	assert.True(t, p.Closed())

	assert.True(t, clock.AutoAdvance())
	// Start and each CaptureFrame advance the clock; the final frame does not.
	assert.Equal(t, 4*33*time.Millisecond, clock.Now())

	assert.Equal(t, "video/mp4", art.ContentType)
	size, err := art.Size()
	require.NoError(t, err)
	assert.Positive(t, size)
	assert.DirExists(t, art.Dir())

	require.NoError(t, art.Cleanup())
	assert.NoDirExists(t, art.Dir())
	assert.Zero(t, tempEntries(t, f.tempRoot))

	require.Len(t, f.summaries, 1)
	assert.Equal(t, OutcomeOK, f.summaries[0].Outcome)
	assert.Equal(t, 5, f.summaries[0].Frames)
	assert.Equal(t, int64(5*frameSize), f.summaries[0].Bytes)
}

func TestSession_FrameSizeFrozenAtStart(t *testing.T) {
	f := newFixture(t, "animated")
	box := f.node(t, "box")

	info, err := f.session.Start(f.harness, box, media.WebM, 50)
	require.NoError(t, err)
	assert.Equal(t, 100, info.Width)
	assert.Equal(t, 100, info.Height)

	// The slide ends half outside the 480px window, so later captures of
	// the box are only 60px wide.
	require.NoError(t, f.node(t, "start").Perform(ui.Gesture{Kind: ui.GestureClick}))
	for i := 0; i < 30; i++ {
		require.NoError(t, f.session.CaptureFrame())
	}
	clipped, err := box.Capture()
	require.NoError(t, err)
	require.Equal(t, 60, clipped.Width)

	art, err := f.session.Stop()
	require.NoError(t, err)
	defer art.Cleanup()

	for _, n := range f.spawner.Last().Writes() {
		assert.Equal(t, 100*100*ui.BytesPerPixel, n)
	}
}

func TestStop_EncoderFailureCleansUp(t *testing.T) {
	f := newFixture(t, "counter")
	f.spawner.ExitErr = errors.New("exit status 1")
	f.spawner.Output = "Invalid data found when processing input"

	_, err := f.session.Start(f.harness, nil, media.MP4, 30)
	require.NoError(t, err)
	require.Equal(t, 1, tempEntries(t, f.tempRoot))

	art, err := f.session.Stop()
	require.Error(t, err)
	assert.Nil(t, art)
	assert.True(t, fault.IsEncoder(err))
	assert.Contains(t, err.Error(), "Invalid data found")

	assert.Equal(t, Idle, f.session.State())
	assert.True(t, f.harness.Clock().AutoAdvance())
	assert.Zero(t, tempEntries(t, f.tempRoot))
	require.Len(t, f.summaries, 1)
	assert.Equal(t, OutcomeFailed, f.summaries[0].Outcome)

	// A new session can start after a failed one.
	f.spawner.ExitErr = nil
	info, err := f.session.Start(f.harness, nil, media.MP4, 30)
	require.NoError(t, err)
	assert.Equal(t, "rec-2", info.ID)
	f.session.Abort()
}

func TestStop_TargetGoneCleansUp(t *testing.T) {
	f := newFixture(t, "counter")

	_, err := f.session.Start(f.harness, f.node(t, "increment"), media.MP4, 30)
	require.NoError(t, err)
	require.NoError(t, f.harness.Reset(""))

	_, err = f.session.Stop()
	require.Error(t, err)
	assert.True(t, f.spawner.Last().Killed())
	assert.Equal(t, Idle, f.session.State())
	assert.True(t, f.harness.Clock().AutoAdvance())
	assert.Zero(t, tempEntries(t, f.tempRoot))
}

func TestStart_SpawnFailureLeavesIdle(t *testing.T) {
	f := newFixture(t, "counter")
	f.spawner.StartErr = errors.New("executable file not found in $PATH")

	_, err := f.session.Start(f.harness, nil, media.MP4, 30)
	require.Error(t, err)
	assert.True(t, fault.IsEncoder(err))
	assert.Equal(t, Idle, f.session.State())
	assert.True(t, f.harness.Clock().AutoAdvance())
	assert.Zero(t, tempEntries(t, f.tempRoot))
}

func TestStart_RestoresPreviousAutoAdvance(t *testing.T) {
	f := newFixture(t, "counter")
	f.harness.Clock().SetAutoAdvance(false)

	_, err := f.session.Start(f.harness, nil, media.MP4, 30)
	require.NoError(t, err)
	art, err := f.session.Stop()
	require.NoError(t, err)
	defer art.Cleanup()

	assert.False(t, f.harness.Clock().AutoAdvance())
}

func TestAbort(t *testing.T) {
	f := newFixture(t, "counter")
	assert.False(t, f.session.Abort())

	_, err := f.session.Start(f.harness, nil, media.WebM, 30)
	require.NoError(t, err)

	assert.True(t, f.session.Abort())
	assert.Equal(t, Idle, f.session.State())
	assert.True(t, f.spawner.Last().Killed())
	assert.Zero(t, tempEntries(t, f.tempRoot))
	require.Len(t, f.summaries, 1)
	assert.Equal(t, OutcomeAborted, f.summaries[0].Outcome)
}

func TestFrameInterval(t *testing.T) {
	assert.Equal(t, 33*time.Millisecond, FrameInterval(30))
	assert.Equal(t, 16*time.Millisecond, FrameInterval(60))
	assert.Equal(t, time.Second, FrameInterval(1))
}
