package store

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRequest_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	req := createTestRequest("req-1", "/click", 200)
	req.Params = url.Values{"nodeTag": {"<b>button</b>"}, "gifDurationMs": {"500"}}
	req.Message = "ok"

	seq, err := s.WriteRequest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	got, err := s.ReadRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, "/click", got.Endpoint)
	assert.Equal(t, req.Params, got.Params)
	assert.Equal(t, 200, got.Status)
	assert.Equal(t, "ok", got.Message)
	assert.Equal(t, 16*time.Millisecond, got.Virtual)
	assert.Equal(t, 1500*time.Microsecond, got.Duration)

	var raw string
	require.NoError(t, s.db.QueryRow("SELECT params FROM requests WHERE id = ?", "req-1").Scan(&raw))
	assert.Equal(t, `{"gifDurationMs":["500"],"nodeTag":["<b>button</b>"]}`, raw)
}

func TestWriteRequest_DuplicateIDIgnored(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	_, err := s.WriteRequest(ctx, createTestRequest("dup", "/status", 200))
	require.NoError(t, err)
	seq, err := s.WriteRequest(ctx, createTestRequest("dup", "/reset", 500))
	require.NoError(t, err)
	assert.Zero(t, seq)

	got, err := s.ReadRequest(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "/status", got.Endpoint)
}

func TestWriteRecording(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	rec := Recording{
		ID:      "rec-1",
		Format:  "mp4",
		FPS:     30,
		Width:   480,
		Height:  300,
		Frames:  5,
		Bytes:   5 * 480 * 300 * 4,
		Outcome: "ok",
		Elapsed: 1200 * time.Millisecond,
	}
	require.NoError(t, s.WriteRecording(ctx, rec))
	require.NoError(t, s.WriteRecording(ctx, Recording{ID: "rec-2", Format: "webm", Outcome: "failed", Error: "ffmpeg failed"}))

	got, err := s.Recordings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	rec.Seq = 1
	assert.Equal(t, rec, got[0])
	assert.Equal(t, "ffmpeg failed", got[1].Error)
}
