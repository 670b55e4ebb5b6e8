package store

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Request is one logged HTTP request.
type Request struct {
	Seq      int64
	ID       string
	Endpoint string
	Params   url.Values
	Status   int
	Message  string
	Virtual  time.Duration
	Duration time.Duration
}

// Recording is one logged recording session.
type Recording struct {
	Seq     int64
	ID      string
	Format  string
	FPS     int
	Width   int
	Height  int
	Frames  int
	Bytes   int64
	Outcome string
	Error   string
	Elapsed time.Duration
}

// WriteRequest appends a request record and returns its seq.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: a duplicate ID is
// silently ignored and reported with seq 0.
func (s *Store) WriteRequest(ctx context.Context, r Request) (int64, error) {
	params, err := marshalParams(r.Params)
	if err != nil {
		return 0, fmt.Errorf("write request: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO requests
		(id, endpoint, params, status, message, virtual_ms, duration_us)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.Endpoint,
		params,
		r.Status,
		r.Message,
		r.Virtual.Milliseconds(),
		r.Duration.Microseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("write request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, nil
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write request: %w", err)
	}
	return seq, nil
}

// WriteRecording appends a recording record.
func (s *Store) WriteRecording(ctx context.Context, r Recording) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recordings
		(id, format, fps, width, height, frames, bytes, outcome, error, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.Format,
		r.FPS,
		r.Width,
		r.Height,
		r.Frames,
		r.Bytes,
		r.Outcome,
		r.Error,
		r.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	return nil
}
