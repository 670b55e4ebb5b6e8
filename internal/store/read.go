package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RecentRequests returns up to limit requests, newest first. A limit of
// zero or less returns all of them.
//
// Returns an empty slice (not nil) if nothing was logged.
func (s *Store) RecentRequests(ctx context.Context, limit int) ([]Request, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, endpoint, params, status, message, virtual_ms, duration_us
		FROM requests
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	requests := []Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return requests, nil
}

// ReadRequest returns the request with the given ID.
// Returns sql.ErrNoRows (wrapped) if it does not exist.
func (s *Store) ReadRequest(ctx context.Context, id string) (Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, endpoint, params, status, message, virtual_ms, duration_us
		FROM requests
		WHERE id = ?
	`, id)
	r, err := scanRequest(row)
	if err != nil {
		return Request{}, fmt.Errorf("read request %s: %w", id, err)
	}
	return r, nil
}

// Recordings returns every logged recording in seq order.
func (s *Store) Recordings(ctx context.Context) ([]Recording, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, format, fps, width, height, frames, bytes, outcome, error, elapsed_ms
		FROM recordings
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	recordings := []Recording{}
	for rows.Next() {
		var r Recording
		var elapsedMs int64
		if err := rows.Scan(&r.Seq, &r.ID, &r.Format, &r.FPS, &r.Width, &r.Height,
			&r.Frames, &r.Bytes, &r.Outcome, &r.Error, &elapsedMs); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		recordings = append(recordings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recordings: %w", err)
	}
	return recordings, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (Request, error) {
	var r Request
	var params string
	var virtualMs, durationUs int64
	if err := row.Scan(&r.Seq, &r.ID, &r.Endpoint, &params, &r.Status, &r.Message, &virtualMs, &durationUs); err != nil {
		if err == sql.ErrNoRows {
			return Request{}, err
		}
		return Request{}, fmt.Errorf("scan request: %w", err)
	}
	p, err := unmarshalParams(params)
	if err != nil {
		return Request{}, err
	}
	r.Params = p
	r.Virtual = time.Duration(virtualMs) * time.Millisecond
	r.Duration = time.Duration(durationUs) * time.Microsecond
	return r, nil
}
