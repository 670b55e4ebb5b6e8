package store

import (
	"net/url"
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRequest creates a request with minimal required fields.
func createTestRequest(id, endpoint string, status int) Request {
	return Request{
		ID:       id,
		Endpoint: endpoint,
		Params:   url.Values{},
		Status:   status,
		Virtual:  16 * time.Millisecond,
		Duration: 1500 * time.Microsecond,
	}
}
