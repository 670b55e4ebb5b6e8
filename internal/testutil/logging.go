package testutil

import (
	"io"
	"log/slog"
)

// DiscardLogger returns a logger that drops everything. Tests use it to
// keep output readable.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
