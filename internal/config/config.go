// Package config holds the driver configuration: built-in defaults, an
// optional CUE config file validated against an embedded schema, and
// command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config is the complete driver configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// Content is the scene shown at startup.
	Content string

	// Window size of the scene harness, in pixels.
	Width  int
	Height int

	// MaxInlineDuration bounds gifDurationMs and videoDurationMs.
	MaxInlineDuration time.Duration

	// FrameStep is the virtual clock step between inline frames.
	FrameStep time.Duration

	// MinFrameSpacing floors the frame interval handed to the encoder.
	MinFrameSpacing time.Duration

	DefaultFPS int
	MaxFPS     int

	// WaitTimeout is the waitForNode default timeout.
	WaitTimeout time.Duration

	// FFmpeg is the encoder binary.
	FFmpeg string

	// TempDir is where encoder working directories are created.
	TempDir string

	// DBPath is the request log database; ":memory:" keeps it in memory.
	DBPath string

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:              "127.0.0.1:8080",
		Content:           "counter",
		Width:             1024,
		Height:            768,
		MaxInlineDuration: 5000 * time.Millisecond,
		FrameStep:         16 * time.Millisecond,
		MinFrameSpacing:   20 * time.Millisecond,
		DefaultFPS:        30,
		MaxFPS:            120,
		WaitTimeout:       5000 * time.Millisecond,
		FFmpeg:            "ffmpeg",
		TempDir:           os.TempDir(),
		DBPath:            ":memory:",
		ShutdownTimeout:   5 * time.Second,
	}
}

// Validate checks cross-field constraints. The CUE schema covers single
// values read from files; flags are checked here.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.MaxInlineDuration < 0 {
		errs = append(errs, fmt.Errorf("max inline duration must not be negative, got %s", c.MaxInlineDuration))
	}
	if c.FrameStep <= 0 {
		errs = append(errs, fmt.Errorf("frame step must be positive, got %s", c.FrameStep))
	}
	if c.MinFrameSpacing <= 0 {
		errs = append(errs, fmt.Errorf("min frame spacing must be positive, got %s", c.MinFrameSpacing))
	}
	if c.MaxFPS < 1 {
		errs = append(errs, fmt.Errorf("max fps must be at least 1, got %d", c.MaxFPS))
	}
	if c.DefaultFPS < 1 || c.DefaultFPS > c.MaxFPS {
		errs = append(errs, fmt.Errorf("default fps must be between 1 and max fps %d, got %d", c.MaxFPS, c.DefaultFPS))
	}
	if c.WaitTimeout < 0 {
		errs = append(errs, fmt.Errorf("wait timeout must not be negative, got %s", c.WaitTimeout))
	}
	if c.FFmpeg == "" {
		errs = append(errs, errors.New("ffmpeg binary must not be empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path must not be empty"))
	}
	return errors.Join(errs...)
}
