package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5000*time.Millisecond, cfg.MaxInlineDuration)
	assert.Equal(t, 16*time.Millisecond, cfg.FrameStep)
	assert.Equal(t, 20*time.Millisecond, cfg.MinFrameSpacing)
	assert.Equal(t, 30, cfg.DefaultFPS)
	assert.Equal(t, ":memory:", cfg.DBPath)
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("testdata", "driver.cue"), Default())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "animated", cfg.Content)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
	assert.Equal(t, 10*time.Second, cfg.MaxInlineDuration)
	assert.Equal(t, 24, cfg.DefaultFPS)
	assert.Equal(t, 60, cfg.MaxFPS)
	assert.Equal(t, "requests.db", cfg.DBPath)

	// Untouched fields keep their defaults.
	assert.Equal(t, "ffmpeg", cfg.FFmpeg)
	assert.Equal(t, 16*time.Millisecond, cfg.FrameStep)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown field", `colour: "red"`, "colour"},
		{"out of range", `maxInlineMs: 120000`, "maxInlineMs"},
		{"wrong type", `addr: 8080`, "addr"},
		{"bad content name", `content: "has space"`, "content"},
		{"default above max", "fps: {default: 90, max: 60}", "default fps"},
		{"syntax", `addr: `, "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.cue", []byte(tt.src), Default())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.cue"), Default())
	assert.ErrorContains(t, err, "read config")
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--addr", "127.0.0.1:7000", "--max-inline", "2s"}))

	cfg, err := Load(filepath.Join("testdata", "driver.cue"), flags)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, 2*time.Second, cfg.MaxInlineDuration)
	// Not set on the command line: the file wins over flag defaults.
	assert.Equal(t, "animated", cfg.Content)
	assert.Equal(t, 24, cfg.DefaultFPS)
}

func TestLoad_NoFile(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--fps", "200"}))

	_, err := Load("", flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default fps")
}
