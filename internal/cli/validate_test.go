package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "driver.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func runValidateCommand(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewValidateCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String() + errBuf.String(), err
}

const validConfig = `addr:    "0.0.0.0:9000"
content: "list"
window: {
	width:  640
	height: 480
}
fps: {
	default: 24
	max:     60
}
`

func TestValidateValidConfig(t *testing.T) {
	out, err := runValidateCommand(t, &RootOptions{Format: "text"}, writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, "✓ Config valid\n", out)
}

func TestValidateValidConfigVerbose(t *testing.T) {
	out, err := runValidateCommand(t, &RootOptions{Format: "text", Verbose: true}, writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Contains(t, out, `Checking startup content "list"`)
	assert.Contains(t, out, "  window:   640x480\n")
	assert.Contains(t, out, "  fps:      24 (max 60)\n")
}

func TestValidateValidConfigJSON(t *testing.T) {
	out, err := runValidateCommand(t, &RootOptions{Format: "json"}, writeConfig(t, validConfig))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.NotNil(t, resp.Data.Config)
	assert.Equal(t, "0.0.0.0:9000", resp.Data.Config.Addr)
	assert.Equal(t, 640, resp.Data.Config.Width)
	assert.Equal(t, int64(5000), resp.Data.Config.MaxInlineMs)
	assert.Equal(t, 60, resp.Data.Config.MaxFPS)
}

func TestValidateNonExistentFile(t *testing.T) {
	out, err := runValidateCommand(t, &RootOptions{Format: "text"}, filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "config file not found")
}

func TestValidateInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown field", `colour: "red"`, "colour"},
		{"wrong type", `addr: 8080`, "addr"},
		{"default above max", "fps: {default: 90, max: 60}", "default fps"},
		{"unknown content", `content: "spaceship"`, "Unknown composable 'spaceship'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runValidateCommand(t, &RootOptions{Format: "text"}, writeConfig(t, tt.src))
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "✗ Validation failed")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestValidateInvalidConfigJSON(t *testing.T) {
	out, err := runValidateCommand(t, &RootOptions{Format: "json"}, writeConfig(t, `content: "spaceship"`))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "spaceship")
}

func TestValidateRequiresOneArg(t *testing.T) {
	_, err := runValidateCommand(t, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
