package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidation_MessageAndParam(t *testing.T) {
	err := Validation("fps", "fps should be between %d and %d", 1, 120)

	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, "fps", err.Param)
	assert.Equal(t, "fps should be between 1 and 120", err.Error())
	assert.True(t, IsValidation(err))
	assert.False(t, IsEncoder(err))
}

func TestEncoder_IncludesOutputAndCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Encoder("ffmpeg", "Unknown encoder 'libx264'", cause)

	assert.Equal(t, "ffmpeg failed: Unknown encoder 'libx264': exit status 1", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestIsHelpers_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("start recording: %w", AlreadyRecording())

	assert.True(t, IsAlreadyRecording(wrapped))
	assert.False(t, IsNotRecording(wrapped))
	assert.Equal(t, CodeAlreadyRecording, CodeOf(wrapped))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("boom")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestConflictErrors_StateTheCurrentState(t *testing.T) {
	assert.Equal(t, "recording", AlreadyRecording().State)
	assert.Equal(t, "idle", NotRecording().State)
	assert.True(t, IsNodeResolution(NodeResolution("no node matches %s", "Tag = 'x'")))
}
