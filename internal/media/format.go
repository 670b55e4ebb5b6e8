package media

import (
	"strings"

	"github.com/jdemeulenaere/compose-driver/internal/fault"
)

// VideoFormat is a supported container with its encoder codec profile.
type VideoFormat struct {
	Name        string
	Extension   string
	ContentType string
	// CodecArgs selects codec and pixel format for the encoder.
	CodecArgs []string
}

var (
	MP4 = VideoFormat{
		Name:        "mp4",
		Extension:   "mp4",
		ContentType: "video/mp4",
		CodecArgs:   []string{"-c:v", "libx264", "-pix_fmt", "yuv420p"},
	}
	WebM = VideoFormat{
		Name:        "webm",
		Extension:   "webm",
		ContentType: "video/webm",
		CodecArgs:   []string{"-c:v", "libvpx-vp9", "-pix_fmt", "yuv420p"},
	}
)

// GIFContentType is the content type of animated image artifacts.
const GIFContentType = "image/gif"

// ParseVideoFormat parses a format name case-insensitively. The error names
// param as the offending parameter.
func ParseVideoFormat(param, value string) (VideoFormat, error) {
	switch strings.ToLower(value) {
	case "mp4":
		return MP4, nil
	case "webm":
		return WebM, nil
	}
	return VideoFormat{}, fault.Validation(param, "Unknown video format '%s'. Use 'mp4' or 'webm'.", value)
}
