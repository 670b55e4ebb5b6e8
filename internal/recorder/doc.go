// Package recorder implements the recording session: a capture spanning
// many requests, streaming raw frames into one encoder process.
//
// A Session is either Idle or Recording. Start is the only way in, Stop the
// only way out. There is no sampling goroutine: frames are appended when
// the driver calls CaptureFrame around each action, and the virtual clock
// moves one frame interval per frame, so the video plays at the requested
// rate regardless of how much wall time passed between requests.
//
// All methods touching the UI (Start, CaptureFrame, Stop) must run on the
// UI context. The state flag is atomic so concurrent Start or Stop calls
// from different requests are decided by a single compare-and-swap.
package recorder
