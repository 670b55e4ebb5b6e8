package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jdemeulenaere/compose-driver/internal/driver"
	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/media"
	"github.com/jdemeulenaere/compose-driver/internal/recorder"
	"github.com/jdemeulenaere/compose-driver/internal/store"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request, q url.Values) error {
	sel, err := driver.SelectorFromQuery(q)
	if err != nil {
		return err
	}
	format := media.MP4
	if q.Has("format") {
		if format, err = media.ParseVideoFormat("format", q.Get("format")); err != nil {
			return err
		}
	}
	fps, err := intParam(q, "fps", s.opts.DefaultFPS)
	if err != nil {
		return err
	}
	if fps < 1 || fps > s.opts.MaxFPS {
		return fault.Validation("fps", "fps must be between 1 and %d, was %d", s.opts.MaxFPS, fps)
	}
	if s.session.Recording() {
		return fault.AlreadyRecording()
	}

	err = s.driver.Exec(r.Context(), "startRecording", func(h ui.Harness) error {
		var target ui.Node
		if sel != nil {
			n, err := driver.Resolve(h, sel)
			if err != nil {
				return err
			}
			target = n
		}
		_, err := s.session.Start(h, target, format, fps)
		return err
	})
	if err != nil {
		return err
	}
	return writeOK(w)
}

// handleStopRecording finishes the session and streams the video.
func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request, _ url.Values) error {
	if !s.session.Recording() {
		return fault.NotRecording()
	}
	ctx := r.Context()
	art, err := driver.ExecCall(ctx, s.driver, "stopRecording", func(ui.Harness) (*media.Artifact, error) {
		art, err := s.session.Stop()
		if err != nil {
			return nil, err
		}
		// Nobody is left to stream the file.
		if ctx.Err() != nil {
			_ = art.Cleanup()
			return nil, ctx.Err()
		}
		return art, nil
	})
	if err != nil {
		return err
	}
	return s.writeArtifact(w, art)
}

// RecordingLog returns a session observer writing finished recordings to st.
func RecordingLog(st *store.Store, logger *slog.Logger) recorder.Observer {
	return func(sum recorder.Summary) {
		err := st.WriteRecording(context.Background(), store.Recording{
			ID:      sum.ID,
			Format:  sum.Format.Name,
			FPS:     sum.FPS,
			Width:   sum.Width,
			Height:  sum.Height,
			Frames:  sum.Frames,
			Bytes:   sum.Bytes,
			Outcome: sum.Outcome,
			Error:   sum.Error,
			Elapsed: sum.Elapsed,
		})
		if err != nil {
			logger.Warn("recording log write failed", "recording_id", sum.ID, "error", err)
		}
	}
}
