package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/jdemeulenaere/compose-driver/internal/engine"
	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/media"
	"github.com/jdemeulenaere/compose-driver/internal/store"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// RequestIDHeader carries the request ID on every response.
const RequestIDHeader = "X-Request-Id"

// handlerFunc serves one endpoint. It writes its own success response and
// returns an error to have the wrapper write the failure.
type handlerFunc func(w http.ResponseWriter, r *http.Request, q url.Values) error

// panicError is a handler panic recovered by the wrapper.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// statusWriter remembers what was sent so the wrapper can log it.
type statusWriter struct {
	http.ResponseWriter
	status  int
	message string
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(p)
}

func (w *statusWriter) wrote() bool {
	return w.status != 0
}

func (s *Server) handle(path string, fn handlerFunc) {
	s.mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := s.opts.IDs.Generate()
		w.Header().Set(RequestIDHeader, id)
		sw := &statusWriter{ResponseWriter: w}
		q := r.URL.Query()

		if err := invoke(fn, sw, r, q); err != nil {
			s.fail(sw, id, path, err)
		}

		elapsed := time.Since(start)
		s.logger.Info("request",
			"request_id", id,
			"endpoint", path,
			"status", sw.status,
			"duration", elapsed,
		)
		s.logRequest(r.Context(), store.Request{
			ID:       id,
			Endpoint: path,
			Params:   q,
			Status:   sw.status,
			Message:  sw.message,
			Virtual:  s.driver.Harness().Clock().Now(),
			Duration: elapsed,
		})
	})
}

func invoke(fn handlerFunc, w http.ResponseWriter, r *http.Request, q url.Values) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &panicError{value: v, stack: debug.Stack()}
		}
	}()
	return fn(w, r, q)
}

// fail translates err into a response. A handler that already started its
// response keeps it; the error is only logged.
func (s *Server) fail(w *statusWriter, id, endpoint string, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"request_id", id,
			"endpoint", endpoint,
			"error", err,
			"stack", string(stackOf(err)),
		)
	}
	if w.wrote() {
		return
	}
	w.message = body
	writeText(w, status, body)
}

// classify maps an error to its status code and response body.
func classify(err error) (int, string) {
	var fe *fault.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fault.CodeValidation:
			return http.StatusBadRequest, "Bad Request: " + fe.Message
		case fault.CodeAlreadyRecording:
			return http.StatusConflict, fe.Message
		case fault.CodeNotRecording:
			return http.StatusBadRequest, fe.Message
		}
	}
	return http.StatusInternalServerError, "Server Error: " + err.Error()
}

// stackOf prefers the stack captured where a panic happened.
func stackOf(err error) []byte {
	var pe *panicError
	if errors.As(err, &pe) {
		return pe.stack
	}
	var ep *engine.PanicError
	if errors.As(err, &ep) {
		return ep.Stack
	}
	return debug.Stack()
}

func (s *Server) logRequest(ctx context.Context, r store.Request) {
	if s.opts.Store == nil {
		return
	}
	if _, err := s.opts.Store.WriteRequest(context.WithoutCancel(ctx), r); err != nil {
		s.logger.Warn("request log write failed", "request_id", r.ID, "error", err)
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeOK(w http.ResponseWriter) error {
	writeText(w, http.StatusOK, "ok")
	return nil
}

// writeFrame encodes f fully before sending so an encoding failure can
// still become a 500.
func writeFrame(w http.ResponseWriter, f *ui.Frame) error {
	var buf bytes.Buffer
	if err := f.WritePNG(&buf); err != nil {
		return fmt.Errorf("encode screenshot: %w", err)
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}

// writeArtifact streams art and removes its temporary directory afterwards,
// whether or not the client read it all.
func (s *Server) writeArtifact(w http.ResponseWriter, art *media.Artifact) error {
	defer func() {
		if err := art.Cleanup(); err != nil {
			s.logger.Warn("artifact cleanup failed", "dir", art.Dir(), "error", err)
		}
	}()
	size, err := art.Size()
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)
	_, err = art.WriteTo(w)
	return err
}
