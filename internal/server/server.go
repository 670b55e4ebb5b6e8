package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jdemeulenaere/compose-driver/internal/driver"
	"github.com/jdemeulenaere/compose-driver/internal/engine"
	"github.com/jdemeulenaere/compose-driver/internal/recorder"
	"github.com/jdemeulenaere/compose-driver/internal/store"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// Defaults for Options fields left zero.
const (
	DefaultWaitTimeout     = 5 * time.Second
	DefaultFPS             = 30
	DefaultMaxFPS          = 120
	DefaultShutdownTimeout = 5 * time.Second
)

// Options tunes a Server.
type Options struct {
	// WaitTimeout is the waitForNode timeout when the request has none.
	WaitTimeout time.Duration

	// DefaultFPS and MaxFPS bound startRecording's fps parameter.
	DefaultFPS int
	MaxFPS     int

	// ShutdownTimeout bounds the graceful shutdown started by Serve.
	ShutdownTimeout time.Duration

	// Store receives the request log. Nil disables logging to storage.
	Store *store.Store

	// IDs generates request IDs. Defaults to UUIDv7.
	IDs engine.IDGenerator

	Logger *slog.Logger
}

// Server routes HTTP requests to a driver and a recording session.
type Server struct {
	driver  *driver.Driver
	session *recorder.Session
	opts    Options
	logger  *slog.Logger
	mux     *http.ServeMux
	httpSrv *http.Server

	shutdown    sync.Once
	shutdownErr error
}

// New creates a server. The session is owned by the server: its frames are
// sampled by the driver and it is aborted on Shutdown.
func New(d *driver.Driver, session *recorder.Session, opts Options) *Server {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}
	if opts.DefaultFPS <= 0 {
		opts.DefaultFPS = DefaultFPS
	}
	if opts.MaxFPS <= 0 {
		opts.MaxFPS = DefaultMaxFPS
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.IDs == nil {
		opts.IDs = engine.UUIDv7Generator{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		driver:  d,
		session: session,
		opts:    opts,
		logger:  opts.Logger,
		mux:     mux,
	}
	s.routes()
	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.handle("/status", s.handleStatus)
	s.handle("/reset", s.handleReset)
	s.handle("/screenshot", s.handleScreenshot)
	s.handle("/printTree", s.handlePrintTree)
	s.handle("/waitForIdle", s.handleWaitForIdle)
	s.handle("/waitForNode", s.handleWaitForNode)

	s.handle("/click", s.action(clickAction))
	s.handle("/longClick", s.action(longClickAction))
	s.handle("/doubleClick", s.action(doubleClickAction))
	s.handle("/textInput", s.action(textInputAction))
	s.handle("/textReplacement", s.action(textReplacementAction))
	s.handle("/textClearance", s.action(textClearanceAction))
	s.handle("/navigateBack", s.action(navigateBackAction))
	s.handle("/scrollTo", s.action(scrollToAction))
	s.handle("/keyEvent", s.action(keyEventAction))
	s.handle("/swipe", s.action(swipeAction))
	s.handle("/pointerInput/down", s.action(pointerDownAction))
	s.handle("/pointerInput/moveBy", s.action(pointerMoveByAction))
	s.handle("/pointerInput/moveTo", s.action(pointerMoveToAction))
	s.handle("/pointerInput/up", s.action(pointerUpAction))

	s.handle("/startRecording", s.handleStartRecording)
	s.handle("/stopRecording", s.handleStopRecording)

	s.handle("/requests", s.handleRequests)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("driver listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	}
}

// Shutdown stops accepting requests, waits for in-flight ones and aborts
// an active recording. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Do(func() {
		var errs []error
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		err := s.driver.Exec(ctx, "shutdown", func(ui.Harness) error {
			if s.session.Abort() {
				s.logger.Info("active recording aborted on shutdown")
			}
			return nil
		})
		if err != nil && !errors.Is(err, engine.ErrStopped) {
			errs = append(errs, fmt.Errorf("abort recording: %w", err))
		}
		s.shutdownErr = errors.Join(errs...)
	})
	return s.shutdownErr
}
