package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jdemeulenaere/compose-driver/internal/config"
	"github.com/jdemeulenaere/compose-driver/internal/driver"
	"github.com/jdemeulenaere/compose-driver/internal/engine"
	"github.com/jdemeulenaere/compose-driver/internal/media"
	"github.com/jdemeulenaere/compose-driver/internal/recorder"
	"github.com/jdemeulenaere/compose-driver/internal/scene"
	"github.com/jdemeulenaere/compose-driver/internal/server"
	"github.com/jdemeulenaere/compose-driver/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigPath string
	flags      *config.Flags

	// OnListen is called with the bound address once the listener is open.
	// Tests use it to learn the port chosen for ":0".
	OnListen func(addr net.Addr)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP driver",
		Long: `Start the HTTP driver on a scene harness.

Settings come from the built-in defaults, then the optional CUE config
file, then any flag set on the command line. Requests are logged to the
SQLite database named by --db; inspect it later with "compose-driver trace".

Example:
  compose-driver serve --addr 127.0.0.1:8080 --content counter
  compose-driver serve --config ./driver.cue --db ./driver.db --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to a CUE config file")
	opts.flags = config.BindFlags(cmd.Flags())

	return cmd
}

// driverStack is every component of a running driver.
type driverStack struct {
	store  *store.Store
	engine *engine.Engine
	server *server.Server
}

// newDriverStack wires the components described by cfg. The engine is not
// started.
func newDriverStack(cfg config.Config, logger *slog.Logger) (*driverStack, error) {
	h, err := scene.New(cfg.Width, cfg.Height, cfg.Content, scene.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create scene: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open request log: %w", err)
	}

	enc := media.NewEncoder(cfg.FFmpeg, cfg.TempDir)
	enc.MinFrameSpacing = cfg.MinFrameSpacing
	enc.Logger = logger

	session := recorder.New(enc,
		recorder.WithObserver(server.RecordingLog(st, logger)),
		recorder.WithLogger(logger),
	)

	e := engine.New(engine.WithLogger(logger))
	d := driver.New(e, h, enc, session, driver.Options{
		MaxInlineDuration: cfg.MaxInlineDuration,
		FrameStep:         cfg.FrameStep,
		Logger:            logger,
	})
	srv := server.New(d, session, server.Options{
		WaitTimeout:     cfg.WaitTimeout,
		DefaultFPS:      cfg.DefaultFPS,
		MaxFPS:          cfg.MaxFPS,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Store:           st,
		Logger:          logger,
	})

	return &driverStack{store: st, engine: e, server: srv}, nil
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := config.Load(opts.ConfigPath, opts.flags)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalid, "invalid configuration", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	slog.SetDefault(logger)

	stack, err := newDriverStack(cfg, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to start driver", err)
	}
	defer func() {
		if closeErr := stack.store.Close(); closeErr != nil {
			logger.Error("error closing request log", "error", closeErr)
		}
	}()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to listen", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	engineDone := make(chan error, 1)
	go func() {
		engineDone <- stack.engine.Run(context.Background())
	}()

	logger.Info("driver starting",
		"addr", ln.Addr().String(),
		"content", cfg.Content,
		"window", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"db", cfg.DBPath,
	)
	if formatter.IsJSON() {
		_ = formatter.Success(map[string]string{"addr": ln.Addr().String()})
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Driver listening on http://%s\n", ln.Addr())
		fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")
	}
	if opts.OnListen != nil {
		opts.OnListen(ln.Addr())
	}

	serveErr := stack.server.Serve(ctx, ln)

	// Shutdown has run by now, so the engine only drains what is queued.
	stack.engine.Stop()
	if err := <-engineDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("ui context stopped with error", "error", err)
	}

	if serveErr != nil {
		return WrapExitError(ExitFailure, "driver error", serveErr)
	}
	logger.Info("driver stopped gracefully")
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}
