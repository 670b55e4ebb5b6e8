package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdemeulenaere/compose-driver/internal/config"
	"github.com/jdemeulenaere/compose-driver/internal/scene"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Config *ConfigSummary `json:"config,omitempty"`
	Errors []string       `json:"errors,omitempty"`
}

// ConfigSummary is the effective configuration, in file units.
type ConfigSummary struct {
	Addr              string `json:"addr"`
	Content           string `json:"content"`
	Width             int    `json:"width"`
	Height            int    `json:"height"`
	MaxInlineMs       int64  `json:"maxInlineMs"`
	FrameStepMs       int64  `json:"frameStepMs"`
	MinFrameSpacingMs int64  `json:"minFrameSpacingMs"`
	DefaultFPS        int    `json:"defaultFps"`
	MaxFPS            int    `json:"maxFps"`
	WaitTimeoutMs     int64  `json:"waitTimeoutMs"`
	FFmpeg            string `json:"ffmpeg"`
	TempDir           string `json:"tempDir"`
	DB                string `json:"db"`
	ShutdownTimeoutMs int64  `json:"shutdownTimeoutMs"`
}

func summarizeConfig(cfg config.Config) *ConfigSummary {
	return &ConfigSummary{
		Addr:              cfg.Addr,
		Content:           cfg.Content,
		Width:             cfg.Width,
		Height:            cfg.Height,
		MaxInlineMs:       cfg.MaxInlineDuration.Milliseconds(),
		FrameStepMs:       cfg.FrameStep.Milliseconds(),
		MinFrameSpacingMs: cfg.MinFrameSpacing.Milliseconds(),
		DefaultFPS:        cfg.DefaultFPS,
		MaxFPS:            cfg.MaxFPS,
		WaitTimeoutMs:     cfg.WaitTimeout.Milliseconds(),
		FFmpeg:            cfg.FFmpeg,
		TempDir:           cfg.TempDir,
		DB:                cfg.DBPath,
		ShutdownTimeoutMs: cfg.ShutdownTimeout.Milliseconds(),
	}
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a driver config file",
		Long: `Validate a CUE driver config file without starting the driver.

The file is checked against the config schema, then the effective
configuration (defaults plus file) is checked as a whole, including that
the startup content exists.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(path); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("config file not found: %s", path), nil)
	}
	formatter.VerboseLog("Validating %s", path)

	cfg, err := config.LoadFile(path, config.Default())
	if err != nil {
		return outputValidationErrors(formatter, splitErrors(err))
	}

	// Building the scene is cheap and checks the content name.
	formatter.VerboseLog("Checking startup content %q", cfg.Content)
	if _, err := scene.New(cfg.Width, cfg.Height, cfg.Content, scene.WithLogger(slog.New(slog.DiscardHandler))); err != nil {
		return outputValidationErrors(formatter, []string{err.Error()})
	}

	return outputValidateSuccess(formatter, cfg)
}

// splitErrors flattens joined errors into one message per line.
func splitErrors(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, splitErrors(e)...)
		}
		return out
	}
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func outputValidateSuccess(formatter *OutputFormatter, cfg config.Config) error {
	if formatter.IsJSON() {
		return formatter.Success(ValidationResult{Valid: true, Config: summarizeConfig(cfg)})
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✓ Config valid")
	if formatter.Verbose {
		printConfig(w, cfg)
	}
	return nil
}

func printConfig(w io.Writer, cfg config.Config) {
	fmt.Fprintf(w, "  addr:     %s\n", cfg.Addr)
	fmt.Fprintf(w, "  content:  %s\n", cfg.Content)
	fmt.Fprintf(w, "  window:   %dx%d\n", cfg.Width, cfg.Height)
	fmt.Fprintf(w, "  inline:   up to %s, step %s\n", cfg.MaxInlineDuration, cfg.FrameStep)
	fmt.Fprintf(w, "  fps:      %d (max %d)\n", cfg.DefaultFPS, cfg.MaxFPS)
	fmt.Fprintf(w, "  ffmpeg:   %s\n", cfg.FFmpeg)
	fmt.Fprintf(w, "  db:       %s\n", cfg.DBPath)
}

func outputValidationErrors(formatter *OutputFormatter, errs []string) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.IsJSON() {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: ErrCodeInvalid, Message: errs[0]},
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", e)
	}
	return exitErr
}
