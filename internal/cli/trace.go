package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdemeulenaere/compose-driver/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Limit    int
	Endpoint string // optional - filter to one endpoint
}

// TraceRequest is one logged request.
type TraceRequest struct {
	Seq        int64             `json:"seq"`
	ID         string            `json:"id"`
	Endpoint   string            `json:"endpoint"`
	Params     map[string]string `json:"params,omitempty"`
	Status     int               `json:"status"`
	Message    string            `json:"message,omitempty"`
	VirtualMs  int64             `json:"virtual_ms"`
	DurationUs int64             `json:"duration_us"`
}

// TraceRecording is one logged recording session.
type TraceRecording struct {
	Seq       int64  `json:"seq"`
	ID        string `json:"id"`
	Format    string `json:"format"`
	FPS       int    `json:"fps"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Frames    int    `json:"frames"`
	Bytes     int64  `json:"bytes"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Requests   []TraceRequest   `json:"requests"`
	Recordings []TraceRecording `json:"recordings"`
	Stats      TraceStats       `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Requests   int `json:"requests"`
	Failed     int `json:"failed"`
	Recordings int `json:"recordings"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the request and recording log",
		Long: `Show what a driver did, from the SQLite log written by "serve --db".

The output includes:
- Requests: oldest first, with status, failure message and virtual time
- Recordings: every recording session and how it ended
- Stats: Summary counts

Examples:
  compose-driver trace --db ./driver.db
  compose-driver trace --db ./driver.db --limit 20 --endpoint /click
  compose-driver trace --db ./driver.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent N requests (0 for all)")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "filter to one endpoint, e.g. /click")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Open would create a missing file.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("database not found: %s", opts.Database), nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	defer st.Close()

	requests, err := st.RecentRequests(ctx, opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to read requests", err)
	}
	recordings, err := st.Recordings(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to read recordings", err)
	}

	result := buildTrace(requests, recordings, opts.Endpoint)
	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	outputTraceText(formatter.Writer, result, opts.Verbose)
	return nil
}

// buildTrace converts store rows, newest first, into an oldest-first trace.
func buildTrace(requests []store.Request, recordings []store.Recording, endpoint string) TraceResult {
	result := TraceResult{
		Requests:   []TraceRequest{},
		Recordings: make([]TraceRecording, 0, len(recordings)),
	}

	for i := len(requests) - 1; i >= 0; i-- {
		r := requests[i]
		if endpoint != "" && r.Endpoint != endpoint {
			continue
		}
		result.Requests = append(result.Requests, TraceRequest{
			Seq:        r.Seq,
			ID:         r.ID,
			Endpoint:   r.Endpoint,
			Params:     flattenParams(r.Params),
			Status:     r.Status,
			Message:    r.Message,
			VirtualMs:  r.Virtual.Milliseconds(),
			DurationUs: r.Duration.Microseconds(),
		})
		if r.Status >= 400 {
			result.Stats.Failed++
		}
	}
	result.Stats.Requests = len(result.Requests)

	for _, r := range recordings {
		result.Recordings = append(result.Recordings, TraceRecording{
			Seq:       r.Seq,
			ID:        r.ID,
			Format:    r.Format,
			FPS:       r.FPS,
			Width:     r.Width,
			Height:    r.Height,
			Frames:    r.Frames,
			Bytes:     r.Bytes,
			Outcome:   r.Outcome,
			Error:     r.Error,
			ElapsedMs: r.Elapsed.Milliseconds(),
		})
	}
	result.Stats.Recordings = len(result.Recordings)
	return result
}

// flattenParams keeps the first value of each parameter, as the driver does.
func flattenParams(values url.Values) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintln(w, "=== Requests ===")
	if len(result.Requests) == 0 {
		fmt.Fprintln(w, "  (no requests)")
	}
	for _, r := range result.Requests {
		fmt.Fprintf(w, "  [%d] %s%s -> %d (t=%dms)\n",
			r.Seq, r.Endpoint, formatParams(r.Params), r.Status, r.VirtualMs)
		if r.Message != "" {
			fmt.Fprintf(w, "       %s\n", r.Message)
		}
		if verbose {
			fmt.Fprintf(w, "       ID: %s  Took: %dus\n", truncateID(r.ID), r.DurationUs)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Recordings ===")
	if len(result.Recordings) == 0 {
		fmt.Fprintln(w, "  (no recordings)")
	}
	for _, r := range result.Recordings {
		fmt.Fprintf(w, "  [%d] %s %s %dx%d @%dfps, %d frames, %d bytes\n",
			r.Seq, r.Outcome, r.Format, r.Width, r.Height, r.FPS, r.Frames, r.Bytes)
		if r.Error != "" {
			fmt.Fprintf(w, "       %s\n", r.Error)
		}
		if verbose {
			fmt.Fprintf(w, "       ID: %s  Elapsed: %dms\n", truncateID(r.ID), r.ElapsedMs)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Requests:   %d\n", result.Stats.Requests)
	fmt.Fprintf(w, "  Failed:     %d\n", result.Stats.Failed)
	fmt.Fprintf(w, "  Recordings: %d\n", result.Stats.Recordings)
}

// formatParams formats query parameters with sorted keys.
func formatParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return " {" + strings.Join(parts, ", ") + "}"
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-4:]
}
