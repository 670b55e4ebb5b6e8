package harness

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds one request when the runner's client has none.
const DefaultTimeout = 60 * time.Second

// Runner executes scenarios against a driver listening at a base URL.
//
// Thread-safety: a Runner may be shared, but scenarios against one driver
// must not run concurrently since they share its UI.
type Runner struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(r *Runner) {
		r.client = c
	}
}

// WithLogger sets the logger used for step diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a runner for the driver at baseURL.
func NewRunner(baseURL string, opts ...Option) *Runner {
	r := &Runner{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// response is what a step observed.
type response struct {
	status      int
	contentType string
	body        []byte
}

// Run executes a scenario and returns the result. The error is only set
// when the driver could not be reached or setup failed; failed
// expectations and assertions are reported in the result.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	result := NewResult()

	setup := sc.Setup
	if sc.Content != "" {
		setup = append([]Step{{Get: "/reset", Params: map[string]string{"composable": sc.Content}}}, setup...)
	}
	for i, step := range setup {
		resp, err := r.step(ctx, step, result)
		if err != nil {
			return nil, fmt.Errorf("setup step %d (%s): %w", i, step.Get, err)
		}
		if resp.status != http.StatusOK {
			return nil, fmt.Errorf("setup step %d (%s): status %d: %s", i, step.Get, resp.status, resp.body)
		}
	}

	for i, step := range sc.Steps {
		resp, err := r.step(ctx, step, result)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Get, err)
		}
		for _, msg := range checkExpect(step.Expect, resp) {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, step.Get, msg))
		}
		r.logger.Debug("scenario step completed",
			"scenario", sc.Name,
			"step", i,
			"endpoint", step.Get,
			"status", resp.status,
		)
	}

	actx := &AssertionContext{Ctx: ctx, Tree: r.tree}
	for _, msg := range EvaluateAssertions(result, sc.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// step performs one request and traces it.
func (r *Runner) step(ctx context.Context, step Step, result *Result) (response, error) {
	resp, err := r.get(ctx, step.Get, step.Params)
	if err != nil {
		return response{}, err
	}
	result.AddTrace(TraceEvent{
		Endpoint:    step.Get,
		Params:      step.Params,
		Status:      resp.status,
		ContentType: resp.contentType,
		Body:        summarize(resp),
	})
	return resp, nil
}

func (r *Runner) get(ctx context.Context, path string, params map[string]string) (response, error) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	target := r.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read %s response: %w", path, err)
	}
	return response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}, nil
}

// tree fetches the printTree dump for a selector.
func (r *Runner) tree(ctx context.Context, params map[string]string) (string, error) {
	resp, err := r.get(ctx, "/printTree", params)
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", fmt.Errorf("printTree: status %d: %s", resp.status, resp.body)
	}
	return string(resp.body), nil
}

func isText(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") || strings.HasPrefix(contentType, "application/json")
}

// summarize renders a body for the trace. Binary bodies become a summary.
func summarize(resp response) string {
	if isText(resp.contentType) || len(resp.body) == 0 {
		return string(resp.body)
	}
	if strings.HasPrefix(resp.contentType, "image/png") {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(resp.body)); err == nil {
			return fmt.Sprintf("<%s %dx%d>", resp.contentType, cfg.Width, cfg.Height)
		}
	}
	return fmt.Sprintf("<%s %d bytes>", resp.contentType, len(resp.body))
}

// checkExpect returns one message per unmet expectation.
func checkExpect(e *Expect, resp response) []string {
	want := http.StatusOK
	if e != nil && e.Status != 0 {
		want = e.Status
	}
	var errs []string
	if resp.status != want {
		errs = append(errs, fmt.Sprintf("expected status %d, got %d: %s", want, resp.status, summarize(resp)))
	}
	if e == nil {
		return errs
	}

	body := string(resp.body)
	if e.Body != nil && body != *e.Body {
		errs = append(errs, fmt.Sprintf("expected body %q, got %q", *e.Body, summarize(resp)))
	}
	for _, s := range e.Contains {
		if !strings.Contains(body, s) {
			errs = append(errs, fmt.Sprintf("expected body to contain %q, got %q", s, summarize(resp)))
		}
	}
	if e.ContentType != "" && !strings.HasPrefix(resp.contentType, e.ContentType) {
		errs = append(errs, fmt.Sprintf("expected content type %s, got %s", e.ContentType, resp.contentType))
	}
	if e.Image != nil {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(resp.body))
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("expected an image: %v", err))
		case cfg.Width != e.Image.Width || cfg.Height != e.Image.Height:
			errs = append(errs, fmt.Sprintf("expected image %dx%d, got %dx%d",
				e.Image.Width, e.Image.Height, cfg.Width, cfg.Height))
		}
	}
	return errs
}
