package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// AssertionContext gives assertions access to the driver after the run.
type AssertionContext struct {
	Ctx context.Context

	// Tree fetches the printTree dump for selector params.
	Tree func(ctx context.Context, params map[string]string) (string, error)
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %d\n", event.Seq, event.Endpoint, formatParams(event.Params), event.Status)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalTree:
			err = assertFinalTree(actx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertTraceContains checks that the endpoint was called with params
// containing the expected ones.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Endpoint == assertion.Endpoint && matchParams(event.Params, assertion.Params) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s with params %s", assertion.Endpoint, formatParams(assertion.Params)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that endpoints appear in the given order.
// Calls don't need to be consecutive.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// First position of each endpoint, 1-indexed.
	positions := make(map[string]int)
	for i, event := range trace {
		if positions[event.Endpoint] == 0 {
			positions[event.Endpoint] = i + 1
		}
	}

	for _, endpoint := range assertion.Endpoints {
		if positions[endpoint] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all endpoints present: %v", assertion.Endpoints),
				Actual:   fmt.Sprintf("missing endpoint: %s", endpoint),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Endpoints); i++ {
		prev := assertion.Endpoints[i-1]
		curr := assertion.Endpoints[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("endpoints in order: %v", assertion.Endpoints),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the endpoint was called exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Endpoint == assertion.Endpoint {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d calls to %s", assertion.Count, assertion.Endpoint),
			Actual:   fmt.Sprintf("%d calls", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalTree checks the tree dump after the last step.
func assertFinalTree(actx *AssertionContext, assertion Assertion) error {
	if actx == nil || actx.Tree == nil {
		return fmt.Errorf("final_tree assertion requires a driver")
	}
	ctx := actx.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	tree, err := actx.Tree(ctx, assertion.Params)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalTree,
			Expected: fmt.Sprintf("tree for %s", formatParams(assertion.Params)),
			Actual:   err.Error(),
		}
	}
	for _, s := range assertion.Contains {
		if !strings.Contains(tree, s) {
			return &AssertionError{
				Type:     AssertFinalTree,
				Expected: fmt.Sprintf("tree containing %q", s),
				Actual:   tree,
			}
		}
	}
	return nil
}

// matchParams reports whether actual contains every expected key with the
// same value.
func matchParams(actual, expected map[string]string) bool {
	for k, v := range expected {
		if got, ok := actual[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// formatParams renders params in key order.
func formatParams(params map[string]string) string {
	if len(params) == 0 {
		return "{}"
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
	return "{" + strings.Join(parts, ", ") + "}"
}
