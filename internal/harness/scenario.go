package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of driver requests with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Content, when set, is reset to before anything else runs.
	Content string `yaml:"content,omitempty"`

	// Setup requests must answer 200.
	Setup []Step `yaml:"setup,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one GET request.
type Step struct {
	// Get is the endpoint path, e.g. "/click".
	Get string `yaml:"get"`

	Params map[string]string `yaml:"params,omitempty"`

	// Expect defaults to status 200.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the response a step must get.
type Expect struct {
	// Status defaults to 200.
	Status int `yaml:"status,omitempty"`

	// Body is an exact match when set.
	Body *string `yaml:"body,omitempty"`

	Contains []string `yaml:"contains,omitempty"`

	ContentType string `yaml:"content_type,omitempty"`

	// Image requires a PNG body of the given size.
	Image *ImageSize `yaml:"image,omitempty"`
}

// ImageSize is an expected image size in pixels.
type ImageSize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Assertion validates the trace or the final tree.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, final_tree.
	Type string `yaml:"type"`

	// Endpoint is used by trace_contains and trace_count.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Params is a subset match for trace_contains and the selector for
	// final_tree.
	Params map[string]string `yaml:"params,omitempty"`

	// Count is used by trace_count.
	Count int `yaml:"count,omitempty"`

	// Endpoints is used by trace_order.
	Endpoints []string `yaml:"endpoints,omitempty"`

	// Contains is used by final_tree.
	Contains []string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalTree     = "final_tree"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "step:" vs "steps:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every .yaml and .yml file in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		sc, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Get == "" {
		return fmt.Errorf("get is required")
	}
	if !strings.HasPrefix(step.Get, "/") {
		return fmt.Errorf("get must be a path starting with '/', got %q", step.Get)
	}
	if step.Expect != nil && step.Expect.Image != nil {
		if step.Expect.Image.Width <= 0 || step.Expect.Image.Height <= 0 {
			return fmt.Errorf("expect.image: width and height must be positive")
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Endpoint == "" {
			return fmt.Errorf("assertions[%d]: endpoint is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Endpoints) == 0 {
			return fmt.Errorf("assertions[%d]: endpoints list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Endpoint == "" {
			return fmt.Errorf("assertions[%d]: endpoint is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalTree:
		if len(a.Contains) == 0 {
			return fmt.Errorf("assertions[%d]: contains is required for final_tree", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
