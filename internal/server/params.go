package server

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jdemeulenaere/compose-driver/internal/fault"
)

// Inline capture parameters accepted by every action endpoint.
const (
	paramGIFDuration   = "gifDurationMs"
	paramVideoDuration = "videoDurationMs"
	paramVideoFormat   = "videoFormat"
)

func requiredParam(q url.Values, name string) (string, error) {
	if !q.Has(name) {
		return "", fault.Validation(name, "Missing required parameter: %s", name)
	}
	return q.Get(name), nil
}

// intParam parses an optional integer, returning def when absent.
func intParam(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fault.Validation(name, "Invalid value for %s: '%s' is not an integer", name, raw)
	}
	return v, nil
}

// maxMillis is the largest millisecond count a time.Duration can hold.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// millisParam parses an optional millisecond count. Counts that do not fit
// in a time.Duration are rejected rather than wrapped.
func millisParam(q url.Values, name string) (time.Duration, bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fault.Validation(name, "Invalid value for %s: '%s' is not an integer", name, raw)
	}
	if v > maxMillis || v < -maxMillis {
		return 0, false, fault.Validation(name, "Invalid value for %s: %d is out of range", name, v)
	}
	return time.Duration(v) * time.Millisecond, true, nil
}

// floatParam parses an optional coordinate.
func floatParam(q url.Values, name string) (float64, bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fault.Validation(name, "Invalid value for %s: '%s' is not a number", name, raw)
	}
	return v, true, nil
}

func requiredFloatParam(q url.Values, name string) (float64, error) {
	v, ok, err := floatParam(q, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fault.Validation(name, "Missing required parameter: %s", name)
	}
	return v, nil
}

// listParam splits a comma-separated list, dropping empty items.
func listParam(q url.Values, name string) []string {
	var out []string
	for _, item := range strings.Split(q.Get(name), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
