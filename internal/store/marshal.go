package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// marshalParams converts request parameters to JSON TEXT for storage.
// Keys are sorted (json.Marshal sorts map keys) so identical requests
// produce identical rows.
func marshalParams(params url.Values) (string, error) {
	if len(params) == 0 {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // keep selector text such as "<b>" readable
	if err := enc.Encode(map[string][]string(params)); err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalParams parses stored parameters.
func unmarshalParams(data string) (url.Values, error) {
	if data == "" || data == "{}" {
		return url.Values{}, nil
	}
	var m map[string][]string
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return url.Values(m), nil
}
