package driver

import (
	"net/url"
	"strconv"

	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// Selector query parameters.
const (
	ParamNodeTag            = "nodeTag"
	ParamNodeText           = "nodeText"
	ParamNodeTextSubstring  = "nodeTextSubstring"
	ParamNodeTextIgnoreCase = "nodeTextIgnoreCase"
)

// SelectorFromQuery builds a selector from the node parameters of q. It
// returns nil when neither nodeTag nor nodeText is present.
func SelectorFromQuery(q url.Values) (*ui.Selector, error) {
	var tag *string
	if q.Has(ParamNodeTag) {
		v := q.Get(ParamNodeTag)
		tag = &v
	}

	var text *ui.TextMatch
	if q.Has(ParamNodeText) {
		substring, err := boolParam(q, ParamNodeTextSubstring)
		if err != nil {
			return nil, err
		}
		ignoreCase, err := boolParam(q, ParamNodeTextIgnoreCase)
		if err != nil {
			return nil, err
		}
		text = &ui.TextMatch{
			Value:      q.Get(ParamNodeText),
			Substring:  substring,
			IgnoreCase: ignoreCase,
		}
	}
	return ui.NewSelector(tag, text), nil
}

func boolParam(q url.Values, name string) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fault.Validation(name, "Invalid %s: '%s'. Use 'true' or 'false'.", name, v)
	}
	return b, nil
}

// Resolve returns the one node selected by s across all roots. A nil
// selector resolves to the first root.
func Resolve(h ui.Harness, s *ui.Selector) (ui.Node, error) {
	roots := h.Roots()
	if s == nil {
		if len(roots) == 0 {
			return nil, fault.NodeResolution("no root node is shown")
		}
		return roots[0], nil
	}
	matches := ui.FindAll(roots, s)
	switch len(matches) {
	case 0:
		return nil, fault.NodeResolution("Failed to find a node matching %s", s)
	case 1:
		return matches[0], nil
	default:
		return nil, fault.NodeResolution("Expected exactly one node matching %s but found %d", s, len(matches))
	}
}

// ResolveAll returns the root set for a nil selector, otherwise the single
// resolved node.
func ResolveAll(h ui.Harness, s *ui.Selector) ([]ui.Node, error) {
	if s == nil {
		roots := h.Roots()
		if len(roots) == 0 {
			return nil, fault.NodeResolution("no root node is shown")
		}
		return roots, nil
	}
	n, err := Resolve(h, s)
	if err != nil {
		return nil, err
	}
	return []ui.Node{n}, nil
}
