package ui

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// TextMatch is the text predicate of a Selector.
type TextMatch struct {
	Value      string
	Substring  bool
	IgnoreCase bool
}

// Selector picks nodes by test tag and/or text. Predicates that are set are
// combined with AND. A nil *Selector means "the root node set".
type Selector struct {
	Tag  *string
	Text *TextMatch
}

// NewSelector builds a selector from optional predicates. It returns nil when
// neither predicate is given.
func NewSelector(tag *string, text *TextMatch) *Selector {
	if tag == nil && text == nil {
		return nil
	}
	return &Selector{Tag: tag, Text: text}
}

// Matches reports whether n satisfies every predicate of the selector.
func (s *Selector) Matches(n Node) bool {
	if s == nil {
		return true
	}
	if s.Tag != nil && n.Tag() != *s.Tag {
		return false
	}
	if s.Text != nil && !s.Text.matchesAny(n.Texts()) {
		return false
	}
	return true
}

func (m *TextMatch) matchesAny(values []string) bool {
	want := m.normalize(m.Value)
	for _, v := range values {
		got := m.normalize(v)
		if m.Substring {
			if strings.Contains(got, want) {
				return true
			}
		} else if got == want {
			return true
		}
	}
	return false
}

// normalize brings s to NFC and, for case-insensitive matches, case-folds it.
// Text coming from the URL and text held by the UI may use different
// normalization forms for the same characters.
func (m *TextMatch) normalize(s string) string {
	s = norm.NFC.String(s)
	if m.IgnoreCase {
		s = cases.Fold().String(s)
	}
	return s
}

// String describes the query, for error messages and logs.
func (s *Selector) String() string {
	if s == nil {
		return "isRoot"
	}
	var parts []string
	if s.Tag != nil {
		parts = append(parts, fmt.Sprintf("(TestTag = '%s')", *s.Tag))
	}
	if s.Text != nil {
		op := "="
		if s.Text.Substring {
			op = "contains"
		}
		part := fmt.Sprintf("(Text + EditableText %s '%s'", op, s.Text.Value)
		if s.Text.IgnoreCase {
			part += " (ignoreCase: true)"
		}
		parts = append(parts, part+")")
	}
	return strings.Join(parts, " && ")
}

// FindAll returns every node under roots matching s, in depth-first order,
// searching all roots.
func FindAll(roots []Node, s *Selector) []Node {
	var out []Node
	var walk func(n Node)
	walk = func(n Node) {
		if s.Matches(n) {
			out = append(out, n)
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}
