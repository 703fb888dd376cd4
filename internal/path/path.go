// Package path parses slash-delimited write locations such as
// "theme/primaryColor" or "components[id=kpi1]/style/color" and resolves them
// against a JSON-like document tree.
package path

import (
	"errors"
	"fmt"
	"strings"
)

// StepKind distinguishes plain property descents from array selectors.
type StepKind int

const (
	// Field descends into an object property.
	Field StepKind = iota
	// Selector picks the element of an array of objects whose Key equals Value.
	Selector
)

// Step is one parsed path segment.
type Step struct {
	Kind  StepKind
	Name  string // property name; for a selector, the array property
	Key   string // selector key, e.g. "id"
	Value string // selector value, e.g. "kpi1"
}

// Path is a parsed write location.
type Path struct {
	raw   string
	steps []Step
}

var (
	ErrEmpty     = errors.New("path is empty")
	ErrMalformed = errors.New("malformed path")
)

// Parse splits raw into steps. A leading slash is ignored. Slashes inside a
// selector's brackets do not split segments.
func Parse(raw string) (Path, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return Path{}, ErrEmpty
	}
	segments, err := split(trimmed)
	if err != nil {
		return Path{}, fmt.Errorf("%w %q: %v", ErrMalformed, raw, err)
	}
	p := Path{raw: raw, steps: make([]Step, 0, len(segments))}
	for _, seg := range segments {
		step, err := parseSegment(seg)
		if err != nil {
			return Path{}, fmt.Errorf("%w %q: %v", ErrMalformed, raw, err)
		}
		p.steps = append(p.steps, step)
	}
	return p, nil
}

func split(s string) ([]string, error) {
	var (
		out   []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
			if depth > 1 {
				return nil, errors.New("nested selector")
			}
		case ']':
			depth--
			if depth < 0 {
				return nil, errors.New("unbalanced ']'")
			}
		case '/':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("unterminated selector")
	}
	out = append(out, s[start:])
	for _, seg := range out {
		if strings.TrimSpace(seg) == "" {
			return nil, errors.New("empty segment")
		}
	}
	return out, nil
}

func parseSegment(seg string) (Step, error) {
	open := strings.IndexByte(seg, '[')
	if open < 0 {
		return Step{Kind: Field, Name: seg}, nil
	}
	if !strings.HasSuffix(seg, "]") {
		return Step{}, fmt.Errorf("segment %q: text after selector", seg)
	}
	name := seg[:open]
	if name == "" {
		return Step{}, fmt.Errorf("segment %q: selector without property name", seg)
	}
	inner := seg[open+1 : len(seg)-1]
	key, value, ok := strings.Cut(inner, "=")
	key = strings.TrimSpace(key)
	value = unquote(strings.TrimSpace(value))
	if !ok || key == "" || value == "" {
		return Step{}, fmt.Errorf("segment %q: selector must be [key=value]", seg)
	}
	return Step{Kind: Selector, Name: name, Key: key, Value: value}, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// String returns the path as it was given to Parse.
func (p Path) String() string { return p.raw }

// Steps returns a copy of the parsed steps.
func (p Path) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Root returns the name of the first segment ("theme", "layout", ...).
func (p Path) Root() string {
	if len(p.steps) == 0 {
		return ""
	}
	return p.steps[0].Name
}

// ComponentID returns the id named by the first components[id=X] selector.
func (p Path) ComponentID() (string, bool) {
	for _, s := range p.steps {
		if s.Kind == Selector && s.Name == "components" && s.Key == "id" {
			return s.Value, true
		}
	}
	return "", false
}

// Is reports whether p consists of exactly the given plain field names.
func (p Path) Is(names ...string) bool {
	if len(p.steps) != len(names) {
		return false
	}
	for i, s := range p.steps {
		if s.Kind != Field || s.Name != names[i] {
			return false
		}
	}
	return true
}
