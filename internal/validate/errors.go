// Package validate holds the structural and reference checks that run around
// operation application. Both reject a whole batch; neither mutates anything.
package validate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStructural marks schemas or operations that do not match the closed
	// shape and type contract.
	ErrStructural = errors.New("structural validation failed")
	// ErrReference marks operations naming a component that neither exists
	// nor is added earlier in the batch.
	ErrReference = errors.New("reference validation failed")
)

// Problem is one validation finding.
type Problem struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (p Problem) String() string {
	if p.Field == "" {
		return p.Reason
	}
	return p.Field + ": " + p.Reason
}

// Error reports every problem found by one validation pass.
type Error struct {
	Kind     error     `json:"-"`
	Problems []Problem `json:"problems"`
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return e.Kind }

// report collects problems for one pass.
type report struct {
	problems []Problem
}

func (r *report) add(field, format string, args ...any) {
	r.problems = append(r.problems, Problem{Field: field, Reason: fmt.Sprintf(format, args...)})
}

func (r *report) err(kind error) error {
	if len(r.problems) == 0 {
		return nil
	}
	return &Error{Kind: kind, Problems: r.problems}
}
