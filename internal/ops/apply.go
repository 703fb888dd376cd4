package ops

import (
	"fmt"

	"dashstudio/internal/schema"
)

// Result is the outcome of applying a batch. An empty Warnings slice means
// every operation landed; a non-empty one signals partial application, not an
// error.
type Result struct {
	Schema   schema.DesignSchema `json:"schema"`
	Warnings []string            `json:"warnings"`
	Applied  int                 `json:"applied"`
}

// Apply folds list over a deep copy of s in order. Each operation runs inside
// its own failure boundary: skips, errors and panics become warnings and the
// schema is left as it was before that operation. Apply never mutates s.
func Apply(s schema.DesignSchema, list []Operation) Result {
	res := Result{Schema: s.Clone(), Warnings: []string{}}
	for i, op := range list {
		next, changed, err := applyIsolated(res.Schema, op)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("operation %d (%s): %v", i+1, op.Op, err))
			continue
		}
		if changed {
			res.Schema = next
			res.Applied++
		}
	}
	return res
}

func applyIsolated(s schema.DesignSchema, op Operation) (out schema.DesignSchema, changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, changed, err = s, false, fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	work := s.Clone()
	changed, err = applyOne(&work, op)
	if err != nil || !changed {
		return s, false, err
	}
	return work, true, nil
}
