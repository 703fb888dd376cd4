package validate

import (
	"fmt"

	"dashstudio/internal/ops"
	"dashstudio/internal/schema"
)

// References checks that every id-bearing operation (remove, move, replace,
// reorder) names a component that exists in s or is added by an
// add_component anywhere in the batch. set_style and update paths with a
// component selector are not checked; they degrade to no-ops on a miss.
func References(s schema.DesignSchema, list []ops.Operation) error {
	known := make(map[string]bool, len(s.Components)+len(list))
	for _, c := range s.Components {
		known[c.ID] = true
	}
	for _, op := range list {
		if op.Op == ops.KindAddComponent && op.Component != nil {
			known[op.Component.ID] = true
		}
	}

	var r report
	for i, op := range list {
		if !op.Op.ReferencesComponent() {
			continue
		}
		if !known[op.ID] {
			r.add(fmt.Sprintf("operations[%d].id", i), "%s references unknown component %q", op.Op, op.ID)
		}
	}
	return r.err(ErrReference)
}
