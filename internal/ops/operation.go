// Package ops defines the closed set of dashboard edit operations and folds
// operation batches over a schema snapshot.
package ops

import (
	"fmt"

	"github.com/goccy/go-json"

	"dashstudio/internal/schema"
)

// Kind tags an Operation.
type Kind string

const (
	KindSetStyle         Kind = "set_style"         // write a style or theme value at a path
	KindUpdate           Kind = "update"            // write a layout, filter or prop value at a path
	KindAddComponent     Kind = "add_component"     // append a component
	KindRemoveComponent  Kind = "remove_component"  // delete a component by id
	KindMoveComponent    Kind = "move_component"    // set a component's absolute grid position
	KindReplaceComponent Kind = "replace_component" // swap a component for a new value in place
	KindReorderComponent Kind = "reorder_component" // move a component to a new sequence index
)

var kinds = []Kind{
	KindSetStyle, KindUpdate, KindAddComponent, KindRemoveComponent,
	KindMoveComponent, KindReplaceComponent, KindReorderComponent,
}

// Kinds returns every operation kind.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ReferencesComponent reports whether operations of this kind name a
// component by id and require it to exist.
func (k Kind) ReferencesComponent() bool {
	switch k {
	case KindRemoveComponent, KindMoveComponent, KindReplaceComponent, KindReorderComponent:
		return true
	}
	return false
}

// Operation is a single proposed mutation. Which fields are meaningful
// depends on Op.
type Operation struct {
	Op        Kind              // all
	Path      string            // set_style, update
	Value     any               // set_style, update
	Component *schema.Component // add_component, replace_component
	ID        string            // remove, move, replace, reorder
	X         int               // move_component
	Y         int               // move_component
	Width     *int              // move_component, optional
	Height    *int              // move_component, optional
	NewIndex  int               // reorder_component
}

// MarshalJSON emits exactly the fields of the operation's shape, so zero
// coordinates and null values survive the trip.
func (o Operation) MarshalJSON() ([]byte, error) {
	m := map[string]any{"op": o.Op}
	switch o.Op {
	case KindSetStyle, KindUpdate:
		m["path"] = o.Path
		m["value"] = o.Value
	case KindAddComponent:
		m["component"] = o.Component
	case KindRemoveComponent:
		m["id"] = o.ID
	case KindMoveComponent:
		m["id"], m["x"], m["y"] = o.ID, o.X, o.Y
		if o.Width != nil {
			m["width"] = *o.Width
		}
		if o.Height != nil {
			m["height"] = *o.Height
		}
	case KindReplaceComponent:
		m["id"] = o.ID
		m["component"] = o.Component
	case KindReorderComponent:
		m["id"] = o.ID
		m["newIndex"] = o.NewIndex
	}
	return json.Marshal(m)
}

// SetStyle builds a set_style operation.
func SetStyle(path string, value any) Operation {
	return Operation{Op: KindSetStyle, Path: path, Value: value}
}

// Update builds an update operation.
func Update(path string, value any) Operation {
	return Operation{Op: KindUpdate, Path: path, Value: value}
}

// Add builds an add_component operation.
func Add(c schema.Component) Operation {
	return Operation{Op: KindAddComponent, Component: &c}
}

// Remove builds a remove_component operation.
func Remove(id string) Operation {
	return Operation{Op: KindRemoveComponent, ID: id}
}

// Move builds a move_component operation that keeps the current size.
func Move(id string, x, y int) Operation {
	return Operation{Op: KindMoveComponent, ID: id, X: x, Y: y}
}

// MoveResize builds a move_component operation with an explicit size.
func MoveResize(id string, x, y, width, height int) Operation {
	return Operation{Op: KindMoveComponent, ID: id, X: x, Y: y, Width: &width, Height: &height}
}

// Replace builds a replace_component operation.
func Replace(id string, c schema.Component) Operation {
	return Operation{Op: KindReplaceComponent, ID: id, Component: &c}
}

// Reorder builds a reorder_component operation.
func Reorder(id string, newIndex int) Operation {
	return Operation{Op: KindReorderComponent, ID: id, NewIndex: newIndex}
}

// TargetID returns the component id the operation acts on, if any. For
// add_component it is the id of the component being introduced.
func (o Operation) TargetID() string {
	switch o.Op {
	case KindAddComponent:
		if o.Component != nil {
			return o.Component.ID
		}
		return ""
	default:
		return o.ID
	}
}

// String describes the operation for warnings and logs.
func (o Operation) String() string {
	switch o.Op {
	case KindSetStyle, KindUpdate:
		return fmt.Sprintf("%s %s", o.Op, o.Path)
	case KindMoveComponent:
		return fmt.Sprintf("%s %s to %d,%d", o.Op, o.ID, o.X, o.Y)
	case KindReorderComponent:
		return fmt.Sprintf("%s %s to %d", o.Op, o.ID, o.NewIndex)
	default:
		return fmt.Sprintf("%s %s", o.Op, o.TargetID())
	}
}
