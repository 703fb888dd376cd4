package validate

import (
	"fmt"
	"math"
	"regexp"

	"github.com/goccy/go-json"

	"dashstudio/internal/ops"
	"dashstudio/internal/path"
	"dashstudio/internal/schema"
)

// MaxOperations bounds the size of one batch.
const MaxOperations = 50

const maxIDLength = 64

// fontNameRe accepts CSS font-family lists such as
// "Inter, system-ui, sans-serif" or "'Open Sans', sans-serif" and nothing
// that could close a declaration or pull in a url().
var fontNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _\-'",.]{0,199}$`)

// FontName reports whether name is an acceptable font-family value.
func FontName(name string) bool {
	return fontNameRe.MatchString(name)
}

// Schema checks s against the shape contract. It returns nil or an *Error
// wrapping ErrStructural.
func Schema(s schema.DesignSchema) error {
	var r report

	th := s.Theme
	if th.Mode != schema.ModeLight && th.Mode != schema.ModeDark {
		r.add("theme.mode", "must be %q or %q, got %q", schema.ModeLight, schema.ModeDark, th.Mode)
	}
	if th.PrimaryColor == "" {
		r.add("theme.primaryColor", "is required")
	}
	if th.FontSize == "" {
		r.add("theme.fontSize", "is required")
	}
	if th.FontFamily == "" {
		r.add("theme.fontFamily", "is required")
	} else if !FontName(th.FontFamily) {
		r.add("theme.fontFamily", "%q is not a valid font name", th.FontFamily)
	}
	if th.HeadingFontFamily != "" && !FontName(th.HeadingFontFamily) {
		r.add("theme.headingFontFamily", "%q is not a valid font name", th.HeadingFontFamily)
	}

	if s.Layout.Columns < schema.MinColumns || s.Layout.Columns > schema.MaxColumns {
		r.add("layout.columns", "must be between %d and %d, got %d", schema.MinColumns, schema.MaxColumns, s.Layout.Columns)
	}
	if s.Layout.Gap < 0 || math.IsNaN(s.Layout.Gap) || math.IsInf(s.Layout.Gap, 0) {
		r.add("layout.gap", "must be a non-negative number, got %v", s.Layout.Gap)
	}

	if n := len(s.Components); n > schema.MaxComponents {
		r.add("components", "at most %d components allowed, got %d", schema.MaxComponents, n)
	}
	seen := make(map[string]int, len(s.Components))
	for i, c := range s.Components {
		field := fmt.Sprintf("components[%d]", i)
		checkComponent(&r, field, c)
		if prev, dup := seen[c.ID]; dup && c.ID != "" {
			r.add(field+".id", "duplicate id %q (also at components[%d])", c.ID, prev)
		}
		seen[c.ID] = i
	}

	if f := s.Filters; f != nil {
		if f.SortOrder != "" && f.SortOrder != "asc" && f.SortOrder != "desc" {
			r.add("filters.sortOrder", "must be \"asc\" or \"desc\", got %q", f.SortOrder)
		}
		if f.Limit != nil && *f.Limit < 0 {
			r.add("filters.limit", "must be non-negative, got %d", *f.Limit)
		}
	}
	return r.err(ErrStructural)
}

// Component checks a single component against the component rules.
func Component(c schema.Component) error {
	var r report
	checkComponent(&r, "component", c)
	return r.err(ErrStructural)
}

func checkComponent(r *report, field string, c schema.Component) {
	switch {
	case c.ID == "":
		r.add(field+".id", "is required")
	case len(c.ID) > maxIDLength:
		r.add(field+".id", "longer than %d characters", maxIDLength)
	}
	if !c.Type.Valid() {
		r.add(field+".type", "unknown component type %q", c.Type)
	}
	if c.Type == schema.TypeImage {
		src, ok := c.Props["src"].(string)
		if !ok || src == "" {
			r.add(field+".props.src", "image components require a non-empty string src")
		}
	}
	if v, ok := c.Style["fontFamily"]; ok {
		name, isString := v.(string)
		if !isString || !FontName(name) {
			r.add(field+".style.fontFamily", "%v is not a valid font name", v)
		}
	}
	if p := c.Position; p != nil {
		if p.X < 0 || p.Y < 0 {
			r.add(field+".position", "x and y must be non-negative, got %d,%d", p.X, p.Y)
		}
		if p.Width < 0 || p.Height < 0 {
			r.add(field+".position", "width and height must be non-negative, got %dx%d", p.Width, p.Height)
		}
	}
}

// Operations checks loosely-typed candidate operations against the seven
// operation shapes and converts them. Unknown extra keys are ignored. It
// returns nil operations and an *Error wrapping ErrStructural on any problem.
func Operations(raw []map[string]any) ([]ops.Operation, error) {
	var r report
	if len(raw) > MaxOperations {
		r.add("operations", "at most %d operations per batch, got %d", MaxOperations, len(raw))
		return nil, r.err(ErrStructural)
	}
	out := make([]ops.Operation, 0, len(raw))
	for i, item := range raw {
		field := fmt.Sprintf("operations[%d]", i)
		if item == nil {
			r.add(field, "must be an object")
			continue
		}
		op, ok := decodeOperation(&r, field, item)
		if ok {
			out = append(out, op)
		}
	}
	if err := r.err(ErrStructural); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeOperation(r *report, field string, item map[string]any) (ops.Operation, bool) {
	before := len(r.problems)
	tag, ok := item["op"].(string)
	if !ok {
		r.add(field+".op", "must be a string naming one of %v", ops.Kinds())
		return ops.Operation{}, false
	}
	kind := ops.Kind(tag)
	if !kind.Valid() {
		r.add(field+".op", "unknown operation %q", tag)
		return ops.Operation{}, false
	}
	op := ops.Operation{Op: kind}

	switch kind {
	case ops.KindSetStyle, ops.KindUpdate:
		op.Path = requireString(r, field+".path", item["path"])
		if op.Path != "" {
			if _, err := path.Parse(op.Path); err != nil {
				r.add(field+".path", "%v", err)
			}
		}
		v, present := item["value"]
		if !present {
			r.add(field+".value", "is required")
		}
		op.Value = schema.CloneValue(v)

	case ops.KindAddComponent:
		c, ok := decodeComponent(r, field+".component", item["component"], "")
		if ok {
			op.Component = &c
		}

	case ops.KindRemoveComponent:
		op.ID = requireString(r, field+".id", item["id"])

	case ops.KindMoveComponent:
		op.ID = requireString(r, field+".id", item["id"])
		op.X = requireInt(r, field+".x", item["x"])
		op.Y = requireInt(r, field+".y", item["y"])
		op.Width = optionalInt(r, field+".width", item["width"])
		op.Height = optionalInt(r, field+".height", item["height"])

	case ops.KindReplaceComponent:
		op.ID = requireString(r, field+".id", item["id"])
		c, ok := decodeComponent(r, field+".component", item["component"], op.ID)
		if ok {
			op.Component = &c
		}

	case ops.KindReorderComponent:
		op.ID = requireString(r, field+".id", item["id"])
		op.NewIndex = requireInt(r, field+".newIndex", item["newIndex"])
	}
	return op, len(r.problems) == before
}

// decodeComponent converts an embedded component payload and checks it with
// the component rules. fallbackID fills a missing id (replace_component).
func decodeComponent(r *report, field string, v any, fallbackID string) (schema.Component, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		r.add(field, "must be an object")
		return schema.Component{}, false
	}
	before := len(r.problems)
	var c schema.Component

	switch id := m["id"].(type) {
	case string:
		c.ID = id
	case nil:
		c.ID = fallbackID
	default:
		r.add(field+".id", "must be a string")
	}
	if c.ID == "" && fallbackID != "" {
		c.ID = fallbackID
	}
	typ, ok := m["type"].(string)
	if !ok {
		r.add(field+".type", "must be a string")
	}
	c.Type = schema.ComponentType(typ)
	c.Props = optionalObject(r, field+".props", m["props"])
	c.Style = optionalObject(r, field+".style", m["style"])

	if raw, present := m["position"]; present && raw != nil {
		pm, ok := raw.(map[string]any)
		if !ok {
			r.add(field+".position", "must be an object")
		} else {
			p := &schema.Position{
				X: requireInt(r, field+".position.x", pm["x"]),
				Y: requireInt(r, field+".position.y", pm["y"]),
			}
			if w := optionalInt(r, field+".position.width", pm["width"]); w != nil {
				p.Width = *w
			}
			if h := optionalInt(r, field+".position.height", pm["height"]); h != nil {
				p.Height = *h
			}
			c.Position = p
		}
	}
	if len(r.problems) == before {
		checkComponent(r, field, c)
	}
	return c, len(r.problems) == before
}

func requireString(r *report, field string, v any) string {
	s, ok := v.(string)
	if !ok || s == "" {
		r.add(field, "must be a non-empty string")
		return ""
	}
	return s
}

func requireInt(r *report, field string, v any) int {
	if v == nil {
		r.add(field, "is required")
		return 0
	}
	n, ok := asInt(v)
	if !ok {
		r.add(field, "must be an integer, got %v", v)
	}
	return n
}

func optionalInt(r *report, field string, v any) *int {
	if v == nil {
		return nil
	}
	n, ok := asInt(v)
	if !ok {
		r.add(field, "must be an integer, got %v", v)
		return nil
	}
	return &n
}

func optionalObject(r *report, field string, v any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		r.add(field, "must be an object")
		return nil
	}
	out, _ := schema.CloneValue(m).(map[string]any)
	return out
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.Abs(t) > math.MaxInt32 {
			return 0, false
		}
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
