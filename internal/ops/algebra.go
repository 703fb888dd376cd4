package ops

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/goccy/go-json"

	"dashstudio/internal/path"
	"dashstudio/internal/schema"
)

// SkipError marks a recoverable, policy-defined skip: the operation had no
// effect and the batch continues.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string { return e.Reason }

func skipf(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// IsSkip reports whether err is a policy skip rather than an unexpected
// failure.
func IsSkip(err error) bool {
	var s *SkipError
	return errors.As(err, &s)
}

// applyOne mutates s in place. It reports whether the schema changed. A nil
// error with changed == false is a silent no-op (selector miss).
func applyOne(s *schema.DesignSchema, op Operation) (bool, error) {
	switch op.Op {
	case KindSetStyle, KindUpdate:
		return setPath(s, op)
	case KindAddComponent:
		return addComponent(s, op)
	case KindRemoveComponent:
		return removeComponent(s, op)
	case KindMoveComponent:
		return moveComponent(s, op)
	case KindReplaceComponent:
		return replaceComponent(s, op)
	case KindReorderComponent:
		return reorderComponent(s, op)
	default:
		return false, fmt.Errorf("unknown operation %q", op.Op)
	}
}

func setPath(s *schema.DesignSchema, op Operation) (bool, error) {
	p, err := path.Parse(op.Path)
	if err != nil {
		return false, err
	}
	value := op.Value
	if rule, ok := numericRuleFor(p); ok {
		n, err := rule.coerce(value)
		if err != nil {
			return false, skipf("%s: %v", op.Path, err)
		}
		value = n
	}

	root := p.Root()
	doc, err := toDocument(*s, root)
	if err != nil {
		return false, skipf("%s: %v", op.Path, err)
	}
	applied, err := p.Set(doc, schema.CloneValue(value))
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}
	next := *s
	if err := fromDocument(&next, doc, root); err != nil {
		if errors.Is(err, errUnknownField) {
			return false, skipf("%s: %v", op.Path, err)
		}
		return false, fmt.Errorf("value does not fit %s: %w", op.Path, err)
	}
	if root == "theme" {
		backfillTheme(&next.Theme, s.Theme)
	}
	*s = next
	return true, nil
}

// backfillTheme re-asserts the required theme fields from prev when a write
// left them empty.
func backfillTheme(t *schema.Theme, prev schema.Theme) {
	if t.Mode == "" {
		t.Mode = prev.Mode
	}
	if t.PrimaryColor == "" {
		t.PrimaryColor = prev.PrimaryColor
	}
	if t.FontSize == "" {
		t.FontSize = prev.FontSize
	}
	if t.FontFamily == "" {
		t.FontFamily = prev.FontFamily
	}
}

var errUnknownField = errors.New("unknown field")

// toDocument exposes the single top-level section a path writes into as a
// generic tree. Component props and style maps are shared with s, not
// re-encoded, so untouched values keep their Go types. s must already be a
// private copy.
func toDocument(s schema.DesignSchema, root string) (map[string]any, error) {
	doc := map[string]any{}
	switch root {
	case "theme":
		return doc, structToDoc(doc, root, s.Theme)
	case "layout":
		return doc, structToDoc(doc, root, s.Layout)
	case "filters":
		if s.Filters == nil {
			return doc, nil
		}
		return doc, structToDoc(doc, root, *s.Filters)
	case "components":
		list := make([]any, len(s.Components))
		for i, c := range s.Components {
			c = normalize(c)
			m := map[string]any{
				"id":    c.ID,
				"type":  string(c.Type),
				"props": c.Props,
				"style": c.Style,
			}
			if c.Position != nil {
				m["position"] = map[string]any{
					"x": c.Position.X, "y": c.Position.Y,
					"width": c.Position.Width, "height": c.Position.Height,
				}
			}
			list[i] = m
		}
		doc[root] = list
		return doc, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownField, root)
	}
}

func structToDoc(doc map[string]any, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	doc[key] = m
	return nil
}

// fromDocument decodes the section named root back into s. Keys the schema
// does not declare fail with errUnknownField instead of being dropped.
func fromDocument(s *schema.DesignSchema, doc map[string]any, root string) error {
	switch root {
	case "theme":
		var t schema.Theme
		if err := decodeStrict(doc[root], &t); err != nil {
			return err
		}
		s.Theme = t
		return nil
	case "layout":
		var l schema.Layout
		if err := decodeStrict(doc[root], &l); err != nil {
			return err
		}
		s.Layout = l
		return nil
	case "filters":
		var f schema.Filters
		if err := decodeStrict(doc[root], &f); err != nil {
			return err
		}
		s.Filters = &f
		return nil
	case "components":
		list, ok := doc[root].([]any)
		if !ok {
			return fmt.Errorf("components must be an array, got %T", doc[root])
		}
		out := make([]schema.Component, len(list))
		for i, elem := range list {
			c, err := componentFromDoc(elem)
			if err != nil {
				return fmt.Errorf("components[%d]: %w", i, err)
			}
			out[i] = c
		}
		s.Components = out
		return nil
	default:
		return fmt.Errorf("%w %q", errUnknownField, root)
	}
}

func componentFromDoc(elem any) (schema.Component, error) {
	m, ok := elem.(map[string]any)
	if !ok {
		return schema.Component{}, fmt.Errorf("component must be an object, got %T", elem)
	}
	var c schema.Component
	for k, v := range m {
		var bad bool
		switch k {
		case "id":
			c.ID, bad = stringField(v)
		case "type":
			var t string
			t, bad = stringField(v)
			c.Type = schema.ComponentType(t)
		case "props":
			c.Props, bad = mapField(v)
		case "style":
			c.Style, bad = mapField(v)
		case "position":
			if v == nil {
				continue
			}
			var pos schema.Position
			if err := decodeStrict(v, &pos); err != nil {
				return c, fmt.Errorf("position: %w", err)
			}
			c.Position = &pos
		default:
			return c, fmt.Errorf("%w %q", errUnknownField, k)
		}
		if bad {
			return c, fmt.Errorf("%s has wrong type %T", k, v)
		}
	}
	return normalize(c), nil
}

func stringField(v any) (string, bool) {
	s, ok := v.(string)
	return s, !ok
}

func mapField(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, !ok
}

// decodeStrict decodes v into out, rejecting keys out does not declare.
func decodeStrict(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		// A lenient decode that succeeds means the only problem was an
		// undeclared key.
		if json.Unmarshal(b, out) == nil {
			return fmt.Errorf("%w: %v", errUnknownField, err)
		}
		return err
	}
	return nil
}

// numericRule describes how a path's value is coerced to a number.
type numericRule struct {
	min, max float64
	integral bool
}

// numericRuleFor returns the coercion rule for paths whose string values are
// read as numbers.
func numericRuleFor(p path.Path) (numericRule, bool) {
	switch {
	case p.Is("layout", "columns"):
		return numericRule{min: schema.MinColumns, max: schema.MaxColumns, integral: true}, true
	case p.Is("filters", "limit"):
		return numericRule{min: 0, max: math.MaxInt32, integral: true}, true
	case p.Is("layout", "gap"):
		return numericRule{min: 0, max: math.MaxFloat64}, true
	}
	return numericRule{}, false
}

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// coerce extracts the first number from v and clamps it. Integral rules
// round and return an int; the others return the float unchanged.
func (r numericRule) coerce(v any) (any, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("value %q is not numeric", t)
		}
		f = n
	case string:
		m := numberRe.FindString(t)
		if m == "" {
			return nil, fmt.Errorf("value %q is not numeric", t)
		}
		n, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not numeric", t)
		}
		f = n
	default:
		return nil, fmt.Errorf("value of type %T is not numeric", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("value %v is not finite", v)
	}
	f = math.Max(math.Min(f, r.max), r.min)
	if r.integral {
		return int(math.Round(f)), nil
	}
	return f, nil
}

func addComponent(s *schema.DesignSchema, op Operation) (bool, error) {
	if op.Component == nil {
		return false, errors.New("missing component")
	}
	if len(s.Components) >= schema.MaxComponents {
		return false, skipf("maximum components (%d) reached; %q not added", schema.MaxComponents, op.Component.ID)
	}
	if s.Index(op.Component.ID) >= 0 {
		return false, skipf("duplicate component id %q; not added", op.Component.ID)
	}
	s.Components = append(s.Components, normalize(op.Component.Clone()))
	return true, nil
}

func removeComponent(s *schema.DesignSchema, op Operation) (bool, error) {
	i := s.Index(op.ID)
	if i < 0 {
		return false, skipf("component %q not found", op.ID)
	}
	s.Components = append(s.Components[:i], s.Components[i+1:]...)
	return true, nil
}

func moveComponent(s *schema.DesignSchema, op Operation) (bool, error) {
	c := s.Component(op.ID)
	if c == nil {
		return false, skipf("component %q not found", op.ID)
	}
	width, height := 1, 1
	if c.Position != nil {
		if c.Position.Width > 0 {
			width = c.Position.Width
		}
		if c.Position.Height > 0 {
			height = c.Position.Height
		}
	}
	if op.Width != nil {
		width = *op.Width
	}
	if op.Height != nil {
		height = *op.Height
	}
	c.Position = &schema.Position{X: op.X, Y: op.Y, Width: width, Height: height}
	return true, nil
}

func replaceComponent(s *schema.DesignSchema, op Operation) (bool, error) {
	if op.Component == nil {
		return false, errors.New("missing component")
	}
	i := s.Index(op.ID)
	if i < 0 {
		return false, skipf("component %q not found", op.ID)
	}
	next := normalize(op.Component.Clone())
	if next.ID == "" {
		next.ID = op.ID
	}
	if next.ID != op.ID && s.Index(next.ID) >= 0 {
		return false, skipf("duplicate component id %q; %q not replaced", next.ID, op.ID)
	}
	s.Components[i] = next
	return true, nil
}

func reorderComponent(s *schema.DesignSchema, op Operation) (bool, error) {
	i := s.Index(op.ID)
	if i < 0 {
		return false, skipf("component %q not found", op.ID)
	}
	n := len(s.Components)
	if op.NewIndex < 0 || op.NewIndex >= n {
		return false, skipf("index %d out of range [0,%d) for %q", op.NewIndex, n, op.ID)
	}
	c := s.Components[i]
	rest := append(s.Components[:i:i], s.Components[i+1:]...)
	out := make([]schema.Component, 0, n)
	out = append(out, rest[:op.NewIndex]...)
	out = append(out, c)
	out = append(out, rest[op.NewIndex:]...)
	s.Components = out
	return true, nil
}

func normalize(c schema.Component) schema.Component {
	if c.Props == nil {
		c.Props = map[string]any{}
	}
	if c.Style == nil {
		c.Style = map[string]any{}
	}
	return c
}
