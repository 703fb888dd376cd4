package schema

// Clone returns a deep copy of s. Nested maps and slices inside props and
// style are copied as well, so mutating the clone never reaches s.
func (s DesignSchema) Clone() DesignSchema {
	out := s
	if s.Components != nil {
		out.Components = make([]Component, len(s.Components))
		for i, c := range s.Components {
			out.Components[i] = c.Clone()
		}
	}
	if s.Filters != nil {
		f := *s.Filters
		if s.Filters.Limit != nil {
			limit := *s.Filters.Limit
			f.Limit = &limit
		}
		out.Filters = &f
	}
	return out
}

// Clone returns a deep copy of c.
func (c Component) Clone() Component {
	out := c
	out.Props = cloneMap(c.Props)
	out.Style = cloneMap(c.Style)
	if c.Position != nil {
		p := *c.Position
		out.Position = &p
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a JSON-like value (maps, slices and scalars).
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = cloneMap(e)
		}
		return out
	default:
		return v
	}
}
