package path

import "fmt"

// Set writes value at p inside root, creating intermediate objects for plain
// field segments. When a selector matches no element the write is dropped and
// Set returns false with a nil error; callers must not treat that as a
// failure.
func (p Path) Set(root map[string]any, value any) (bool, error) {
	if len(p.steps) == 0 {
		return false, ErrEmpty
	}
	container, last, ok, err := p.resolve(root)
	if err != nil || !ok {
		return false, err
	}
	switch last.Kind {
	case Field:
		container[last.Name] = value
		return true, nil
	default:
		arr, idx, err := selectIn(container, last)
		if err != nil || idx < 0 {
			return false, err
		}
		arr[idx] = value
		return true, nil
	}
}

// resolve walks every step but the last and returns the object that holds
// the final key.
func (p Path) resolve(root map[string]any) (map[string]any, Step, bool, error) {
	cur := root
	for i, step := range p.steps[:len(p.steps)-1] {
		switch step.Kind {
		case Field:
			next, exists := cur[step.Name]
			if !exists || next == nil {
				m := map[string]any{}
				cur[step.Name] = m
				cur = m
				continue
			}
			m, ok := next.(map[string]any)
			if !ok {
				return nil, Step{}, false, fmt.Errorf("path %q: segment %d (%s) is not an object", p.raw, i, step.Name)
			}
			cur = m
		case Selector:
			arr, idx, err := selectIn(cur, step)
			if err != nil {
				return nil, Step{}, false, err
			}
			if idx < 0 {
				return nil, Step{}, false, nil
			}
			m, ok := arr[idx].(map[string]any)
			if !ok {
				return nil, Step{}, false, fmt.Errorf("path %q: %s[%s=%s] is not an object", p.raw, step.Name, step.Key, step.Value)
			}
			cur = m
		}
	}
	return cur, p.steps[len(p.steps)-1], true, nil
}

// selectIn finds the element of container[step.Name] whose step.Key equals
// step.Value. A missing array is a miss (-1), not an error.
func selectIn(container map[string]any, step Step) ([]any, int, error) {
	raw, exists := container[step.Name]
	if !exists || raw == nil {
		return nil, -1, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, -1, fmt.Errorf("selector %s[%s=%s]: %s is not an array", step.Name, step.Key, step.Value, step.Name)
	}
	for i, elem := range arr {
		m, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		if v, ok := m[step.Key]; ok && fmt.Sprint(v) == step.Value {
			return arr, i, nil
		}
	}
	return arr, -1, nil
}
