package validate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashstudio/internal/ops"
	"dashstudio/internal/schema"
)

func problems(t *testing.T, err error, kind error) []Problem {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind))
	var verr *Error
	require.True(t, errors.As(err, &verr))
	return verr.Problems
}

func TestSchema_Presets(t *testing.T) {
	for _, name := range schema.PresetNames() {
		s, err := schema.Preset(name)
		require.NoError(t, err, name)
		assert.NoError(t, Schema(s), name)
	}
}

func TestSchema_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *schema.DesignSchema)
		field  string
	}{
		{"bad mode", func(s *schema.DesignSchema) { s.Theme.Mode = "sepia" }, "theme.mode"},
		{"missing primary", func(s *schema.DesignSchema) { s.Theme.PrimaryColor = "" }, "theme.primaryColor"},
		{"missing font size", func(s *schema.DesignSchema) { s.Theme.FontSize = "" }, "theme.fontSize"},
		{"font injection", func(s *schema.DesignSchema) { s.Theme.FontFamily = "Inter; } body { display:none" }, "theme.fontFamily"},
		{"font url", func(s *schema.DesignSchema) { s.Theme.HeadingFontFamily = "url(http://x)" }, "theme.headingFontFamily"},
		{"columns high", func(s *schema.DesignSchema) { s.Layout.Columns = 5 }, "layout.columns"},
		{"columns low", func(s *schema.DesignSchema) { s.Layout.Columns = 0 }, "layout.columns"},
		{"negative gap", func(s *schema.DesignSchema) { s.Layout.Gap = -1 }, "layout.gap"},
		{"unknown type", func(s *schema.DesignSchema) { s.Components[0].Type = "gauge" }, "components[0].type"},
		{"empty id", func(s *schema.DesignSchema) { s.Components[1].ID = "" }, "components[1].id"},
		{"duplicate id", func(s *schema.DesignSchema) { s.Components[2].ID = s.Components[0].ID }, "components[2].id"},
		{"sort order", func(s *schema.DesignSchema) { s.Filters.SortOrder = "sideways" }, "filters.sortOrder"},
		{"component font", func(s *schema.DesignSchema) { s.Components[0].Style["fontFamily"] = "a{b}" }, "components[0].style.fontFamily"},
		{"image without src", func(s *schema.DesignSchema) {
			s.Components = append(s.Components, schema.Component{ID: "img", Type: schema.TypeImage, Props: map[string]any{}})
		}, "components[3].props.src"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := schema.Default()
			tt.mutate(&s)
			ps := problems(t, Schema(s), ErrStructural)
			var fields []string
			for _, p := range ps {
				fields = append(fields, p.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestSchema_ComponentCap(t *testing.T) {
	s := schema.Blank()
	for i := 0; i <= schema.MaxComponents; i++ {
		s.Components = append(s.Components, schema.Component{ID: fmt.Sprintf("c%d", i), Type: schema.TypeText})
	}
	ps := problems(t, Schema(s), ErrStructural)
	assert.Equal(t, "components", ps[0].Field)

	s.Components = s.Components[:schema.MaxComponents]
	assert.NoError(t, Schema(s))
}

func TestFontName(t *testing.T) {
	for _, ok := range []string{"Inter", "Inter, system-ui, sans-serif", "'Open Sans', sans-serif", `"Fira Code", monospace`} {
		assert.True(t, FontName(ok), ok)
	}
	for _, bad := range []string{"", " Inter", "Inter;", "x{y}", "url(a)", "Inter\nArial"} {
		assert.False(t, FontName(bad), bad)
	}
}

func decodeRaw(t *testing.T, text string) []map[string]any {
	t.Helper()
	var raw []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &raw))
	return raw
}

func TestOperations_AllShapes(t *testing.T) {
	raw := decodeRaw(t, `[
		{"op":"set_style","path":"theme/primaryColor","value":"#ff0000"},
		{"op":"update","path":"layout/columns","value":3,"reason":"denser"},
		{"op":"add_component","component":{"id":"kpi2","type":"kpi","props":{"label":"Total"}}},
		{"op":"remove_component","id":"table1"},
		{"op":"move_component","id":"kpi1","x":1,"y":0,"width":2},
		{"op":"replace_component","id":"bar1","component":{"type":"line_chart","props":{"dataSource":"/api/data"}}},
		{"op":"reorder_component","id":"kpi1","newIndex":0}
	]`)
	list, err := Operations(raw)
	require.NoError(t, err)
	require.Len(t, list, 7)

	assert.Equal(t, ops.SetStyle("theme/primaryColor", "#ff0000"), list[0])
	assert.Equal(t, 3.0, list[1].Value)
	assert.Equal(t, "kpi2", list[2].Component.ID)
	assert.NotNil(t, list[2].Component.Style)
	assert.Equal(t, ops.Remove("table1"), list[3])
	assert.Equal(t, 1, list[4].X)
	require.NotNil(t, list[4].Width)
	assert.Equal(t, 2, *list[4].Width)
	assert.Nil(t, list[4].Height)
	assert.Equal(t, "bar1", list[5].Component.ID, "replace payload inherits the target id")
	assert.Equal(t, ops.Reorder("kpi1", 0), list[6])

	assert.NoError(t, References(schema.Default(), list))
}

func TestOperations_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field string
	}{
		{"unknown op", `[{"op":"patch"}]`, "operations[0].op"},
		{"missing op", `[{"path":"theme/mode","value":"dark"}]`, "operations[0].op"},
		{"missing value", `[{"op":"update","path":"theme/mode"}]`, "operations[0].value"},
		{"malformed path", `[{"op":"update","path":"components[id=a","value":1}]`, "operations[0].path"},
		{"empty path", `[{"op":"set_style","path":"","value":1}]`, "operations[0].path"},
		{"id not string", `[{"op":"remove_component","id":7}]`, "operations[0].id"},
		{"fractional x", `[{"op":"move_component","id":"a","x":1.5,"y":0}]`, "operations[0].x"},
		{"missing y", `[{"op":"move_component","id":"a","x":1}]`, "operations[0].y"},
		{"string index", `[{"op":"reorder_component","id":"a","newIndex":"0"}]`, "operations[0].newIndex"},
		{"component not object", `[{"op":"add_component","component":"kpi"}]`, "operations[0].component"},
		{"component type", `[{"op":"add_component","component":{"id":"x","type":"gauge"}}]`, "operations[0].component.type"},
		{"component id", `[{"op":"add_component","component":{"type":"kpi"}}]`, "operations[0].component.id"},
		{"image src", `[{"op":"add_component","component":{"id":"i","type":"image","props":{}}}]`, "operations[0].component.props.src"},
		{"props array", `[{"op":"add_component","component":{"id":"k","type":"kpi","props":[]}}]`, "operations[0].component.props"},
		{"style font", `[{"op":"replace_component","id":"a","component":{"type":"text","style":{"fontFamily":"x;y"}}}]`, "operations[0].component.style.fontFamily"},
		{"second bad", `[{"op":"remove_component","id":"a"},{"op":"remove_component"}]`, "operations[1].id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := Operations(decodeRaw(t, tt.text))
			assert.Nil(t, list)
			ps := problems(t, err, ErrStructural)
			assert.Equal(t, tt.field, ps[0].Field)
		})
	}
}

func TestOperations_BatchLimit(t *testing.T) {
	raw := make([]map[string]any, MaxOperations+1)
	for i := range raw {
		raw[i] = map[string]any{"op": "remove_component", "id": "a"}
	}
	_, err := Operations(raw)
	assert.ErrorIs(t, err, ErrStructural)

	list, err := Operations(raw[:MaxOperations])
	require.NoError(t, err)
	assert.Len(t, list, MaxOperations)

	list, err = Operations(nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOperations_FactoriesRoundTrip(t *testing.T) {
	w, h := 2, 3
	list := []ops.Operation{
		ops.SetStyle("components[id=kpi1]/style/color", "#ff0000"),
		ops.Update("layout/gap", 24.0),
		ops.Add(schema.Component{ID: "n1", Type: schema.TypeText, Props: map[string]any{"text": "hi"}, Style: map[string]any{}}),
		ops.Remove("table1"),
		ops.Move("kpi1", 1, 1),
		ops.MoveResize("bar1", 0, 2, w, h),
		ops.Replace("table1", schema.Component{ID: "table1", Type: schema.TypeImage, Props: map[string]any{"src": "/a.png"}, Style: map[string]any{}}),
		ops.Reorder("kpi1", 2),
	}
	data, err := json.Marshal(list)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	back, err := Operations(raw)
	require.NoError(t, err)
	assert.Equal(t, list, back)
}

func TestReferences_DanglingIDRejected(t *testing.T) {
	list := []ops.Operation{
		ops.SetStyle("theme/primaryColor", "#000"),
		ops.Remove("ghost1"),
	}
	ps := problems(t, References(schema.Default(), list), ErrReference)
	require.Len(t, ps, 1)
	assert.Equal(t, "operations[1].id", ps[0].Field)
	assert.Contains(t, ps[0].Reason, `"ghost1"`)
}

func TestReferences_AddAnywhereInBatchCounts(t *testing.T) {
	s := schema.Blank()
	list := []ops.Operation{
		ops.Reorder("late", 0),
		ops.Add(schema.Component{ID: "late", Type: schema.TypeKPI}),
		ops.Move("late", 0, 0),
	}
	assert.NoError(t, References(s, list))
}

func TestReferences_SelectorsAreNotChecked(t *testing.T) {
	list := []ops.Operation{ops.SetStyle("components[id=ghost]/style/color", "red")}
	assert.NoError(t, References(schema.Blank(), list))
}
