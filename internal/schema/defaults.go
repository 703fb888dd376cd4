package schema

import (
	"fmt"
	"sort"
	"strings"
)

const (
	defaultPrimaryColor = "#3b82f6"
	defaultFontSize     = Dimension("14px")
	defaultFontFamily   = "Inter, system-ui, sans-serif"
	defaultDataSource   = "/api/data"
)

// Default returns the populated light-mode dashboard new users start from.
func Default() DesignSchema {
	limit := 100
	return DesignSchema{
		Theme: Theme{
			Mode:            ModeLight,
			PrimaryColor:    defaultPrimaryColor,
			FontSize:        defaultFontSize,
			FontFamily:      defaultFontFamily,
			BackgroundColor: "#f8fafc",
			TextColor:       "#0f172a",
			CardBackground:  "#ffffff",
			BorderColor:     "#e2e8f0",
			BorderRadius:    "8px",
		},
		Layout: Layout{Columns: 2, Gap: 16},
		Components: []Component{
			{
				ID:   "kpi1",
				Type: TypeKPI,
				Props: map[string]any{
					"dataSource":  defaultDataSource,
					"calculation": "count",
					"label":       "Total Items",
				},
				Style: map[string]any{},
			},
			{
				ID:   "bar1",
				Type: TypeBarChart,
				Props: map[string]any{
					"dataSource":  defaultDataSource,
					"xField":      "category",
					"yField":      "value",
					"aggregation": "sum",
					"title":       "Value by Category",
				},
				Style: map[string]any{},
			},
			{
				ID:   "table1",
				Type: TypeTable,
				Props: map[string]any{
					"dataSource": defaultDataSource,
					"title":      "All Items",
				},
				Style: map[string]any{},
			},
		},
		Filters: &Filters{SortOrder: "desc", Limit: &limit},
	}
}

// DefaultDark is Default with a dark theme.
func DefaultDark() DesignSchema {
	s := Default()
	s.Theme = darkTheme()
	return s
}

// Blank returns a light-mode schema with no components.
func Blank() DesignSchema {
	return DesignSchema{
		Theme: Theme{
			Mode:         ModeLight,
			PrimaryColor: defaultPrimaryColor,
			FontSize:     defaultFontSize,
			FontFamily:   defaultFontFamily,
		},
		Layout:     Layout{Columns: 2, Gap: 16},
		Components: []Component{},
	}
}

// BlankDark returns a dark-mode schema with no components.
func BlankDark() DesignSchema {
	s := Blank()
	s.Theme = darkTheme()
	return s
}

func darkTheme() Theme {
	return Theme{
		Mode:            ModeDark,
		PrimaryColor:    "#60a5fa",
		FontSize:        defaultFontSize,
		FontFamily:      defaultFontFamily,
		BackgroundColor: "#0f172a",
		TextColor:       "#e2e8f0",
		CardBackground:  "#1e293b",
		BorderColor:     "#334155",
		BorderRadius:    "8px",
	}
}

var presets = map[string]func() DesignSchema{
	"default":      Default,
	"default-dark": DefaultDark,
	"blank":        Blank,
	"blank-dark":   BlankDark,
}

// Preset returns the named starting schema.
func Preset(name string) (DesignSchema, error) {
	f, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return DesignSchema{}, fmt.Errorf("unknown preset %q (want one of %s)", name, strings.Join(PresetNames(), ", "))
	}
	return f(), nil
}

// PresetNames lists the names accepted by Preset.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
