package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// DesignSchema is the root dashboard document for one user. It is the unit of
// persistence and the value every operation batch is applied to.
type DesignSchema struct {
	Theme      Theme       `json:"theme"`
	Layout     Layout      `json:"layout"`
	Components []Component `json:"components"`
	Filters    *Filters    `json:"filters,omitempty"`
}

// Theme holds global presentation state. Mode, PrimaryColor, FontSize and
// FontFamily are required; everything else is an optional override.
type Theme struct {
	Mode         Mode      `json:"mode"`
	PrimaryColor string    `json:"primaryColor"`
	FontSize     Dimension `json:"fontSize"`
	FontFamily   string    `json:"fontFamily"`

	SecondaryColor    string    `json:"secondaryColor,omitempty"`
	AccentColor       string    `json:"accentColor,omitempty"`
	BackgroundColor   string    `json:"backgroundColor,omitempty"`
	TextColor         string    `json:"textColor,omitempty"`
	BorderColor       string    `json:"borderColor,omitempty"`
	CardBackground    string    `json:"cardBackground,omitempty"`
	BorderRadius      Dimension `json:"borderRadius,omitempty"`
	Spacing           Dimension `json:"spacing,omitempty"`
	Transition        string    `json:"transition,omitempty"`
	Shadow            string    `json:"shadow,omitempty"`
	HeadingFontFamily string    `json:"headingFontFamily,omitempty"`
}

// Mode is the theme color mode.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// Layout is the grid arrangement of the dashboard.
type Layout struct {
	Columns   int       `json:"columns"`
	Gap       float64   `json:"gap"`
	Padding   Dimension `json:"padding,omitempty"`
	Alignment string    `json:"alignment,omitempty"`
	MaxWidth  Dimension `json:"maxWidth,omitempty"`
}

// Filters is the global sort/limit/search state applied to tabular and chart
// data views.
type Filters struct {
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"`
	Limit     *int   `json:"limit,omitempty"`
	Search    string `json:"search,omitempty"`
}

// Component is a single dashboard widget.
type Component struct {
	ID       string         `json:"id"`
	Type     ComponentType  `json:"type"`
	Props    map[string]any `json:"props"`
	Style    map[string]any `json:"style"`
	Position *Position      `json:"position,omitempty"`
}

// Position is an explicit grid placement. A nil Position lets auto-flow
// place the component.
type Position struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ComponentType is the closed set of widget kinds the renderer understands.
type ComponentType string

const (
	TypeTable         ComponentType = "table"
	TypeChart         ComponentType = "chart"
	TypePieChart      ComponentType = "pie_chart"
	TypeBarChart      ComponentType = "bar_chart"
	TypeLineChart     ComponentType = "line_chart"
	TypeAreaChart     ComponentType = "area_chart"
	TypeScatterChart  ComponentType = "scatter_chart"
	TypeRadarChart    ComponentType = "radar_chart"
	TypeHistogram     ComponentType = "histogram"
	TypeComposedChart ComponentType = "composed_chart"
	TypeKPI           ComponentType = "kpi"
	TypeText          ComponentType = "text"
	TypeImage         ComponentType = "image"
)

var componentTypes = []ComponentType{
	TypeTable, TypeChart, TypePieChart, TypeBarChart, TypeLineChart,
	TypeAreaChart, TypeScatterChart, TypeRadarChart, TypeHistogram,
	TypeComposedChart, TypeKPI, TypeText, TypeImage,
}

// ComponentTypes returns the closed enumeration of component types.
func ComponentTypes() []ComponentType {
	out := make([]ComponentType, len(componentTypes))
	copy(out, componentTypes)
	return out
}

// Valid reports whether t is one of the known component types.
func (t ComponentType) Valid() bool {
	for _, ct := range componentTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// MaxComponents is the upper bound on len(DesignSchema.Components).
const MaxComponents = 30

// Column bounds for Layout.Columns.
const (
	MinColumns = 1
	MaxColumns = 4
)

// Dimension is a CSS-like size. It accepts both strings ("16px", "1rem") and
// bare JSON numbers, which are normalised to pixel strings.
type Dimension string

// UnmarshalJSON implements json.Unmarshaler.
func (d *Dimension) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = Dimension(s)
		return nil
	}
	if string(b) == "null" {
		*d = ""
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("dimension: expected string or number, got %s", b)
	}
	*d = Dimension(strconv.FormatFloat(f, 'f', -1, 64) + "px")
	return nil
}

// Index returns the sequence index of the component with the given id, or -1.
func (s *DesignSchema) Index(id string) int {
	for i := range s.Components {
		if s.Components[i].ID == id {
			return i
		}
	}
	return -1
}

// Component returns a pointer to the component with the given id, or nil.
func (s *DesignSchema) Component(id string) *Component {
	if i := s.Index(id); i >= 0 {
		return &s.Components[i]
	}
	return nil
}

// IDs returns component ids in document order.
func (s *DesignSchema) IDs() []string {
	ids := make([]string, len(s.Components))
	for i, c := range s.Components {
		ids[i] = c.ID
	}
	return ids
}

// Decode parses a persisted schema document.
func Decode(data []byte) (DesignSchema, error) {
	var s DesignSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return DesignSchema{}, fmt.Errorf("decode schema: %w", err)
	}
	return s, nil
}

// MarshalJSONString returns the schema as a JSON string.
func (s DesignSchema) MarshalJSONString() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Outline renders a short human-readable listing of the schema: theme,
// layout and the components in document order.
func (s DesignSchema) Outline() string {
	var b strings.Builder
	fmt.Fprintf(&b, "theme: %s %s %s %s\n", s.Theme.Mode, s.Theme.PrimaryColor, s.Theme.FontSize, s.Theme.FontFamily)
	fmt.Fprintf(&b, "layout: %d columns, gap %g\n", s.Layout.Columns, s.Layout.Gap)
	if s.Filters != nil {
		limit := "-"
		if s.Filters.Limit != nil {
			limit = strconv.Itoa(*s.Filters.Limit)
		}
		fmt.Fprintf(&b, "filters: sortBy=%q order=%q limit=%s search=%q\n",
			s.Filters.SortBy, s.Filters.SortOrder, limit, s.Filters.Search)
	}
	fmt.Fprintf(&b, "components (%d):\n", len(s.Components))
	for i, c := range s.Components {
		fmt.Fprintf(&b, "  %2d. %s (%s)", i, c.ID, c.Type)
		if c.Position != nil {
			fmt.Fprintf(&b, " at %d,%d %dx%d", c.Position.X, c.Position.Y, c.Position.Width, c.Position.Height)
		}
		b.WriteString("\n")
	}
	return b.String()
}
