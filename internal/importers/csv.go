package importers

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"dashstudio/internal/ops"
)

// geometry columns go into the component position; everything else that is
// not id or type becomes a string prop.
var geometryColumns = map[string]bool{"x": true, "y": true, "width": true, "height": true}

// ParseComponentsCSV parses a CSV with required columns id, type and any
// number of optional columns (label, dataSource, src, ... and x, y, width,
// height). Each data row becomes one add_component candidate operation, in
// file order. Empty cells are omitted. A position is emitted only when a row
// has at least one geometry cell; width and height then default to 1.
func ParseComponentsCSV(csvContent string) ([]map[string]any, error) {
	out := []map[string]any{}
	r := csv.NewReader(strings.NewReader(csvContent))
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return out, nil
	}

	header := make([]string, len(rows[0]))
	colIdx := make(map[string]int)
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
		colIdx[strings.ToLower(header[i])] = i
	}
	idIdx, okID := colIdx["id"]
	typeIdx, okType := colIdx["type"]
	if !okID || !okType {
		return nil, fmt.Errorf("CSV must have columns: id, type")
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		line := i + 1
		if isBlank(row) {
			continue
		}
		component := map[string]any{
			"id":    cell(row, idIdx),
			"type":  cell(row, typeIdx),
			"props": map[string]any{},
			"style": map[string]any{},
		}
		props := component["props"].(map[string]any)
		pos := map[string]any{}
		for c, name := range header {
			if c == idIdx || c == typeIdx || name == "" {
				continue
			}
			v := cell(row, c)
			if v == "" {
				continue
			}
			key := strings.ToLower(name)
			if geometryColumns[key] {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("line %d: %s %q is not an integer", line, key, v)
				}
				pos[key] = n
				continue
			}
			props[name] = v
		}
		if len(pos) > 0 {
			for k, def := range map[string]int{"x": 0, "y": 0, "width": 1, "height": 1} {
				if _, ok := pos[k]; !ok {
					pos[k] = def
				}
			}
			component["position"] = pos
		}
		out = append(out, map[string]any{
			"op":        string(ops.KindAddComponent),
			"component": component,
		})
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
