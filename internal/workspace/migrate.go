package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/buger/jsonparser"

	"dashstudio/internal/schema"
	"dashstudio/internal/validate"
)

// ImportResult reports the outcome of a legacy import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// legacyNote is stored on the first version of every imported schema.
const legacyNote = "imported from legacy store"

// ImportLegacy reads a directory of legacy per-user blobs named
// <userID>.json, normalizes and validates each, and stores it as the user's
// first revision. Users that already have a stored schema are skipped with a
// warning. Per-file problems are collected in the result; only an unreadable
// directory is returned as an error.
func ImportLegacy(ctx context.Context, repo *Repo, dir string) (ImportResult, error) {
	result := ImportResult{Warnings: []string{}, Errors: []string{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return result, fmt.Errorf("read legacy dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		userID := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if userID == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: empty user id; skipped", e.Name()))
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", e.Name(), err))
			continue
		}
		s, warnings, err := decodeLegacy(data)
		for _, w := range warnings {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", userID, w))
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", userID, err))
			continue
		}
		if err := validate.Schema(s); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", userID, err))
			continue
		}

		_, err = repo.Save(ctx, userID, s, 0, legacyNote)
		if errors.Is(err, ErrConflict) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: schema already stored; skipped", userID))
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: save: %v", userID, err))
			continue
		}
		result.Imported++
	}
	return result, nil
}

// decodeLegacy accepts either a bare schema document or an envelope with the
// schema under "schema", then repairs what older writers left out.
func decodeLegacy(data []byte) (schema.DesignSchema, []string, error) {
	body := data
	if inner, typ, _, err := jsonparser.Get(data, "schema"); err == nil && typ == jsonparser.Object {
		body = inner
	}
	s, err := schema.Decode(body)
	if err != nil {
		return schema.DesignSchema{}, nil, err
	}

	var warnings []string
	def := schema.Default()
	if s.Theme.Mode == "" {
		s.Theme.Mode = def.Theme.Mode
		warnings = append(warnings, "theme.mode missing; defaulted")
	}
	if s.Theme.PrimaryColor == "" {
		s.Theme.PrimaryColor = def.Theme.PrimaryColor
		warnings = append(warnings, "theme.primaryColor missing; defaulted")
	}
	if s.Theme.FontSize == "" {
		s.Theme.FontSize = def.Theme.FontSize
		warnings = append(warnings, "theme.fontSize missing; defaulted")
	}
	if s.Theme.FontFamily == "" {
		s.Theme.FontFamily = def.Theme.FontFamily
		warnings = append(warnings, "theme.fontFamily missing; defaulted")
	}
	if c := s.Layout.Columns; c < schema.MinColumns || c > schema.MaxColumns {
		s.Layout.Columns = min(max(c, schema.MinColumns), schema.MaxColumns)
		warnings = append(warnings, fmt.Sprintf("layout.columns %d clamped to %d", c, s.Layout.Columns))
	}
	if s.Components == nil {
		s.Components = []schema.Component{}
	}
	for i := range s.Components {
		if s.Components[i].Props == nil {
			s.Components[i].Props = map[string]any{}
		}
		if s.Components[i].Style == nil {
			s.Components[i].Style = map[string]any{}
		}
	}
	return s, warnings, nil
}
