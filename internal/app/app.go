// Package app is the entry point for dashboard design edits: it runs
// candidate operations through validation and application and persists the
// result per user.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"dashstudio/internal/importers"
	"dashstudio/internal/ops"
	"dashstudio/internal/schema"
	"dashstudio/internal/validate"
	"dashstudio/internal/workspace"
)

// ErrRejected wraps every hard failure of a batch: structural or reference
// validation of the input, or structural validation of the result. Nothing
// is persisted when it is returned.
var ErrRejected = errors.New("operations rejected")

// Outcome is the result of an accepted batch.
type Outcome struct {
	Schema   schema.DesignSchema `json:"schema"`
	Warnings []string            `json:"warnings"`
	Revision int64               `json:"revision"`
	Applied  int                 `json:"applied"`
}

// Designer applies operation batches to per-user schemas.
type Designer struct {
	manager *workspace.Manager
	log     zerolog.Logger
}

// NewDesigner returns a Designer over manager.
func NewDesigner(manager *workspace.Manager, log zerolog.Logger) *Designer {
	return &Designer{manager: manager, log: log.With().Str("component", "designer").Logger()}
}

func rejected(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRejected, stage, err)
}

// run is the validate, apply, validate pipeline. It never touches the store.
func (d *Designer) run(current schema.DesignSchema, raw []map[string]any) (ops.Result, error) {
	list, err := validate.Operations(raw)
	if err != nil {
		return ops.Result{}, rejected("input", err)
	}
	if err := validate.References(current, list); err != nil {
		return ops.Result{}, rejected("input", err)
	}
	res := ops.Apply(current, list)
	if err := validate.Schema(res.Schema); err != nil {
		return ops.Result{}, rejected("result", err)
	}
	return res, nil
}

// Apply validates raw against the user's current schema, applies it and
// saves the result as a new revision. Soft failures of individual operations
// come back as warnings.
func (d *Designer) Apply(ctx context.Context, userID string, raw []map[string]any) (Outcome, error) {
	log := d.log.With().Str("user", userID).Int("ops", len(raw)).Logger()
	log.Debug().Msg("applying operations")

	var res ops.Result
	rec, err := d.manager.Update(ctx, userID, func(cur workspace.Record) (schema.DesignSchema, string, error) {
		var err error
		res, err = d.run(cur.Schema, raw)
		if err != nil {
			return schema.DesignSchema{}, "", err
		}
		if res.Applied == 0 {
			return schema.DesignSchema{}, "", workspace.ErrNoChange
		}
		return res.Schema, note(raw, res), nil
	})
	if err != nil {
		if errors.Is(err, ErrRejected) {
			log.Warn().Err(err).Msg("operations rejected")
		} else {
			log.Error().Err(err).Msg("apply failed")
		}
		return Outcome{}, err
	}

	out := Outcome{Schema: rec.Schema, Warnings: res.Warnings, Revision: rec.Revision, Applied: res.Applied}
	ev := log.Info()
	if len(out.Warnings) > 0 {
		ev = log.Warn().Strs("warnings", out.Warnings)
	}
	ev.Int64("revision", out.Revision).Int("applied", out.Applied).Msg("operations applied")
	return out, nil
}

// Preview runs the same pipeline as Apply without saving. Revision is the
// stored revision the preview was computed against.
func (d *Designer) Preview(ctx context.Context, userID string, raw []map[string]any) (Outcome, error) {
	cur, err := d.manager.Load(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	res, err := d.run(cur.Schema, raw)
	if err != nil {
		d.log.Debug().Str("user", userID).Err(err).Msg("preview rejected")
		return Outcome{}, err
	}
	return Outcome{Schema: res.Schema, Warnings: res.Warnings, Revision: cur.Revision, Applied: res.Applied}, nil
}

// ApplyText extracts operations from free-form text and applies them.
func (d *Designer) ApplyText(ctx context.Context, userID, text string) (Outcome, error) {
	raw, err := importers.ParseOperations(text)
	if err != nil {
		return Outcome{}, rejected("parse", err)
	}
	return d.Apply(ctx, userID, raw)
}

// Reset replaces the user's schema with a named preset.
func (d *Designer) Reset(ctx context.Context, userID, preset string) (workspace.Record, error) {
	if preset == "" {
		preset = "default"
	}
	s, err := schema.Preset(preset)
	if err != nil {
		return workspace.Record{}, err
	}
	rec, err := d.manager.Update(ctx, userID, func(workspace.Record) (schema.DesignSchema, string, error) {
		return s, "reset to " + preset, nil
	})
	if err != nil {
		return workspace.Record{}, err
	}
	d.log.Info().Str("user", userID).Str("preset", preset).Int64("revision", rec.Revision).Msg("schema reset")
	return rec, nil
}

// Current returns the user's schema (the default schema at revision 0 when
// nothing is stored).
func (d *Designer) Current(ctx context.Context, userID string) (workspace.Record, error) {
	return d.manager.Load(ctx, userID)
}

// History lists the user's saved versions, newest first.
func (d *Designer) History(ctx context.Context, userID string, limit int) ([]workspace.VersionSummary, error) {
	versions, err := d.manager.Repo().History(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]workspace.VersionSummary, len(versions))
	for i, v := range versions {
		out[i] = v.Summary()
	}
	return out, nil
}

// Revert restores a saved version as a new revision.
func (d *Designer) Revert(ctx context.Context, userID, versionID string) (workspace.Record, error) {
	rec, err := d.manager.Revert(ctx, userID, versionID)
	if err != nil {
		return workspace.Record{}, err
	}
	d.log.Info().Str("user", userID).Str("version", versionID).Int64("revision", rec.Revision).Msg("schema reverted")
	return rec, nil
}

// note summarizes a batch for the history entry.
func note(raw []map[string]any, res ops.Result) string {
	counts := map[string]int{}
	var order []string
	for _, item := range raw {
		op, _ := item["op"].(string)
		if counts[op] == 0 {
			order = append(order, op)
		}
		counts[op]++
	}
	parts := make([]string, len(order))
	for i, op := range order {
		parts[i] = fmt.Sprintf("%s x%d", op, counts[op])
	}
	s := fmt.Sprintf("%d/%d applied", res.Applied, len(raw))
	if len(parts) > 0 {
		s += ": " + strings.Join(parts, ", ")
	}
	return s
}
