package cli

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"dashstudio/internal/app"
	"dashstudio/internal/importers"
	"dashstudio/internal/ops"
	"dashstudio/internal/schema"
	"dashstudio/internal/validate"
	"dashstudio/internal/workspace"
)

func newShowCmd(rt *runtime) *cobra.Command {
	var outline bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the user's current schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := rt.userID()
			if err != nil {
				return err
			}
			d, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := d.Current(cmd.Context(), user)
			if err != nil {
				return err
			}
			if outline {
				fmt.Fprintf(cmd.OutOrStdout(), "revision %d\n%s", rec.Revision, rec.Schema.Outline())
				return nil
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().BoolVar(&outline, "outline", false, "Print a short outline instead of JSON")
	return cmd
}

// operationsFrom reads candidate operations from a file: strict JSON by
// default, free-form model text with text=true.
func operationsFrom(cmd *cobra.Command, file string, text bool) ([]map[string]any, error) {
	data, err := readInput(cmd, file)
	if err != nil {
		return nil, err
	}
	raw, err := importers.ParseOperations(string(data))
	if err != nil {
		return nil, err
	}
	if !text {
		trimmed := strings.TrimSpace(string(data))
		if !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "{") {
			return nil, fmt.Errorf("%s is not a JSON operation list (use --text for free-form input)", file)
		}
	}
	return raw, nil
}

func printOutcome(cmd *cobra.Command, out app.Outcome, full bool) error {
	printWarnings(cmd.ErrOrStderr(), out.Warnings)
	if full {
		return printJSON(cmd.OutOrStdout(), out)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revision %d: %d operation(s) applied, %d warning(s)\n",
		out.Revision, out.Applied, len(out.Warnings))
	return nil
}

func newApplyCmd(rt *runtime) *cobra.Command {
	var text, full bool
	cmd := &cobra.Command{
		Use:   "apply <file>",
		Short: "Validate and apply a batch of operations",
		Long: `Validate a batch of operations against the user's schema, apply it and
save the result as a new revision. Use "-" to read from stdin.

Example:
  dashstudio apply ops.json --user alice
  llm-reply | dashstudio apply - --text --user alice
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := rt.userID()
			if err != nil {
				return err
			}
			raw, err := operationsFrom(cmd, args[0], text)
			if err != nil {
				return err
			}
			d, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			out, err := d.Apply(cmd.Context(), user, raw)
			if err != nil {
				return err
			}
			return printOutcome(cmd, out, full)
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "Input is free-form text (e.g. a model reply) containing the operations")
	cmd.Flags().BoolVar(&full, "print", false, "Print the resulting schema as JSON")
	return cmd
}

func newPreviewCmd(rt *runtime) *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show the schema a batch would produce without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := rt.userID()
			if err != nil {
				return err
			}
			raw, err := operationsFrom(cmd, args[0], text)
			if err != nil {
				return err
			}
			d, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			out, err := d.Preview(cmd.Context(), user, raw)
			if err != nil {
				return err
			}
			return printOutcome(cmd, out, true)
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "Input is free-form text containing the operations")
	return cmd
}

func newValidateCmd(rt *runtime) *cobra.Command {
	var text, normalized bool
	var against string
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a batch of operations without touching the store",
		Long: `Run the structural and reference checks on a batch. References are
resolved against a preset (default "default") or a schema JSON file.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := operationsFrom(cmd, args[0], text)
			if err != nil {
				return err
			}
			base, err := baseline(cmd, against)
			if err != nil {
				return err
			}
			list, err := validate.Operations(raw)
			if err != nil {
				return err
			}
			if err := validate.References(base, list); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d operation(s)\n", len(list))
			if !normalized {
				return nil
			}
			return printNormalized(cmd, list)
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "Input is free-form text containing the operations")
	cmd.Flags().BoolVar(&normalized, "print", false, "Print the batch in normalized form (extra keys dropped)")
	cmd.Flags().StringVar(&against, "against", "default", "Preset name or schema JSON file to resolve references against")
	return cmd
}

// printNormalized re-encodes validated operations so only the keys of each
// operation's shape remain.
func printNormalized(cmd *cobra.Command, list []ops.Operation) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	var raw []map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	text, err := importers.Format(raw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

func baseline(cmd *cobra.Command, against string) (schema.DesignSchema, error) {
	if s, err := schema.Preset(against); err == nil {
		return s, nil
	}
	data, err := readInput(cmd, against)
	if err != nil {
		return schema.DesignSchema{}, err
	}
	s, err := schema.Decode(data)
	if err != nil {
		return schema.DesignSchema{}, err
	}
	return s, validate.Schema(s)
}

func newResetCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "reset [preset]",
		Short: "Replace the user's schema with a preset (" + strings.Join(schema.PresetNames(), ", ") + ")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := rt.userID()
			if err != nil {
				return err
			}
			preset := "default"
			if len(args) == 1 {
				preset = args[0]
			}
			d, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := d.Reset(cmd.Context(), user, preset)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revision %d: reset to %s\n", rec.Revision, preset)
			return nil
		},
	}
}

func newHistoryCmd(rt *runtime) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the user's saved versions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := rt.userID()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = rt.cfg.HistoryLimit
			}
			d, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			versions, err := d.History(cmd.Context(), user, limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(versions) == 0 {
				fmt.Fprintln(w, "No versions found.")
				return nil
			}
			fmt.Fprintf(w, "%-36s  %-8s  %-10s  %-20s  %s\n", "VERSION ID", "REVISION", "COMPONENTS", "CREATED AT", "NOTE")
			for _, v := range versions {
				fmt.Fprintf(w, "%-36s  %-8d  %-10d  %-20s  %s\n",
					v.ID, v.Revision, v.Components, v.CreatedAt.Format("2006-01-02 15:04:05"), v.Note)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of versions (0 for all)")
	return cmd
}

func newRevertCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "revert <version-id>",
		Short: "Restore a saved version as a new revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := rt.userID()
			if err != nil {
				return err
			}
			d, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := d.Revert(cmd.Context(), user, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revision %d: reverted to %s\n", rec.Revision, args[0])
			return nil
		},
	}
}

func newImportCSVCmd(rt *runtime) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import-csv <file>",
		Short: "Add one component per CSV row (columns: id, type, label, dataSource, src, x, y, width, height)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := rt.userID()
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			raw, err := importers.ParseComponentsCSV(string(data))
			if err != nil {
				return err
			}
			d, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			var out app.Outcome
			if dryRun {
				out, err = d.Preview(cmd.Context(), user, raw)
			} else {
				out, err = d.Apply(cmd.Context(), user, raw)
			}
			if err != nil {
				return err
			}
			return printOutcome(cmd, out, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview the result without saving")
	return cmd
}

func newImportLegacyCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy <dir>",
		Short: "Import a directory of legacy <user>.json schema files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			res, err := workspace.ImportLegacy(cmd.Context(), rt.manager.Repo(), args[0])
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), res.Warnings)
			for _, e := range res.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d schema(s), %d warning(s), %d error(s)\n",
				res.Imported, len(res.Warnings), len(res.Errors))
			if len(res.Errors) > 0 {
				return fmt.Errorf("%d file(s) failed to import", len(res.Errors))
			}
			return nil
		},
	}
}
