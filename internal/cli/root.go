// Package cli is the dashstudio command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"dashstudio/internal/app"
	"dashstudio/internal/config"
	"dashstudio/internal/dbconn"
	"dashstudio/internal/logging"
	"dashstudio/internal/workspace"
)

// Version is set at build time.
var Version = "0.1.0"

// runtime holds what the subcommands share. The store is opened lazily so
// commands such as validate never touch it.
type runtime struct {
	cfgFile string
	user    string

	cfg      config.Config
	logs     *logging.LogData
	manager  *workspace.Manager
	designer *app.Designer
}

// NewRootCommand builds the dashstudio command tree.
func NewRootCommand() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:   "dashstudio",
		Short: "dashstudio - validate and apply dashboard design operations",
		Long: `dashstudio keeps one dashboard design schema per user and edits it with
batches of operations (set_style, update, add_component, remove_component,
move_component, replace_component, reorder_component).

Example workflow:
  1. Inspect:  dashstudio show --user alice
  2. Preview:  dashstudio preview ops.json --user alice
  3. Apply:    dashstudio apply ops.json --user alice
  4. Undo:     dashstudio history --user alice && dashstudio revert <version-id> --user alice
`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rt.close()
		},
	}
	root.PersistentFlags().StringVar(&rt.cfgFile, "config", "", "Configuration file path (default ./dashstudio.yaml or ~/.dashstudio/dashstudio.yaml)")
	root.PersistentFlags().StringVarP(&rt.user, "user", "u", "", "User whose schema to act on (overrides config)")

	root.AddCommand(
		newShowCmd(rt),
		newApplyCmd(rt),
		newPreviewCmd(rt),
		newValidateCmd(rt),
		newResetCmd(rt),
		newHistoryCmd(rt),
		newRevertCmd(rt),
		newImportCSVCmd(rt),
		newImportLegacyCmd(rt),
		newUsersCmd(rt),
		newDriversCmd(),
		newKeyringCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func (rt *runtime) init() error {
	cfg, err := config.Load(rt.cfgFile)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	if rt.user == "" {
		rt.user = cfg.User
	}

	build := logging.New().Level(cfg.Log.Level).Format(cfg.Log.Format)
	if cfg.Log.File != "" {
		build = build.FromPath(cfg.Log.File)
	}
	rt.logs, err = build.Make()
	return err
}

func (rt *runtime) close() error {
	var errs []error
	if rt.manager != nil {
		errs = append(errs, rt.manager.Close())
		rt.manager, rt.designer = nil, nil
	}
	if rt.logs != nil {
		errs = append(errs, rt.logs.Close())
	}
	return errors.Join(errs...)
}

// open connects to the configured store on first use.
func (rt *runtime) open(ctx context.Context) (*app.Designer, error) {
	if rt.designer != nil {
		return rt.designer, nil
	}
	conn := rt.cfg.Connection()
	rt.logs.Logger.Debug().Interface("store", dbconn.Redacted(conn)).Msg("opening store")
	m, err := workspace.Open(ctx, conn)
	if err != nil {
		return nil, err
	}
	rt.manager = m
	rt.designer = app.NewDesigner(m, rt.logs.Logger)
	return rt.designer, nil
}

func (rt *runtime) userID() (string, error) {
	if rt.user == "" {
		return "", errors.New("no user: pass --user or set user in the config file")
	}
	return rt.user, nil
}

// readInput reads a file argument; "-" is stdin.
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
}
