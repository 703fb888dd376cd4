package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dashstudio/internal/dbconn"
	"dashstudio/internal/workspace"
)

func newUsersCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users with a stored schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			users, err := rt.manager.Repo().Users(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}
}

func newDriversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List supported store drivers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dialects := map[string]bool{}
			for _, name := range workspace.Dialects() {
				dialects[name] = true
			}
			for _, name := range dbconn.Drivers() {
				status := "connector only"
				if dialects[name] {
					status = "ok"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", name, status)
			}
			return nil
		},
	}
}

func newKeyringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyring",
		Short: "Manage store passwords in the OS credential manager",
		Long: `Store passwords can be kept out of the config file. Set
store.keyring_profile to a profile name and save the password once:

  echo "$PASSWORD" | dashstudio keyring set prod
`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <profile>",
		Short: "Save a password read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				return errors.New("empty password")
			}
			if err := dbconn.Passwords.Save(args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved password for profile %s\n", args[0])
			return nil
		},
	}, &cobra.Command{
		Use:   "delete <profile>",
		Short: "Remove a saved password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dbconn.Passwords.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted password for profile %s\n", args[0])
			return nil
		},
	})
	return cmd
}
