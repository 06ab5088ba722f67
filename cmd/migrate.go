package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snowchat/snowchat/internal/warehouse"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the chunk table and document stage",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if err := warehouse.Migrate(rt.conn.DB(), rt.cfg.Database); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
	return nil
}
