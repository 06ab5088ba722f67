package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List the documents in the stage",
	RunE:  runDocs,
}

func init() {
	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	rt, err := newRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	objects, err := rt.stager.List(ctx)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(objects) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Stage @%s is empty.\n", rt.cfg.Stage)
		return nil
	}
	for _, o := range objects {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", o.Name, o.Size)
	}
	return nil
}
