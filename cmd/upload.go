package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload one or more documents to the stage",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		name := filepath.Base(path)
		if _, err := rt.stager.Put(ctx, name, content); err != nil {
			cancel()
			return fmt.Errorf("uploading %s: %w", path, err)
		}
		cancel()

		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to @%s\n", name, rt.cfg.Stage)
	}
	return nil
}
