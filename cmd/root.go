// Package cmd implements the snowchat command tree.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "snowchat",
	Short: "Snowchat - chat with the documents in your Snowflake stage",
	Long: `Snowchat is a terminal assistant that answers questions from documents
staged in Snowflake. Retrieval and generation both run inside the warehouse
through Cortex; snowchat uploads documents, asks, and renders.

Running snowchat without arguments starts the interactive chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
