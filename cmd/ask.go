package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/snowchat/snowchat/internal/chat"
)

var askTimeout time.Duration

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 5*time.Minute, "per-question timeout")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
	defer cancel()

	rt, err := newRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	question := strings.Join(args, " ")

	// One-shot: no history to fold in.
	out, err := rt.flow.Turn(ctx, chat.Input{
		Question:   question,
		Model:      rt.cfg.ModelName,
		UseHistory: false,
	})
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), out.Answer)
	return nil
}
