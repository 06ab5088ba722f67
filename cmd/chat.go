package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/snowchat/snowchat/internal/tui"
	"github.com/snowchat/snowchat/internal/warehouse"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat (default)",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The chat survives a failed connection: every warehouse-backed
	// operation then reports the degraded state inline.
	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			rt.logger.Warn("connection close error", "error", closeErr)
		}
	}()

	var details warehouse.Details
	if rt.conn != nil {
		detailsCtx, detailsCancel := context.WithTimeout(ctx, 30*time.Second)
		details, err = rt.conn.Details(detailsCtx)
		detailsCancel()
		if err != nil {
			rt.logger.Warn("could not fetch session details", "error", err)
		}
	}

	model, err := tui.New(ctx, tui.Deps{
		Flow:    rt.flow,
		Stager:  rt.stager,
		Details: details,
		Logger:  rt.logger.With("component", "tui"),
	}, tui.Options{
		Model:       rt.cfg.ModelName,
		UseHistory:  rt.cfg.UseChatHistory,
		Debug:       rt.cfg.Debug,
		SlideWindow: rt.cfg.SlideWindow,
	})
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}
	return nil
}
