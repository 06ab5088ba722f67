package tui

import (
	"context"
	"os"

	tea "charm.land/bubbletea/v2"

	"github.com/snowchat/snowchat/internal/chat"
	"github.com/snowchat/snowchat/internal/stage"
)

// turnDoneMsg carries one finished turn back to the update loop.
type turnDoneMsg struct {
	out chat.Output
	err error
}

// docsMsg carries a stage listing back to the update loop.
type docsMsg struct {
	objects []stage.Object
	err     error
}

// uploadMsg carries an upload result back to the update loop.
type uploadMsg struct {
	name string
	err  error
}

// startTurn runs the turn pipeline in a command goroutine. The timeout bounds
// the whole turn; Esc or Ctrl+C cancels it early. The cancel func is stored
// before the command runs, on the update loop.
func (t *TUI) startTurn(question string, window []string) tea.Cmd {
	ctx, cancel := context.WithTimeout(t.ctx, turnTimeout)
	t.turnCancel = cancel

	in := chat.Input{
		Question:   question,
		History:    window,
		Model:      t.opts.Model,
		UseHistory: t.opts.UseHistory,
	}
	flow := t.deps.Flow

	return func() tea.Msg {
		out, err := flow.Turn(ctx, in)
		return turnDoneMsg{out: out, err: err}
	}
}

// listDocs fetches the stage contents.
func (t *TUI) listDocs() tea.Cmd {
	stager := t.deps.Stager
	parent := t.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, opTimeout)
		defer cancel()
		objects, err := stager.List(ctx)
		return docsMsg{objects: objects, err: err}
	}
}

// uploadDoc reads a local file and stages it.
func (t *TUI) uploadDoc(path string) tea.Cmd {
	stager := t.deps.Stager
	parent := t.ctx
	return func() tea.Msg {
		content, err := os.ReadFile(path)
		if err != nil {
			return uploadMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(parent, opTimeout)
		defer cancel()
		name, err := stager.Put(ctx, trimBase(path), content)
		return uploadMsg{name: name, err: err}
	}
}
