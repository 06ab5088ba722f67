package tui

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/snowchat/snowchat/internal/chat"
	"github.com/snowchat/snowchat/internal/cortex"
)

// Slash command constants.
const (
	cmdHelp    = "/help"
	cmdClear   = "/clear"
	cmdExit    = "/exit"
	cmdQuit    = "/quit"
	cmdDocs    = "/docs"
	cmdUpload  = "/upload"
	cmdModel   = "/model"
	cmdHistory = "/history"
	cmdDebug   = "/debug"
)

const helpText = `Commands:
  /docs            List staged documents
  /upload <path>   Upload a document to the stage
  /model <name>    Select the completion model
  /history on|off  Toggle chat-history summarization
  /debug           Toggle debug output (shows the retrieval summary)
  /clear           Start over (reset the conversation)
  /help            Show this help
  /exit, /quit     Exit
Shortcuts:
  Enter: send  Shift+Enter: newline  Ctrl+C: cancel/clear  Ctrl+D: exit
  Up/Down: input history  PgUp/PgDn: scroll`

// keyMap holds key bindings for help bar display.
type keyMap struct {
	Submit     key.Binding
	NewLine    key.Binding
	History    key.Binding
	Cancel     key.Binding
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	EscCancel  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewLine:    key.NewBinding(key.WithKeys("shift+enter"), key.WithHelp("s+enter", "newline")),
		History:    key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "history")),
		Cancel:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "exit")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		EscCancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

//nolint:gocyclo // Keyboard handler requires branching for all key combinations
func (t *TUI) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	if k.Mod&tea.ModCtrl != 0 {
		switch k.Code {
		case 'c':
			return t.handleCtrlC()
		case 'd':
			return t, t.cleanup()
		}
	}

	switch k.Code {
	case tea.KeyEnter:
		if t.state == StateInput {
			// Enter submits, Shift+Enter falls through to the textarea.
			if k.Mod&tea.ModShift == 0 {
				return t.handleSubmit()
			}
		}

	case tea.KeyUp:
		if t.state == StateInput && t.input.Line() == 0 {
			return t.navigateHistory(-1)
		}

	case tea.KeyDown:
		if t.state == StateInput && t.input.Line() == t.input.LineCount()-1 {
			return t.navigateHistory(1)
		}

	case tea.KeyEscape:
		if t.state == StateThinking {
			t.cancelTurn()
			return t, nil
		}

	case tea.KeyPgUp:
		t.viewport.PageUp()
		return t, nil

	case tea.KeyPgDown:
		t.viewport.PageDown()
		return t, nil
	}

	// Users can type their next question while the model is thinking.
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return t, cmd
}

func (t *TUI) handleCtrlC() (tea.Model, tea.Cmd) {
	now := time.Now()

	// Double Ctrl+C within 1 second = quit
	if now.Sub(t.lastCtrlC) < time.Second {
		return t, t.cleanup()
	}
	t.lastCtrlC = now

	switch t.state {
	case StateInput:
		t.input.Reset()
		return t, nil

	case StateThinking:
		t.cancelTurn()
		return t, nil
	}

	return t, nil
}

func (t *TUI) handleSubmit() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(t.input.Value())
	if query == "" {
		return t, nil
	}

	if strings.HasPrefix(query, "/") {
		return t.handleSlashCommand(query)
	}

	t.history = append(t.history, query)
	if len(t.history) > maxHistory {
		t.history = t.history[len(t.history)-maxHistory:]
	}
	t.historyIdx = len(t.history)

	// The pending user message goes into the conversation state before the
	// window is computed; Window excludes it.
	t.addMessage(Message{Role: roleUser, Text: query})
	t.session.Append(chat.RoleUser, query)
	window := t.session.Window(t.opts.SlideWindow)

	t.input.Reset()
	t.state = StateThinking
	t.rebuildViewportContent()
	t.viewport.GotoBottom()

	return t, tea.Batch(
		t.spinner.Tick,
		t.startTurn(query, window),
	)
}

//nolint:gocyclo // One branch per slash command
func (t *TUI) handleSlashCommand(cmd string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(cmd)
	t.input.Reset()

	switch fields[0] {
	case cmdHelp:
		t.addMessage(Message{Role: roleSystem, Text: helpText})

	case cmdClear:
		// Start over: conversation state and transcript both reset.
		t.session.Reset()
		t.messages = nil

	case cmdDocs:
		t.rebuildViewportContent()
		return t, t.listDocs()

	case cmdUpload:
		if len(fields) < 2 {
			t.addMessage(Message{Role: roleError, Text: "Usage: /upload <path>"})
			break
		}
		t.rebuildViewportContent()
		return t, t.uploadDoc(strings.Join(fields[1:], " "))

	case cmdModel:
		if len(fields) != 2 {
			t.addMessage(Message{
				Role: roleSystem,
				Text: "Current model: " + t.opts.Model + "\nAvailable: " + strings.Join(cortex.Models, ", "),
			})
			break
		}
		if !cortex.IsValidModel(fields[1]) {
			t.addMessage(Message{Role: roleError, Text: "Unknown model: " + fields[1]})
			break
		}
		t.opts.Model = fields[1]
		t.addMessage(Message{Role: roleSystem, Text: "Model set to " + t.opts.Model})

	case cmdHistory:
		switch {
		case len(fields) == 2 && fields[1] == "on":
			t.opts.UseHistory = true
		case len(fields) == 2 && fields[1] == "off":
			t.opts.UseHistory = false
		default:
			t.addMessage(Message{Role: roleError, Text: "Usage: /history on|off"})
			t.rebuildViewportContent()
			return t, nil
		}
		t.addMessage(Message{Role: roleSystem, Text: "Chat history: " + onOff(t.opts.UseHistory)})

	case cmdExit, cmdQuit:
		return t, t.cleanup()

	case cmdDebug:
		t.opts.Debug = !t.opts.Debug
		t.addMessage(Message{Role: roleSystem, Text: "Debug: " + onOff(t.opts.Debug)})

	default:
		t.addMessage(Message{Role: roleError, Text: "Unknown command: " + fields[0]})
	}

	t.rebuildViewportContent()
	t.viewport.GotoBottom()
	return t, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (t *TUI) navigateHistory(delta int) (tea.Model, tea.Cmd) {
	if len(t.history) == 0 {
		return t, nil
	}

	t.historyIdx += delta

	if t.historyIdx < 0 {
		t.historyIdx = 0
	}
	if t.historyIdx > len(t.history) {
		t.historyIdx = len(t.history)
	}

	if t.historyIdx == len(t.history) {
		t.input.SetValue("")
	} else {
		t.input.SetValue(t.history[t.historyIdx])
		t.input.CursorEnd()
	}

	return t, nil
}

// cancelTurn cancels the in-flight turn. The turnDoneMsg arriving with
// context.Canceled finishes the transition back to StateInput.
func (t *TUI) cancelTurn() {
	if t.turnCancel != nil {
		t.turnCancel()
		t.turnCancel = nil
	}
}

// cleanup cancels any in-flight work and returns the quit command.
func (t *TUI) cleanup() tea.Cmd {
	if t.ctxCancel != nil {
		t.ctxCancel()
		t.ctxCancel = nil
	}
	t.cancelTurn()
	return tea.Quit
}
