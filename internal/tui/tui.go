// Package tui provides the Bubble Tea terminal interface for snowchat.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/snowchat/snowchat/internal/chat"
	"github.com/snowchat/snowchat/internal/cortex"
	"github.com/snowchat/snowchat/internal/log"
	"github.com/snowchat/snowchat/internal/stage"
	"github.com/snowchat/snowchat/internal/warehouse"
)

// State represents the TUI state machine. Turns are strictly sequential: one
// question is in flight at a time, and the loop returns to StateInput when
// its answer (or an error surrogate) has been appended.
type State int

// TUI state machine states.
const (
	StateInput    State = iota // Awaiting user input
	StateThinking              // Turn pipeline running
)

// Memory bounds to prevent unbounded growth.
const (
	maxMessages = 200 // Maximum transcript entries stored
	maxHistory  = 100 // Maximum input history entries
)

// turnTimeout bounds one full turn (rewrite + retrieval + completion).
// A hung warehouse call therefore hangs one turn, not the session.
const turnTimeout = 5 * time.Minute

// opTimeout bounds the auxiliary stage operations (list, upload).
const opTimeout = time.Minute

// Message role constants for transcript display.
const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleSystem    = "system"
	roleError     = "error"
)

// Layout constants for viewport height calculation.
const (
	separatorLines = 2
	helpLines      = 1
	promptLines    = 1
	minViewport    = 3
)

// Message is one transcript entry for display. The transcript includes
// system and error entries; chat.Session holds only the user/assistant
// conversation the history window is computed from.
type Message struct {
	Role string
	Text string
}

// Options are the session toggles, mutable through slash commands.
type Options struct {
	Model       string
	UseHistory  bool
	Debug       bool
	SlideWindow int
}

// Deps are the components the TUI drives. Flow is required. Stager may be
// backed by a nil connection, in which case its operations report
// warehouse.ErrNoConnection and the TUI renders the degraded state.
type Deps struct {
	Flow    *chat.Flow
	Stager  *stage.Stager
	Details warehouse.Details // zero value when not connected
	Logger  log.Logger
}

// TUI is the Bubble Tea model for the snowchat terminal interface.
type TUI struct {
	// Input (textarea for multi-line support, Shift+Enter for newline)
	input      textarea.Model
	history    []string
	historyIdx int

	// State
	state     State
	lastCtrlC time.Time

	// Output
	spinner  spinner.Model
	viewBuf  strings.Builder // Reusable buffer for View() to reduce allocations
	messages []Message

	// Conversation state the history window is computed from
	session *chat.Session

	// Scrollable transcript viewport
	viewport viewport.Model

	// Help bar for keyboard shortcuts
	help help.Model
	keys keyMap

	// Session toggles
	opts Options

	// Dependencies
	deps   Deps
	logger log.Logger

	// In-flight turn management. Session is only mutated on the update
	// loop; Bubble Tea's event loop provides the synchronization.
	turnCancel context.CancelFunc
	ctx        context.Context
	ctxCancel  context.CancelFunc

	// Dimensions
	width  int
	height int

	// Styles
	styles Styles

	// Markdown rendering (nil = graceful degradation to plain text)
	markdown *markdownRenderer
}

// addMessage appends a transcript entry and enforces the maxMessages bound.
func (t *TUI) addMessage(msg Message) {
	t.messages = append(t.messages, msg)
	if len(t.messages) > maxMessages {
		t.messages = t.messages[len(t.messages)-maxMessages:]
	}
}

// New creates a TUI model.
//
// IMPORTANT: ctx MUST be the same context passed to tea.WithContext()
// to ensure consistent cancellation behavior.
func New(ctx context.Context, deps Deps, opts Options) (*TUI, error) {
	if deps.Flow == nil {
		return nil, errors.New("tui.New: flow is required")
	}
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}
	if deps.Logger == nil {
		deps.Logger = log.NewNop()
	}
	if opts.Model == "" {
		opts.Model = cortex.DefaultModel
	}

	ctx, cancel := context.WithCancel(ctx)

	ta := textarea.New()
	ta.Placeholder = "What do you want to know about your documents?"
	ta.SetHeight(1)
	ta.SetWidth(120)
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	// Plain text input, no background blocks.
	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{
		Focused: cleanStyle,
		Blurred: cleanStyle,
	})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Keys are routed explicitly in handleKey; disable the viewport's own
	// bindings to avoid conflicts with textarea/history navigation.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	h := help.New()

	return &TUI{
		deps:      deps,
		logger:    deps.Logger,
		opts:      opts,
		session:   chat.NewSession(),
		ctx:       ctx,
		ctxCancel: cancel,
		input:     ta,
		spinner:   sp,
		viewport:  vp,
		help:      h,
		keys:      newKeyMap(),
		styles:    DefaultStyles(),
		history:   make([]string, 0, maxHistory),
		markdown:  newMarkdownRenderer(80),
		width:     80, // Default width until WindowSizeMsg arrives
	}, nil
}

// Session exposes the conversation state, for tests and debugging.
func (t *TUI) Session() *chat.Session {
	return t.session
}

// Init implements tea.Model.
func (t *TUI) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		t.spinner.Tick,
		t.input.Focus(),
	)
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo // Bubble Tea Update requires type switch on all message types
func (t *TUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return t.handleKey(msg)

	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height

		inputHeight := t.input.Height() + promptLines
		fixedHeight := separatorLines + inputHeight + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		t.viewport.SetWidth(msg.Width)
		t.viewport.SetHeight(vpHeight)
		t.input.SetWidth(msg.Width - 4) // Room for "> " prompt
		t.help.SetWidth(msg.Width)
		t.markdown.UpdateWidth(msg.Width)

		t.rebuildViewportContent()
		return t, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return t, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		t.spinner, cmd = t.spinner.Update(msg)
		if t.state == StateThinking {
			t.rebuildViewportContent()
		}
		return t, cmd

	case turnDoneMsg:
		return t.handleTurnDone(msg)

	case docsMsg:
		if msg.err != nil {
			t.addMessage(Message{Role: roleError, Text: t.describeError(msg.err)})
		} else {
			t.addMessage(Message{Role: roleSystem, Text: renderDocList(msg.objects)})
		}
		t.rebuildViewportContent()
		t.viewport.GotoBottom()
		return t, nil

	case uploadMsg:
		if msg.err != nil {
			t.addMessage(Message{Role: roleError, Text: t.describeError(msg.err)})
		} else {
			t.addMessage(Message{
				Role: roleSystem,
				Text: fmt.Sprintf("File %q uploaded to stage @%s.", msg.name, t.deps.Stager.Name()),
			})
		}
		t.rebuildViewportContent()
		t.viewport.GotoBottom()
		return t, nil
	}

	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return t, cmd
}

// handleTurnDone finishes one turn: the answer or its error surrogate is
// appended to both the transcript and the conversation state, then the loop
// returns to awaiting input.
func (t *TUI) handleTurnDone(msg turnDoneMsg) (tea.Model, tea.Cmd) {
	t.state = StateInput

	if t.turnCancel != nil {
		t.turnCancel()
		t.turnCancel = nil
	}

	if t.opts.Debug && msg.out.Summary != "" {
		t.addMessage(Message{
			Role: roleSystem,
			Text: "Summary used to find similar chunks: " + msg.out.Summary,
		})
	}

	if msg.err != nil {
		surrogate := t.describeError(msg.err)
		t.addMessage(Message{Role: roleError, Text: surrogate})
		t.session.Append(chat.RoleAssistant, surrogate)
	} else {
		t.addMessage(Message{Role: roleAssistant, Text: msg.out.Answer})
		t.session.Append(chat.RoleAssistant, msg.out.Answer)
	}

	t.rebuildViewportContent()
	t.viewport.GotoBottom()
	return t, t.input.Focus()
}

// describeError maps pipeline errors to the inline messages shown in the
// transcript. Components return bare errors; rendering happens only here.
func (t *TUI) describeError(err error) string {
	switch {
	case errors.Is(err, warehouse.ErrNoConnection):
		return "No connection to Snowflake. Check your credentials and restart."
	case errors.Is(err, cortex.ErrNoResponse):
		return "No response received from Snowflake."
	case errors.Is(err, context.Canceled):
		return "(Canceled)"
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Try again or ask a simpler question."
	default:
		return err.Error()
	}
}

// renderDocList formats the stage listing for the transcript.
func renderDocList(objects []stage.Object) string {
	if len(objects) == 0 {
		return "No documents staged yet. Use /upload <path> to add one."
	}
	var b strings.Builder
	b.WriteString("Documents used to answer your questions:\n")
	for _, o := range objects {
		fmt.Fprintf(&b, "  %s (%d bytes)\n", o.Name, o.Size)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// View implements tea.Model.
// Uses AltScreen with a viewport for the scrollable transcript.
func (t *TUI) View() tea.View {
	t.viewBuf.Reset()

	_, _ = t.viewBuf.WriteString(t.viewport.View())
	_, _ = t.viewBuf.WriteString("\n")

	_, _ = t.viewBuf.WriteString(t.renderSeparator())
	_, _ = t.viewBuf.WriteString("\n")

	_, _ = t.viewBuf.WriteString(t.styles.Prompt.Render("> "))
	_, _ = t.viewBuf.WriteString(t.input.View())
	_, _ = t.viewBuf.WriteString("\n")

	_, _ = t.viewBuf.WriteString(t.renderSeparator())
	_, _ = t.viewBuf.WriteString("\n")

	_, _ = t.viewBuf.WriteString(t.renderStatusBar())

	v := tea.NewView(t.viewBuf.String())
	v.AltScreen = true
	return v
}

// rebuildViewportContent reconstructs the viewport content from the
// transcript and state. Called when messages, toggles, or state change.
func (t *TUI) rebuildViewportContent() {
	var b strings.Builder

	_, _ = b.WriteString(t.styles.RenderBanner())
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(t.renderConnectionDetails())
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(t.styles.RenderWelcomeTips())
	_, _ = b.WriteString("\n")

	for _, msg := range t.messages {
		switch msg.Role {
		case roleUser:
			_, _ = b.WriteString(t.styles.User.Render("You> "))
			_, _ = b.WriteString(msg.Text)
		case roleAssistant:
			_, _ = b.WriteString(t.styles.Assistant.Render("Snowchat> "))
			_, _ = b.WriteString(t.markdown.Render(msg.Text))
		case roleSystem:
			_, _ = b.WriteString(t.styles.System.Render(msg.Text))
		case roleError:
			_, _ = b.WriteString(t.styles.Error.Render("Error: " + msg.Text))
		}
		_, _ = b.WriteString("\n\n")
	}

	if t.state == StateThinking {
		_, _ = b.WriteString(t.spinner.View())
		_, _ = b.WriteString(" " + t.opts.Model + " thinking...\n\n")
	}

	t.viewport.SetContent(b.String())
}

// renderConnectionDetails shows the session targets, or the degraded state.
func (t *TUI) renderConnectionDetails() string {
	d := t.deps.Details
	if d.Warehouse == "" && d.Database == "" && d.Schema == "" {
		return t.styles.Error.Render("No Snowflake connection available.") + "\n"
	}
	return t.styles.System.Render(fmt.Sprintf(
		"Warehouse: %s  Database: %s  Schema: %s  Model: %s",
		d.Warehouse, d.Database, d.Schema, t.opts.Model)) + "\n"
}

// renderSeparator returns a horizontal line separator.
func (t *TUI) renderSeparator() string {
	width := t.width
	if width <= 0 {
		width = 80
	}
	return t.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar returns state-appropriate keyboard shortcut help.
func (t *TUI) renderStatusBar() string {
	var bindings []key.Binding
	switch t.state {
	case StateInput:
		bindings = []key.Binding{
			t.keys.Submit, t.keys.NewLine, t.keys.History,
			t.keys.Cancel, t.keys.Quit, t.keys.ScrollUp,
		}
	case StateThinking:
		bindings = []key.Binding{
			t.keys.EscCancel, t.keys.Cancel,
			t.keys.ScrollUp, t.keys.ScrollDown,
		}
	}
	return t.help.ShortHelpView(bindings)
}
