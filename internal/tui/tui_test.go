package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"go.uber.org/goleak"

	"github.com/snowchat/snowchat/internal/chat"
	"github.com/snowchat/snowchat/internal/cortex"
	"github.com/snowchat/snowchat/internal/stage"
	"github.com/snowchat/snowchat/internal/warehouse"
)

// goleakOptions filters persistent goroutines expected to exist.
func goleakOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	}
}

// newTestTUI creates a TUI with initialized components for testing, without
// going through New (which requires a live chat.Flow).
func newTestTUI() *TUI {
	ta := textarea.New()
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	ctx, cancel := context.WithCancel(context.Background())

	return &TUI{
		state:     StateInput,
		input:     ta,
		spinner:   spinner.New(),
		viewport:  viewport.New(viewport.WithWidth(80), viewport.WithHeight(20)),
		session:   chat.NewSession(),
		keys:      newKeyMap(),
		styles:    DefaultStyles(),
		markdown:  newMarkdownRenderer(80),
		history:   make([]string, 0, maxHistory),
		opts:      Options{Model: cortex.DefaultModel, UseHistory: true, SlideWindow: 7},
		ctx:       ctx,
		ctxCancel: cancel,
	}
}

func TestNew_ErrorOnNilFlow(t *testing.T) {
	_, err := New(context.Background(), Deps{}, Options{})
	if err == nil {
		t.Error("New() with nil flow should error")
	}
}

func TestNew_ErrorOnNilContext(t *testing.T) {
	//lint:ignore SA1012 intentionally testing nil context handling
	_, err := New(nil, Deps{Flow: &chat.Flow{}}, Options{}) //nolint:staticcheck
	if err == nil {
		t.Error("New() with nil context should error")
	}
}

func TestHandleSubmit(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI()
	defer tui.ctxCancel()
	tui.session.Append(chat.RoleUser, "earlier question")
	tui.session.Append(chat.RoleAssistant, "earlier answer")
	tui.input.SetValue("what about stages?")

	model, cmd := tui.handleSubmit()
	result := model.(*TUI)

	if result.state != StateThinking {
		t.Errorf("state = %v, want StateThinking", result.state)
	}
	if cmd == nil {
		t.Error("handleSubmit should return a command")
	}
	if result.input.Value() != "" {
		t.Errorf("input = %q, want cleared", result.input.Value())
	}

	// Transcript and conversation both carry the pending question.
	last := result.messages[len(result.messages)-1]
	if last.Role != roleUser || last.Text != "what about stages?" {
		t.Errorf("last transcript entry = %+v, want the question", last)
	}
	msgs := result.session.Messages()
	if msgs[len(msgs)-1].Content != "what about stages?" {
		t.Errorf("last session entry = %q, want the question", msgs[len(msgs)-1].Content)
	}

	// The history window computed for this turn excludes the pending entry.
	window := result.session.Window(result.opts.SlideWindow)
	if len(window) != 2 {
		t.Fatalf("len(window) = %d, want 2", len(window))
	}
	for _, w := range window {
		if w == "what about stages?" {
			t.Error("window contains the pending question")
		}
	}

	if result.historyIdx != len(result.history) {
		t.Error("history index should point past end after submit")
	}

	result.cancelTurn()
}

func TestHandleSubmit_EmptyInputIgnored(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI()
	defer tui.ctxCancel()
	tui.input.SetValue("   ")

	model, cmd := tui.handleSubmit()
	result := model.(*TUI)

	if result.state != StateInput {
		t.Error("blank input should not start a turn")
	}
	if cmd != nil {
		t.Error("blank input should return no command")
	}
	if len(result.messages) != 0 {
		t.Error("blank input should not be added to the transcript")
	}
}

func TestHandleTurnDone(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	t.Run("answer appended to transcript and conversation", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()
		tui.state = StateThinking
		tui.session.Append(chat.RoleUser, "q")

		model, _ := tui.Update(turnDoneMsg{out: chat.Output{Answer: "the answer"}})
		result := model.(*TUI)

		if result.state != StateInput {
			t.Errorf("state = %v, want StateInput", result.state)
		}
		last := result.messages[len(result.messages)-1]
		if last.Role != roleAssistant || last.Text != "the answer" {
			t.Errorf("last transcript entry = %+v, want the answer", last)
		}
		msgs := result.session.Messages()
		if got := msgs[len(msgs)-1]; got.Role != chat.RoleAssistant || got.Content != "the answer" {
			t.Errorf("last session entry = %+v, want assistant answer", got)
		}
	})

	t.Run("error surrogate joins the conversation", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()
		tui.state = StateThinking
		tui.session.Append(chat.RoleUser, "q")

		model, _ := tui.Update(turnDoneMsg{err: warehouse.ErrNoConnection})
		result := model.(*TUI)

		if result.state != StateInput {
			t.Errorf("state = %v, want StateInput", result.state)
		}
		last := result.messages[len(result.messages)-1]
		if last.Role != roleError {
			t.Errorf("last transcript role = %q, want error", last.Role)
		}
		if !strings.Contains(last.Text, "No connection to Snowflake") {
			t.Errorf("surrogate = %q, want connection message", last.Text)
		}

		// The surrogate keeps the user/assistant alternation intact.
		msgs := result.session.Messages()
		if got := msgs[len(msgs)-1]; got.Role != chat.RoleAssistant || got.Content != last.Text {
			t.Errorf("last session entry = %+v, want the surrogate as assistant", got)
		}
	})

	t.Run("debug shows the retrieval summary", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()
		tui.state = StateThinking
		tui.opts.Debug = true

		model, _ := tui.Update(turnDoneMsg{out: chat.Output{Answer: "a", Summary: "standalone query"}})
		result := model.(*TUI)

		if len(result.messages) != 2 {
			t.Fatalf("len(messages) = %d, want 2 (summary + answer)", len(result.messages))
		}
		if result.messages[0].Role != roleSystem ||
			!strings.Contains(result.messages[0].Text, "standalone query") {
			t.Errorf("messages[0] = %+v, want summary system entry", result.messages[0])
		}
	})

	t.Run("debug off hides the summary", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()
		tui.state = StateThinking

		model, _ := tui.Update(turnDoneMsg{out: chat.Output{Answer: "a", Summary: "s"}})
		result := model.(*TUI)

		if len(result.messages) != 1 {
			t.Errorf("len(messages) = %d, want 1 (answer only)", len(result.messages))
		}
	})
}

func TestDescribeError(t *testing.T) {
	tui := newTestTUI()
	defer tui.ctxCancel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no connection", warehouse.ErrNoConnection, "No connection to Snowflake. Check your credentials and restart."},
		{"no response", cortex.ErrNoResponse, "No response received from Snowflake."},
		{"canceled", context.Canceled, "(Canceled)"},
		{"timeout", context.DeadlineExceeded, "The request timed out. Try again or ask a simpler question."},
		{"wrapped no connection", errors.Join(errors.New("turn"), warehouse.ErrNoConnection), "No connection to Snowflake. Check your credentials and restart."},
		{"other", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tui.describeError(tt.err); got != tt.want {
				t.Errorf("describeError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleSlashCommands(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	t.Run("help adds the command list", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()

		model, _ := tui.handleSlashCommand("/help")
		result := model.(*TUI)

		if len(result.messages) != 1 || result.messages[0].Role != roleSystem {
			t.Fatalf("messages = %+v, want one system entry", result.messages)
		}
		if !strings.Contains(result.messages[0].Text, "/upload") {
			t.Error("help text missing /upload")
		}
	})

	t.Run("clear resets transcript and conversation", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()
		tui.messages = []Message{{Role: roleUser, Text: "q"}, {Role: roleAssistant, Text: "a"}}
		tui.session.Append(chat.RoleUser, "q")
		tui.session.Append(chat.RoleAssistant, "a")

		model, _ := tui.handleSlashCommand("/clear")
		result := model.(*TUI)

		if len(result.messages) != 0 {
			t.Errorf("len(messages) = %d, want 0", len(result.messages))
		}
		if result.session.Len() != 0 {
			t.Errorf("session.Len() = %d, want 0", result.session.Len())
		}
	})

	t.Run("model without args lists models", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()

		model, _ := tui.handleSlashCommand("/model")
		result := model.(*TUI)

		if len(result.messages) != 1 {
			t.Fatalf("len(messages) = %d, want 1", len(result.messages))
		}
		if !strings.Contains(result.messages[0].Text, cortex.DefaultModel) {
			t.Error("model listing missing the current model")
		}
	})

	t.Run("model switches to a supported model", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()

		model, _ := tui.handleSlashCommand("/model llama3-70b")
		result := model.(*TUI)

		if result.opts.Model != "llama3-70b" {
			t.Errorf("Model = %q, want llama3-70b", result.opts.Model)
		}
	})

	t.Run("model rejects an unknown model", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()

		model, _ := tui.handleSlashCommand("/model gpt-4")
		result := model.(*TUI)

		if result.opts.Model != cortex.DefaultModel {
			t.Errorf("Model = %q, want unchanged", result.opts.Model)
		}
		if len(result.messages) != 1 || result.messages[0].Role != roleError {
			t.Errorf("messages = %+v, want one error entry", result.messages)
		}
	})

	t.Run("history toggles", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()

		model, _ := tui.handleSlashCommand("/history off")
		result := model.(*TUI)
		if result.opts.UseHistory {
			t.Error("UseHistory = true, want false after /history off")
		}

		model, _ = result.handleSlashCommand("/history on")
		result = model.(*TUI)
		if !result.opts.UseHistory {
			t.Error("UseHistory = false, want true after /history on")
		}

		model, _ = result.handleSlashCommand("/history maybe")
		result = model.(*TUI)
		last := result.messages[len(result.messages)-1]
		if last.Role != roleError {
			t.Errorf("bad usage should add an error entry, got %+v", last)
		}
	})

	t.Run("debug toggles", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()

		model, _ := tui.handleSlashCommand("/debug")
		result := model.(*TUI)
		if !result.opts.Debug {
			t.Error("Debug = false, want true after /debug")
		}

		model, _ = result.handleSlashCommand("/debug")
		result = model.(*TUI)
		if result.opts.Debug {
			t.Error("Debug = true, want false after second /debug")
		}
	})

	t.Run("exit and quit return the quit command", func(t *testing.T) {
		for _, cmd := range []string{"/exit", "/quit"} {
			tui := newTestTUI()
			_, teaCmd := tui.handleSlashCommand(cmd)
			if teaCmd == nil {
				t.Errorf("%s should return a quit command", cmd)
			}
		}
	})

	t.Run("upload without a path is an error", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()

		model, teaCmd := tui.handleSlashCommand("/upload")
		result := model.(*TUI)

		if teaCmd != nil {
			t.Error("bad /upload should not start a command")
		}
		if len(result.messages) != 1 || result.messages[0].Role != roleError {
			t.Errorf("messages = %+v, want one error entry", result.messages)
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()

		model, _ := tui.handleSlashCommand("/frobnicate")
		result := model.(*TUI)

		if len(result.messages) != 1 || result.messages[0].Role != roleError {
			t.Errorf("messages = %+v, want one error entry", result.messages)
		}
	})
}

func TestHistoryNavigation(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI()
	defer tui.ctxCancel()
	tui.history = []string{"first", "second", "third"}
	tui.historyIdx = 3

	tests := []struct {
		delta    int
		expected string
	}{
		{-1, "third"},
		{-1, "second"},
		{-1, "first"},
		{-1, "first"}, // stays at the oldest
		{1, "second"},
		{1, "third"},
		{1, ""}, // past the end is a blank line
		{1, ""},
	}

	for i, tt := range tests {
		model, _ := tui.navigateHistory(tt.delta)
		tui = model.(*TUI)
		if tui.input.Value() != tt.expected {
			t.Errorf("step %d: input = %q, want %q", i, tui.input.Value(), tt.expected)
		}
	}
}

func TestCtrlC(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	t.Run("clears input when idle", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()
		tui.input.SetValue("half a question")

		model, _ := tui.handleCtrlC()
		result := model.(*TUI)

		if result.input.Value() != "" {
			t.Error("first Ctrl+C should clear the input")
		}
	})

	t.Run("cancels the in-flight turn", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()
		tui.state = StateThinking
		canceled := false
		tui.turnCancel = func() { canceled = true }

		_, _ = tui.handleCtrlC()

		if !canceled {
			t.Error("Ctrl+C while thinking should cancel the turn")
		}
		if tui.turnCancel != nil {
			t.Error("turnCancel should be nil after cancel")
		}
	})

	t.Run("double press quits", func(t *testing.T) {
		tui := newTestTUI()
		tui.lastCtrlC = time.Now()

		_, cmd := tui.handleCtrlC()
		if cmd == nil {
			t.Error("double Ctrl+C should return the quit command")
		}
	})
}

func TestEscCancelsThinking(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI()
	defer tui.ctxCancel()
	tui.state = StateThinking
	canceled := false
	tui.turnCancel = func() { canceled = true }

	key := tea.Key{Code: tea.KeyEscape}
	_, _ = tui.Update(tea.KeyPressMsg(key))

	if !canceled {
		t.Error("Esc while thinking should cancel the turn")
	}
}

func TestUpdate_CtrlCKeyPress(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI()
	defer tui.ctxCancel()
	tui.input.SetValue("typed")

	key := tea.Key{Code: 'c', Mod: tea.ModCtrl}
	model, _ := tui.Update(tea.KeyPressMsg(key))
	result := model.(*TUI)

	if result.input.Value() != "" {
		t.Error("Ctrl+C key press should clear the input")
	}
}

func TestAddMessageBounds(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI()
	defer tui.ctxCancel()

	for i := 0; i < maxMessages+50; i++ {
		tui.addMessage(Message{Role: roleUser, Text: "entry"})
	}

	if len(tui.messages) != maxMessages {
		t.Errorf("len(messages) = %d, want %d", len(tui.messages), maxMessages)
	}
}

func TestRenderDocList(t *testing.T) {
	t.Run("empty stage", func(t *testing.T) {
		got := renderDocList(nil)
		if !strings.Contains(got, "/upload") {
			t.Errorf("renderDocList(nil) = %q, want upload hint", got)
		}
	})

	t.Run("lists names and sizes", func(t *testing.T) {
		got := renderDocList([]stage.Object{
			{Name: "docs/manual.pdf.gz", Size: 1024},
			{Name: "docs/faq.txt.gz", Size: 64},
		})
		for _, want := range []string{"docs/manual.pdf.gz", "1024", "docs/faq.txt.gz", "64"} {
			if !strings.Contains(got, want) {
				t.Errorf("renderDocList() missing %q:\n%s", want, got)
			}
		}
	})
}

func TestDocsMsg(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	t.Run("listing success", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()

		model, _ := tui.Update(docsMsg{objects: []stage.Object{{Name: "a.gz", Size: 1}}})
		result := model.(*TUI)

		if len(result.messages) != 1 || result.messages[0].Role != roleSystem {
			t.Errorf("messages = %+v, want one system entry", result.messages)
		}
	})

	t.Run("listing error", func(t *testing.T) {
		tui := newTestTUI()
		defer tui.ctxCancel()

		model, _ := tui.Update(docsMsg{err: warehouse.ErrNoConnection})
		result := model.(*TUI)

		if len(result.messages) != 1 || result.messages[0].Role != roleError {
			t.Errorf("messages = %+v, want one error entry", result.messages)
		}
	})
}

func TestViewContainsPromptAndTranscript(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI()
	defer tui.ctxCancel()
	tui.addMessage(Message{Role: roleUser, Text: "hello there"})
	tui.rebuildViewportContent()

	view := tui.View()
	if view.Content == nil {
		t.Fatal("View content should not be nil")
	}
	if !view.AltScreen {
		t.Error("View should use the alt screen")
	}
}
