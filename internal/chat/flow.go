package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/snowchat/snowchat/internal/log"
)

// ContextRetriever is the retrieval surface the chat pipeline consumes.
// retrieval.Retriever satisfies it.
type ContextRetriever interface {
	ContextFor(ctx context.Context, question string) (string, error)
}

// Input is one user turn plus the session knobs that shape it. History is the
// sliding window computed by the caller (Session.Window), excluding the
// pending question.
type Input struct {
	Question   string
	History    []string
	Model      string
	UseHistory bool
}

// Output carries the answer plus the intermediate artifacts the debug view
// shows.
type Output struct {
	Answer  string
	Summary string // rewritten retrieval query, "" when history was unused or rewrite failed
	Context string // concatenated retrieved chunks, possibly ""
}

// Flow runs the per-turn pipeline: rewrite (optional) → retrieve → assemble →
// complete. One Flow serves the whole session; it holds no per-turn state.
type Flow struct {
	retriever  ContextRetriever
	completer  Completer
	summarizer *Summarizer
	logger     log.Logger
}

// NewFlow wires the pipeline stages together.
func NewFlow(retriever ContextRetriever, completer Completer, logger log.Logger) *Flow {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Flow{
		retriever:  retriever,
		completer:  completer,
		summarizer: NewSummarizer(completer, logger),
		logger:     logger,
	}
}

// Turn executes one full turn. Stages run strictly in sequence on the calling
// goroutine; ctx bounds the whole turn.
//
// Degradation policy: a rewrite failure falls back to retrieving with the raw
// question; a retrieval failure falls back to an empty context. Both keep the
// turn alive. Only a completion failure returns an error, and even then the
// partial Output (summary, context) is returned for display.
func (f *Flow) Turn(ctx context.Context, in Input) (Output, error) {
	var out Output

	searchQuery := in.Question
	if in.UseHistory && len(in.History) > 0 {
		summary, err := f.summarizer.Rewrite(ctx, in.History, in.Question, in.Model)
		if err == nil && summary != "" {
			searchQuery = summary
			out.Summary = summary
		}
		// On failure searchQuery stays the raw question; Rewrite already
		// logged the cause.
	}

	contextText, err := f.retriever.ContextFor(ctx, searchQuery)
	if err != nil {
		f.logger.Warn("retrieval failed, answering without context", "error", err)
		contextText = ""
	}
	out.Context = contextText

	historySegment := ""
	if in.UseHistory {
		historySegment = strings.Join(in.History, "\n")
	}

	prompt := BuildPrompt(historySegment, contextText, in.Question)

	answer, err := f.completer.Complete(ctx, in.Model, prompt)
	if err != nil {
		return out, fmt.Errorf("generating answer: %w", err)
	}

	// Strip quotes for display, mirroring the retrieval-side sanitation.
	out.Answer = strings.ReplaceAll(answer, "'", "")
	return out, nil
}
