package chat

import (
	"context"
	"strings"

	"github.com/snowchat/snowchat/internal/log"
)

// Completer is the completion surface the chat pipeline consumes.
// cortex.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Summarizer rewrites a question as a standalone retrieval query that folds
// in the recent chat history.
type Summarizer struct {
	completer Completer
	logger    log.Logger
}

// NewSummarizer creates a Summarizer on top of a completion client.
func NewSummarizer(completer Completer, logger log.Logger) *Summarizer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Summarizer{completer: completer, logger: logger}
}

// Rewrite asks the model to extend the question with the given prior turn
// contents. On any failure it returns "" with the error; callers treat that
// as "no usable summary" and retrieve with the raw question instead. The
// error never propagates into the chat turn.
func (s *Summarizer) Rewrite(ctx context.Context, history []string, question, model string) (string, error) {
	prompt := buildRewritePrompt(history, question)

	out, err := s.completer.Complete(ctx, model, prompt)
	if err != nil {
		s.logger.Debug("question rewrite failed", "error", err)
		return "", err
	}

	// Quotes are stripped so the rewritten query matches what the chunk
	// embeddings were built against.
	summary := strings.ReplaceAll(strings.TrimSpace(out), "'", "")
	s.logger.Debug("question rewritten", "length", len(summary))
	return summary, nil
}
