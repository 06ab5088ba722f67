package chat

import (
	"github.com/google/uuid"
)

// Role constants define valid message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation entry. Immutable once created.
type Message struct {
	ID      uuid.UUID
	Role    string
	Content string
}

// NewMessage creates a Message with a fresh ID.
func NewMessage(role, content string) Message {
	return Message{ID: uuid.New(), Role: role, Content: content}
}

// Session holds the ordered conversation state for one interactive session.
// Each user message is eventually followed by one assistant message, except
// for the most recent pending turn being answered. Lifetime is the process;
// nothing is persisted.
//
// Session is not safe for concurrent use. The terminal UI owns it and
// mutates it only from its update loop, which is the only writer.
type Session struct {
	messages []Message
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// Append adds a message with the given role and content.
func (s *Session) Append(role, content string) {
	s.messages = append(s.messages, NewMessage(role, content))
}

// Messages returns a copy of the conversation, in insertion order.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Session) Len() int {
	return len(s.messages)
}

// Reset clears the conversation, returning the session to its initial empty
// state irrespective of prior length.
func (s *Session) Reset() {
	s.messages = nil
}

// Window returns the content of at most n prior messages, oldest first,
// always excluding the most recent entry (the pending turn being answered).
// For a conversation of length L it returns min(L-1, n) entries.
func (s *Session) Window(n int) []string {
	if n <= 0 || len(s.messages) <= 1 {
		return nil
	}

	end := len(s.messages) - 1 // exclude the pending entry
	start := max(end-n, 0)

	window := make([]string, 0, end-start)
	for _, m := range s.messages[start:end] {
		window = append(window, m.Content)
	}
	return window
}
