package chat

import (
	"fmt"
	"testing"
)

func TestSessionAppend(t *testing.T) {
	s := NewSession()

	s.Append(RoleUser, "hello")
	s.Append(RoleAssistant, "hi there")

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Len() = %d, want 2", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "hello" {
		t.Errorf("msgs[0] = %+v, want user hello", msgs[0])
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "hi there" {
		t.Errorf("msgs[1] = %+v, want assistant hi there", msgs[1])
	}
	if msgs[0].ID == msgs[1].ID {
		t.Error("messages share an ID, want unique IDs")
	}
}

func TestSessionMessagesReturnsCopy(t *testing.T) {
	s := NewSession()
	s.Append(RoleUser, "original")

	msgs := s.Messages()
	msgs[0].Content = "mutated"

	if got := s.Messages()[0].Content; got != "original" {
		t.Errorf("Messages()[0].Content = %q, want original", got)
	}
}

func TestSessionReset(t *testing.T) {
	s := NewSession()
	for i := 0; i < 10; i++ {
		s.Append(RoleUser, "msg")
	}

	s.Reset()

	if got := s.Len(); got != 0 {
		t.Errorf("Len() after Reset = %d, want 0", got)
	}
	if got := s.Window(7); got != nil {
		t.Errorf("Window(7) after Reset = %v, want nil", got)
	}
}

func TestSessionWindow(t *testing.T) {
	// fill appends length messages with contents "0", "1", ...
	fill := func(length int) *Session {
		s := NewSession()
		for i := 0; i < length; i++ {
			role := RoleUser
			if i%2 == 1 {
				role = RoleAssistant
			}
			s.Append(role, fmt.Sprintf("%d", i))
		}
		return s
	}

	tests := []struct {
		name   string
		length int
		n      int
		want   []string
	}{
		{"empty session", 0, 7, nil},
		{"single pending message", 1, 7, nil},
		{"two messages yields only the prior one", 2, 7, []string{"0"}},
		{"window smaller than history", 10, 3, []string{"6", "7", "8"}},
		{"window equal to prior history", 5, 4, []string{"0", "1", "2", "3"}},
		{"window larger than history", 4, 7, []string{"0", "1", "2"}},
		{"zero window", 10, 0, nil},
		{"negative window", 10, -1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fill(tt.length).Window(tt.n)

			if len(got) != len(tt.want) {
				t.Fatalf("Window(%d) = %v, want %v", tt.n, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Window(%d)[%d] = %q, want %q", tt.n, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSessionWindowExcludesPendingEntry(t *testing.T) {
	// The window never contains the most recent message, whatever n is.
	s := NewSession()
	s.Append(RoleUser, "earlier")
	s.Append(RoleAssistant, "reply")
	s.Append(RoleUser, "pending question")

	for _, n := range []int{1, 2, 3, 50} {
		for _, content := range s.Window(n) {
			if content == "pending question" {
				t.Errorf("Window(%d) contains the pending entry", n)
			}
		}
	}
}
