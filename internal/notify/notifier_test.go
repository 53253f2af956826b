package notify

import (
	"errors"
	"strings"
	"testing"
)

// MockSender implements Sender for testing
type MockSender struct {
	chatIDs  []int64
	messages []string
	err      error
}

func (m *MockSender) SendMarkdown(chatID int64, text string) error {
	m.chatIDs = append(m.chatIDs, chatID)
	m.messages = append(m.messages, text)
	return m.err
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "hello", "hello"},
		{"underscore", "agent_x", "agent\\_x"},
		{"dots in url", "youtu.be", "youtu\\.be"},
		{"mixed specials", "a-b(c)!", "a\\-b\\(c\\)\\!"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EscapeMarkdown(tt.input)
			if result != tt.expected {
				t.Errorf("EscapeMarkdown(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatSubmissionNotice(t *testing.T) {
	notice := FormatSubmissionNotice("https://youtu.be/dQw4w9WgXcQ", "Agent_X", "Cyber Sunset")

	if !strings.Contains(notice, "Agent\\_X") {
		t.Errorf("notice missing escaped name: %q", notice)
	}
	if !strings.Contains(notice, "Cyber Sunset") {
		t.Errorf("notice missing title: %q", notice)
	}
	if !strings.Contains(notice, "youtu\\.be") {
		t.Errorf("notice missing escaped url: %q", notice)
	}
}

func TestFormatSubmissionNotice_NoTitle(t *testing.T) {
	notice := FormatSubmissionNotice("https://vimeo.com/76979871", "Carol", "")

	if strings.Contains(notice, "📝") {
		t.Errorf("notice should omit the title line when empty: %q", notice)
	}
}

func TestSubmissionReceived(t *testing.T) {
	sender := &MockSender{}
	n := New(sender, 42)

	n.SubmissionReceived("https://youtu.be/dQw4w9WgXcQ", "Bob", "Neon City")

	if len(sender.messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.messages))
	}
	if sender.chatIDs[0] != 42 {
		t.Errorf("chatID = %d, want 42", sender.chatIDs[0])
	}
}

func TestSubmissionReceived_SendErrorIsSwallowed(t *testing.T) {
	sender := &MockSender{err: errors.New("telegram down")}
	n := New(sender, 42)

	// Must not panic or propagate.
	n.SubmissionReceived("https://youtu.be/dQw4w9WgXcQ", "Bob", "")
}

func TestSubmissionReceived_NilNotifier(t *testing.T) {
	var n *Notifier
	n.SubmissionReceived("https://youtu.be/dQw4w9WgXcQ", "Bob", "")
}
