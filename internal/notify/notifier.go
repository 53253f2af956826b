package notify

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Sender defines the interface for delivering a formatted notice
type Sender interface {
	SendMarkdown(chatID int64, text string) error
}

// Notifier sends a one-way moderation notice for each relayed viewer
// submission. Send failures are logged and never surfaced to the
// submitter.
type Notifier struct {
	sender Sender
	chatID int64
}

// New creates a notifier targeting one moderation chat.
func New(sender Sender, chatID int64) *Notifier {
	return &Notifier{sender: sender, chatID: chatID}
}

// SubmissionReceived sends the notice for one relayed submission.
// title may be empty when the metadata probe came up short.
func (n *Notifier) SubmissionReceived(url, name, title string) {
	if n == nil || n.sender == nil {
		return
	}

	if err := n.sender.SendMarkdown(n.chatID, FormatSubmissionNotice(url, name, title)); err != nil {
		log.Error().Err(err).Str("url", url).Msg("Failed to send submission notice")
	}
}

// EscapeMarkdown escapes special characters for Telegram MarkdownV2 format
func EscapeMarkdown(text string) string {
	specialChars := []string{"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	result := text
	for _, char := range specialChars {
		result = strings.ReplaceAll(result, char, "\\"+char)
	}
	return result
}

// FormatSubmissionNotice formats one submission into a MarkdownV2
// moderation message: submitter name, probed title when present, and
// the submitted link.
func FormatSubmissionNotice(url, name, title string) string {
	var parts []string

	parts = append(parts, "📺 *New channel submission*")
	parts = append(parts, fmt.Sprintf("👤 %s", EscapeMarkdown(name)))
	if title != "" {
		parts = append(parts, fmt.Sprintf("📝 %s", EscapeMarkdown(title)))
	}
	parts = append(parts, fmt.Sprintf("🔗 %s", EscapeMarkdown(url)))

	return strings.Join(parts, "\n")
}
