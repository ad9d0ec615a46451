package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/logguard-ai/logguard/internal/models"
)

// TelegramMessage renders the fixed-format Markdown alert message,
// including the reply instructions that drive the conversational loop.
func TelegramMessage(alert *models.Alert) string {
	var b strings.Builder
	b.WriteString("\U0001F6A8 *LogGuard AI Alert*\n\n")
	fmt.Fprintf(&b, "*Level:* %s\n", strings.ToUpper(string(alert.Severity)))
	fmt.Fprintf(&b, "*Host:* %s\n", alert.Host)
	fmt.Fprintf(&b, "*Time:* %s\n\n", alert.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "*Issue:* %s\n\n", alert.Message)
	fmt.Fprintf(&b, "\U0001F916 *AI Suggestion:*\n%s\n\n", alert.AISuggestion)
	b.WriteString("\U0001F4AC *Reply to this message to interact with the AI*\n")
	b.WriteString("The AI will process your reply and provide further assistance.\n\n")
	fmt.Fprintf(&b, "\U0001F517 Alert ID: `%s`", alert.ID)
	return b.String()
}

// EmailSubject renders the fixed alert email subject.
func EmailSubject(alert *models.Alert) string {
	return fmt.Sprintf("LogGuard AI Alert - %s on %s", strings.ToUpper(string(alert.Severity)), alert.Host)
}

// EmailBody renders the fixed plain-text alert email body.
func EmailBody(alert *models.Alert) string {
	var b strings.Builder
	b.WriteString("Alert Details:\n")
	fmt.Fprintf(&b, "- Level: %s\n", strings.ToUpper(string(alert.Severity)))
	fmt.Fprintf(&b, "- Host: %s\n", alert.Host)
	fmt.Fprintf(&b, "- Timestamp: %s\n", alert.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Message: %s\n\n", alert.Message)
	fmt.Fprintf(&b, "AI Suggestion:\n%s\n\n", alert.AISuggestion)
	b.WriteString("=== REPLY TO THIS EMAIL TO INTERACT WITH THE AI ===\n")
	b.WriteString("The AI will process your reply and provide further assistance.\n")
	fmt.Fprintf(&b, "Alert ID: %s\n", alert.ID)
	b.WriteString("===================================================\n")
	return b.String()
}

// ReplySubject renders the subject for an AI reply relayed over email.
func ReplySubject(alertID string) string {
	if alertID == "" || alertID == "unknown" {
		return "LogGuard AI Response"
	}
	return fmt.Sprintf("LogGuard AI Response - Alert %s", alertID)
}
