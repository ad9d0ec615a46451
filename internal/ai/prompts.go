package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/logguard-ai/logguard/internal/models"
)

// languageDirectives instruct the model which language to answer in.
var languageDirectives = map[string]string{
	"english": "Always respond in English.",
	"italian": "Rispondi sempre in italiano.",
	"spanish": "Responde siempre en español.",
	"french":  "Réponds toujours en français.",
	"german":  "Antworte immer auf Deutsch.",
}

// languageDirective returns the directive for lang, defaulting to English.
func languageDirective(lang string) string {
	if d, ok := languageDirectives[strings.ToLower(lang)]; ok {
		return d
	}
	return languageDirectives["english"]
}

// analysisSystemPrompt is the fixed system role for log classification.
func analysisSystemPrompt(lang string) string {
	return fmt.Sprintf("You are a cybersecurity expert analyzing log files. %s Respond only with valid JSON.",
		languageDirective(lang))
}

// analysisPrompt templates the user prompt for one log entry.
func analysisPrompt(lang, logMessage, host string, timestamp time.Time) string {
	return fmt.Sprintf(`%s

Analyze this log message for potential security issues, errors, or anomalies:

Host: %s
Timestamp: %s
Log: %s

Please provide:
1. Is this anomalous or concerning? (yes/no)
2. Severity level (critical/warning/info)
3. Brief summary of the issue
4. Specific remediation steps or commands
5. Confidence level (0-100)

Format your response as JSON with keys: isAnomalous, severity, summary, suggestion, confidence`,
		languageDirective(lang), host, timestamp.Format(time.RFC3339), logMessage)
}

// replySystemPrompt is the fixed system role for the reply loop.
func replySystemPrompt(lang string) string {
	return fmt.Sprintf("You are a cybersecurity and system administration expert. Always provide precise, professional, and helpful responses. %s",
		languageDirective(lang))
}

// replyPrompt templates the user prompt for an inbound human message,
// including the correlated alert identifier when present.
func replyPrompt(lang string, msg *models.IncomingMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", languageDirective(lang))
	b.WriteString("You are assisting a system administrator who replied to a monitoring alert.\n\n")
	fmt.Fprintf(&b, "Message received from: %s\n", msg.Sender)
	fmt.Fprintf(&b, "Channel: %s\n", msg.Source)
	fmt.Fprintf(&b, "Timestamp: %s\n", msg.Timestamp.Format(time.RFC3339))
	if msg.RelatedAlertID != "" {
		fmt.Fprintf(&b, "Related alert: %s\n", msg.RelatedAlertID)
	}
	fmt.Fprintf(&b, "\nUser message:\n%q\n\n", msg.Message)
	b.WriteString("Provide a helpful, professional answer. Include specific details and commands when the user asks for technical information.")
	return b.String()
}
