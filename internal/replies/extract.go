package replies

import "regexp"

// Alert notifications embed "Alert ID: <uuid>" so replies can be
// correlated back. The backtick variant covers Telegram's Markdown
// rendering.
var alertIDPattern = regexp.MustCompile("Alert ID:\\s*`?([0-9a-fA-F-]{36})`?")

// ExtractAlertID pulls the correlated alert id out of quoted
// notification text. Returns "" when no id is present.
func ExtractAlertID(text string) string {
	m := alertIDPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
