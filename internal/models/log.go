// Package models contains the core data structures for LogGuard.
package models

import (
	"encoding/json"
	"time"
)

// LogLevel represents the severity level of a log entry.
type LogLevel string

const (
	LevelDebug   LogLevel = "debug"
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
	LevelFatal   LogLevel = "fatal"
	LevelUnknown LogLevel = "unknown"
)

// LogEntry represents a single log record fetched from the log store.
// Entries are immutable once fetched.
type LogEntry struct {
	// ID is the log store's unique identifier for the message.
	ID string `json:"id"`

	// Timestamp is when the log event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Host is the machine the entry originated from.
	Host string `json:"host"`

	// Level is the numeric syslog-style level reported by the backend.
	Level int `json:"level"`

	// Message is the short log message.
	Message string `json:"message"`

	// FullMessage is the complete message body, when the backend provides one.
	FullMessage string `json:"full_message,omitempty"`

	// Facility is the syslog facility or subsystem tag.
	Facility string `json:"facility,omitempty"`

	// Source identifies the input or stream the entry came from.
	Source string `json:"source,omitempty"`
}

// Content returns the text used for analysis and rule matching:
// the full message when present, the short message otherwise.
func (e *LogEntry) Content() string {
	if e.FullMessage != "" {
		return e.FullMessage
	}
	return e.Message
}

// SeverityLevel maps the backend's numeric level onto a LogLevel.
// Syslog numbering: 0-3 error territory, 4 warning, 5-6 info, 7 debug.
func (e *LogEntry) SeverityLevel() LogLevel {
	switch {
	case e.Level <= 3:
		return LevelError
	case e.Level == 4:
		return LevelWarning
	case e.Level <= 6:
		return LevelInfo
	case e.Level == 7:
		return LevelDebug
	default:
		return LevelUnknown
	}
}

// IsError returns true if the entry's numeric level is in error territory.
func (e *LogEntry) IsError() bool {
	return e.SeverityLevel() == LevelError
}

// JSON returns the log entry as JSON bytes.
func (e *LogEntry) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// String returns a string representation of the log entry.
func (e *LogEntry) String() string {
	return e.Timestamp.Format(time.RFC3339) + " " + e.Host + " " + e.Message
}
