package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/logguard-ai/logguard/internal/models"
)

// fakeCompleter returns a scripted completion or error.
type fakeCompleter struct {
	content  string
	err      error
	lastUser string
	lastSys  string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	f.lastSys = system
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

func (f *fakeCompleter) Language() string { return "english" }

func TestAnalyzeParsesModelVerdict(t *testing.T) {
	fc := &fakeCompleter{content: `{"isAnomalous": true, "severity": "critical", "summary": "brute force", "suggestion": "block the IP", "confidence": 93}`}
	cl := NewClassifier(fc)

	v := cl.Analyze(context.Background(), "failed login x50", "web-01", time.Now())
	if !v.IsAnomalous || v.Severity != models.SeverityCritical || v.Confidence != 93 {
		t.Errorf("verdict = %+v", v)
	}
	if !strings.Contains(fc.lastUser, "web-01") {
		t.Error("prompt should carry the host")
	}
	if !strings.Contains(fc.lastSys, "cybersecurity expert") {
		t.Error("system prompt missing role")
	}
}

func TestAnalyzeExtractsWrappedJSON(t *testing.T) {
	fc := &fakeCompleter{content: "Here is my analysis:\n```json\n{\"isAnomalous\": true, \"severity\": \"warning\", \"summary\": \"s\", \"suggestion\": \"g\", \"confidence\": 80}\n```"}
	cl := NewClassifier(fc)

	v := cl.Analyze(context.Background(), "msg", "h", time.Now())
	if !v.IsAnomalous || v.Confidence != 80 {
		t.Errorf("wrapped JSON not extracted: %+v", v)
	}
}

func TestAnalyzeHeuristicFallback(t *testing.T) {
	tests := []struct {
		name          string
		message       string
		wantAnomalous bool
	}{
		{"contains error", "disk ERROR on sda", true},
		{"contains failed", "authentication Failed for root", true},
		{"benign", "user logged in", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompleter{content: "I could not produce JSON, sorry"}
			cl := NewClassifier(fc)

			v := cl.Analyze(context.Background(), tt.message, "h", time.Now())
			if v.IsAnomalous != tt.wantAnomalous {
				t.Errorf("IsAnomalous = %v, want %v", v.IsAnomalous, tt.wantAnomalous)
			}
			if v.Severity != models.SeverityWarning {
				t.Errorf("severity = %s, want warning", v.Severity)
			}
			if v.Confidence != 50 {
				t.Errorf("confidence = %d, want 50", v.Confidence)
			}
		})
	}
}

func TestAnalyzeCallFailure(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("connection refused")}
	cl := NewClassifier(fc)

	v := cl.Analyze(context.Background(), "some ERROR happened", "h", time.Now())
	if v.IsAnomalous {
		t.Error("call failure must not guess anomalous")
	}
	if v.Confidence != 0 {
		t.Errorf("confidence = %d, want 0 for unavailable analysis", v.Confidence)
	}
	if v.Severity != models.SeverityInfo {
		t.Errorf("severity = %s, want info", v.Severity)
	}
}

func TestAnalyzeNormalizesVerdict(t *testing.T) {
	fc := &fakeCompleter{content: `{"isAnomalous": true, "severity": "CATASTROPHIC", "summary": "s", "suggestion": "g", "confidence": 250}`}
	cl := NewClassifier(fc)

	v := cl.Analyze(context.Background(), "msg", "h", time.Now())
	if v.Confidence != 100 {
		t.Errorf("confidence = %d, want clamped to 100", v.Confidence)
	}
	if v.Severity != models.SeverityWarning {
		t.Errorf("unknown severity should normalize to warning, got %s", v.Severity)
	}
}

func TestResponderBuildsResponse(t *testing.T) {
	fc := &fakeCompleter{content: "Run journalctl -u nginx and check the last restart."}
	r := NewResponder(fc)

	msg := models.NewIncomingMessage(models.SourceTelegram, "ops-chat", "what happened to nginx?", "alert-42")
	resp, err := r.Respond(context.Background(), msg)
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if resp.AlertID != "alert-42" {
		t.Errorf("AlertID = %q", resp.AlertID)
	}
	if resp.UserMessage != msg.Message {
		t.Error("user message should be denormalized onto the response")
	}
	if resp.Confidence != replyConfidence {
		t.Errorf("confidence = %d, want %d", resp.Confidence, replyConfidence)
	}
	if !strings.Contains(fc.lastUser, "alert-42") {
		t.Error("prompt should include the correlated alert id")
	}
}

func TestResponderUncorrelatedMessage(t *testing.T) {
	fc := &fakeCompleter{content: "answer"}
	r := NewResponder(fc)

	msg := models.NewIncomingMessage(models.SourceEmail, "admin@example.com", "hello", "")
	resp, err := r.Respond(context.Background(), msg)
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if resp.AlertID != "unknown" {
		t.Errorf("AlertID = %q, want unknown", resp.AlertID)
	}
}

func TestResponderPropagatesFailure(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("boom")}
	r := NewResponder(fc)

	msg := models.NewIncomingMessage(models.SourceEmail, "a@b", "hi", "")
	if _, err := r.Respond(context.Background(), msg); err == nil {
		t.Fatal("expected error")
	}
}
