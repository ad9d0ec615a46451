package replies

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/internal/store"
)

type fakeResponder struct {
	resp *models.AIResponse
	err  error
}

func (f *fakeResponder) Respond(_ context.Context, msg *models.IncomingMessage) (*models.AIResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeRelay struct {
	relayed []*models.AIResponse
	ok      bool
}

func (f *fakeRelay) RelayReply(_ context.Context, _ *models.IncomingMessage, resp *models.AIResponse) bool {
	f.relayed = append(f.relayed, resp)
	return f.ok
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "replies.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProcessReplyFullLoop(t *testing.T) {
	resp := models.NewAIResponse("alert-1", "what now?", "Restart nginx.", 85)
	relay := &fakeRelay{ok: true}
	c := NewCorrelator(testStore(t), &fakeResponder{resp: resp}, relay)

	msg := models.NewIncomingMessage(models.SourceTelegram, "ops", "what now?", "alert-1")
	got := c.ProcessReply(context.Background(), msg)
	if got == nil || got.Response != "Restart nginx." {
		t.Fatalf("ProcessReply() = %+v", got)
	}

	if in := c.Incoming(); len(in) != 1 || in[0].ID != msg.ID {
		t.Errorf("incoming history = %+v", in)
	}
	if rs := c.Responses(); len(rs) != 1 || rs[0].ID != resp.ID {
		t.Errorf("response history = %+v", rs)
	}
	if len(relay.relayed) != 1 {
		t.Errorf("relayed = %d, want 1", len(relay.relayed))
	}
}

func TestProcessReplyResponderFailure(t *testing.T) {
	relay := &fakeRelay{ok: true}
	c := NewCorrelator(nil, &fakeResponder{err: errors.New("model down")}, relay)

	msg := models.NewIncomingMessage(models.SourceEmail, "a@b", "help", "")
	if got := c.ProcessReply(context.Background(), msg); got != nil {
		t.Errorf("ProcessReply() = %+v, want nil on responder failure", got)
	}
	// The inbound message is still recorded.
	if len(c.Incoming()) != 1 {
		t.Error("failed reply should still record the incoming message")
	}
	if len(relay.relayed) != 0 {
		t.Error("nothing to relay on responder failure")
	}
}

func TestProcessReplyRelayFailureIsSwallowed(t *testing.T) {
	resp := models.NewAIResponse("a", "q", "r", 85)
	c := NewCorrelator(nil, &fakeResponder{resp: resp}, &fakeRelay{ok: false})

	msg := models.NewIncomingMessage(models.SourceTelegram, "ops", "q", "a")
	if got := c.ProcessReply(context.Background(), msg); got == nil {
		t.Error("relay failure must not discard the generated response")
	}
	if len(c.Responses()) != 1 {
		t.Error("response should be recorded despite relay failure")
	}
}

func TestIncomingHistoryBounded(t *testing.T) {
	c := NewCorrelator(nil, &fakeResponder{}, nil)
	ctx := context.Background()

	for i := 0; i < 130; i++ {
		c.RecordIncoming(ctx, models.NewIncomingMessage(models.SourceTelegram, "s", fmt.Sprintf("msg %d", i), ""))
	}

	in := c.Incoming()
	if len(in) != 100 {
		t.Fatalf("incoming length = %d, want 100", len(in))
	}
	if in[0].Message != "msg 129" {
		t.Errorf("head = %q, want newest", in[0].Message)
	}
	if in[len(in)-1].Message != "msg 30" {
		t.Errorf("tail = %q, oldest should be evicted", in[len(in)-1].Message)
	}
}

func TestResponseHistoryBounded(t *testing.T) {
	c := NewCorrelator(nil, &fakeResponder{}, nil)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		c.RecordResponse(ctx, models.NewAIResponse("a", "q", fmt.Sprintf("r %d", i), 85))
	}

	rs := c.Responses()
	if len(rs) != 50 {
		t.Fatalf("responses length = %d, want 50", len(rs))
	}
	if rs[0].Response != "r 59" {
		t.Errorf("head = %q, want newest", rs[0].Response)
	}
}

func TestHistorySurvivesRestart(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	c1 := NewCorrelator(st, &fakeResponder{}, nil)
	c1.RecordIncoming(ctx, models.NewIncomingMessage(models.SourceEmail, "a@b", "hello", ""))
	c1.RecordResponse(ctx, models.NewAIResponse("alert-1", "hello", "hi", 85))

	c2 := NewCorrelator(st, &fakeResponder{}, nil)
	if err := c2.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(c2.Incoming()) != 1 || len(c2.Responses()) != 1 {
		t.Errorf("restored %d incoming, %d responses", len(c2.Incoming()), len(c2.Responses()))
	}
}

func TestResponsesForAlert(t *testing.T) {
	c := NewCorrelator(nil, &fakeResponder{}, nil)
	ctx := context.Background()

	c.RecordResponse(ctx, models.NewAIResponse("alert-1", "q1", "r1", 85))
	c.RecordResponse(ctx, models.NewAIResponse("alert-2", "q2", "r2", 85))
	c.RecordResponse(ctx, models.NewAIResponse("alert-1", "q3", "r3", 85))

	got := c.ResponsesForAlert("alert-1")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, r := range got {
		if r.AlertID != "alert-1" {
			t.Errorf("AlertID = %q", r.AlertID)
		}
	}
}
