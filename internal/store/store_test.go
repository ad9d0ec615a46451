package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/logguard-ai/logguard/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cfg := models.DefaultAppConfig()
	cfg.Graylog.URL = "http://graylog.internal:9000"
	if err := s.Put(ctx, KeyConfig, cfg); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var got models.AppConfig
	if err := s.Get(ctx, KeyConfig, &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Graylog.URL != cfg.Graylog.URL {
		t.Errorf("Graylog.URL = %q", got.Graylog.URL)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k", []string{"one"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "k", []string{"one", "two"}); err != nil {
		t.Fatal(err)
	}

	var got []string
	if err := s.Get(ctx, "k", &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got = %v, want latest value", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	var got map[string]any
	err := s.Get(context.Background(), "nope", &got)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k", 42); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var got int
	if !errors.Is(s.Get(ctx, "k", &got), ErrNotFound) {
		t.Error("deleted key should be gone")
	}

	if err := s.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("deleting a missing key should be a no-op, got %v", err)
	}
}

func TestMessageListsPersist(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	msgs := []*models.IncomingMessage{
		models.NewIncomingMessage(models.SourceTelegram, "ops", "what broke?", "alert-1"),
		models.NewIncomingMessage(models.SourceEmail, "a@b", "status?", ""),
	}
	if err := s.Put(ctx, KeyIncomingMessages, msgs); err != nil {
		t.Fatal(err)
	}

	var got []*models.IncomingMessage
	if err := s.Get(ctx, KeyIncomingMessages, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Sender != "ops" || got[1].Source != models.SourceEmail {
		t.Errorf("got = %+v", got)
	}
}
