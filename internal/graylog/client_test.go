package graylog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/logguard-ai/logguard/internal/metrics"
	"github.com/logguard-ai/logguard/internal/models"
)

const searchBody = `{
	"messages": [
		{"_id": "m2", "timestamp": "2025-06-01T10:00:12.000Z", "source": "web-01", "level": 3, "message": "db timeout", "full_message": "db timeout after 30s", "facility": "app"},
		{"_id": "m1", "timestamp": "2025-06-01T10:00:10.000Z", "source": "web-01", "level": 6, "message": "request ok", "facility": "app"}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg models.GraylogConfig) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.URL = srv.URL
	return NewClient(cfg, metrics.NewRecorder(10)), srv
}

func TestSearchMapsMessages(t *testing.T) {
	var gotQuery, gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/search/universal/relative" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %s, want 50", got)
		}
		if got := r.URL.Query().Get("sort"); got != "timestamp:desc" {
			t.Errorf("sort = %s, want timestamp:desc", got)
		}
		w.Write([]byte(searchBody))
	}, models.GraylogConfig{APIToken: "tok123"})

	entries, err := client.Search(context.Background(), "", 60)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotQuery != "*" {
		t.Errorf("empty query should default to *, got %q", gotQuery)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != "m2" || entries[1].ID != "m1" {
		t.Errorf("order not preserved: %s, %s", entries[0].ID, entries[1].ID)
	}
	if entries[0].Host != "web-01" {
		t.Errorf("host fallback to source failed: %q", entries[0].Host)
	}
	if entries[0].Content() != "db timeout after 30s" {
		t.Errorf("Content() = %q", entries[0].Content())
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("timestamp did not parse")
	}
	if !entries[0].Timestamp.After(entries[1].Timestamp) {
		t.Error("expected descending timestamps")
	}
}

func TestSearchBasicAuth(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			t.Errorf("basic auth = %q/%q ok=%v", user, pass, ok)
		}
		w.Write([]byte(`{"messages": []}`))
	}, models.GraylogConfig{Username: "admin", Password: "secret"})

	entries, err := client.Search(context.Background(), "*", 60)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("empty result should yield zero entries, got %d", len(entries))
	}
}

func TestSearchAuthFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, models.GraylogConfig{APIToken: "bad"})

	_, err := client.Search(context.Background(), "*", 60)
	if !IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestSearchTransportFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, models.GraylogConfig{})

	_, err := client.Search(context.Background(), "*", 60)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if IsAuthError(err) {
		t.Error("5xx must not classify as auth failure")
	}
	if te.Status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", te.Status)
	}
}

func TestSearchNetworkFailure(t *testing.T) {
	client := NewClient(models.GraylogConfig{URL: "http://127.0.0.1:1"}, nil)

	_, err := client.Search(context.Background(), "*", 60)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestSearchRecordsMetrics(t *testing.T) {
	rec := metrics.NewRecorder(10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages": []}`))
	}))
	defer srv.Close()

	client := NewClient(models.GraylogConfig{URL: srv.URL}, rec)
	if _, err := client.Search(context.Background(), "*", 60); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if rec.Len() != 1 {
		t.Fatalf("recorder holds %d records, want 1", rec.Len())
	}
	s := rec.Summary()
	if s.SuccessfulRequests != 1 {
		t.Errorf("successful = %d, want 1", s.SuccessfulRequests)
	}
}

func TestConnectionProbe(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"reachable", http.StatusOK, true},
		{"auth rejected", http.StatusUnauthorized, false},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/system" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}, models.GraylogConfig{APIToken: "tok"})

			if got := client.TestConnection(context.Background()); got != tt.want {
				t.Errorf("TestConnection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConnectionProbeUnreachable(t *testing.T) {
	client := NewClient(models.GraylogConfig{URL: "http://127.0.0.1:1"}, nil)
	if client.TestConnection(context.Background()) {
		t.Error("unreachable backend must probe false")
	}
}
