package metrics

import (
	"fmt"
	"testing"
	"time"
)

func record(endpoint string, d time.Duration, success bool) CallRecord {
	status := 200
	if !success {
		status = 500
	}
	return CallRecord{
		Endpoint: endpoint,
		Method:   "GET",
		Status:   status,
		Duration: d,
		Success:  success,
	}
}

func TestRecorderBound(t *testing.T) {
	r := NewRecorder(10)

	for i := 0; i < 25; i++ {
		rec := record("/api/search", time.Duration(i)*time.Millisecond, true)
		rec.Timestamp = time.Now().Add(time.Duration(i) * time.Second)
		r.Record(rec)
	}

	if got := r.Len(); got != 10 {
		t.Fatalf("Len() = %d, want 10", got)
	}

	// The survivors must be the 10 most recent inserts (15..24ms).
	s := r.Summary()
	for _, rec := range s.RecentCalls {
		if rec.Duration < 15*time.Millisecond {
			t.Errorf("old record survived eviction: %v", rec.Duration)
		}
	}
}

func TestRecorderSummary(t *testing.T) {
	r := NewRecorder(100)
	r.Record(record("/api/search", 100*time.Millisecond, true))
	r.Record(record("/api/search", 300*time.Millisecond, true))
	r.Record(record("/api/system", 10*time.Millisecond, false))

	s := r.Summary()
	if s.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", s.TotalRequests)
	}
	if s.SuccessfulRequests != 2 || s.FailedRequests != 1 {
		t.Errorf("success/failed = %d/%d, want 2/1", s.SuccessfulRequests, s.FailedRequests)
	}
	if s.SlowestEndpoint != "GET /api/search" {
		t.Errorf("SlowestEndpoint = %q", s.SlowestEndpoint)
	}
	if s.FastestEndpoint != "GET /api/system" {
		t.Errorf("FastestEndpoint = %q", s.FastestEndpoint)
	}

	wantRate := 1.0 / 3.0 * 100
	if diff := s.ErrorRate - wantRate; diff > 0.001 || diff < -0.001 {
		t.Errorf("ErrorRate = %f, want %f", s.ErrorRate, wantRate)
	}
}

func TestRecorderEmptySummary(t *testing.T) {
	r := NewRecorder(0)
	s := r.Summary()
	if s.TotalRequests != 0 || s.SlowestEndpoint != "" {
		t.Errorf("empty summary = %+v", s)
	}
	if r.ErrorRate() != 0 {
		t.Errorf("ErrorRate() = %f, want 0", r.ErrorRate())
	}
}

func TestRecorderPercentile(t *testing.T) {
	r := NewRecorder(100)
	for i := 1; i <= 100; i++ {
		r.Record(record(fmt.Sprintf("/e%d", i), time.Duration(i)*time.Millisecond, true))
	}

	if got := r.Percentile(95); got != 95*time.Millisecond {
		t.Errorf("Percentile(95) = %v, want 95ms", got)
	}
	if got := r.Percentile(100); got != 100*time.Millisecond {
		t.Errorf("Percentile(100) = %v, want 100ms", got)
	}
}

func TestRecorderReset(t *testing.T) {
	r := NewRecorder(10)
	r.Record(record("/api/search", time.Millisecond, true))
	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len() after reset = %d, want 0", r.Len())
	}
}
