package metrics

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// defaultMaxRecords bounds the in-memory call history.
const defaultMaxRecords = 1000

// CallRecord is one timed outbound API call.
type CallRecord struct {
	Endpoint  string        `json:"endpoint"`
	Method    string        `json:"method"`
	Status    int           `json:"status"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Timestamp time.Time     `json:"timestamp"`
}

// Summary aggregates the recorded calls.
type Summary struct {
	TotalRequests      int           `json:"total_requests"`
	SuccessfulRequests int           `json:"successful_requests"`
	FailedRequests     int           `json:"failed_requests"`
	AverageDuration    time.Duration `json:"average_duration"`
	ErrorRate          float64       `json:"error_rate"`
	SlowestEndpoint    string        `json:"slowest_endpoint"`
	FastestEndpoint    string        `json:"fastest_endpoint"`
	RecentCalls        []CallRecord  `json:"recent_calls"`
}

// Recorder keeps a bounded history of outbound API calls and mirrors
// each record into the Prometheus collectors. Recording is cheap and
// never fails; callers treat it as fire-and-forget.
type Recorder struct {
	mu      sync.Mutex
	records []CallRecord
	max     int
}

// NewRecorder creates a Recorder holding at most max records. max <= 0
// selects the default bound.
func NewRecorder(max int) *Recorder {
	if max <= 0 {
		max = defaultMaxRecords
	}
	return &Recorder{
		records: make([]CallRecord, 0, max),
		max:     max,
	}
}

// Record appends a call record, evicting the oldest when full.
func (r *Recorder) Record(rec CallRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	APICallsTotal.WithLabelValues(rec.Endpoint, rec.Method, strconv.Itoa(rec.Status)).Inc()
	APICallDuration.WithLabelValues(rec.Endpoint, rec.Method).Observe(rec.Duration.Seconds())

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec)
	if len(r.records) > r.max {
		// Drop the oldest; shift in place to keep the backing array.
		copy(r.records, r.records[len(r.records)-r.max:])
		r.records = r.records[:r.max]
	}
}

// Len returns the number of stored records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Recent returns records newer than the given age, oldest first.
func (r *Recorder) Recent(age time.Duration) []CallRecord {
	cutoff := time.Now().Add(-age)

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []CallRecord
	for _, rec := range r.records {
		if rec.Timestamp.After(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

// ErrorRate returns the percentage of failed calls.
func (r *Recorder) ErrorRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.records) == 0 {
		return 0
	}
	failed := 0
	for _, rec := range r.records {
		if !rec.Success {
			failed++
		}
	}
	return float64(failed) / float64(len(r.records)) * 100
}

// Summary computes aggregate statistics over the stored records. The
// returned RecentCalls holds at most the last 50 calls.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.records) == 0 {
		return Summary{}
	}

	var (
		total      time.Duration
		successful int
		byEndpoint = make(map[string][]time.Duration)
	)
	for _, rec := range r.records {
		total += rec.Duration
		if rec.Success {
			successful++
		}
		key := rec.Method + " " + rec.Endpoint
		byEndpoint[key] = append(byEndpoint[key], rec.Duration)
	}

	type endpointAvg struct {
		key string
		avg time.Duration
	}
	averages := make([]endpointAvg, 0, len(byEndpoint))
	for key, durations := range byEndpoint {
		var sum time.Duration
		for _, d := range durations {
			sum += d
		}
		averages = append(averages, endpointAvg{key, sum / time.Duration(len(durations))})
	}
	sort.Slice(averages, func(i, j int) bool { return averages[i].avg > averages[j].avg })

	recent := r.records
	if len(recent) > 50 {
		recent = recent[len(recent)-50:]
	}
	recentCopy := make([]CallRecord, len(recent))
	copy(recentCopy, recent)

	failed := len(r.records) - successful
	return Summary{
		TotalRequests:      len(r.records),
		SuccessfulRequests: successful,
		FailedRequests:     failed,
		AverageDuration:    total / time.Duration(len(r.records)),
		ErrorRate:          float64(failed) / float64(len(r.records)) * 100,
		SlowestEndpoint:    averages[0].key,
		FastestEndpoint:    averages[len(averages)-1].key,
		RecentCalls:        recentCopy,
	}
}

// Percentile returns the given duration percentile over all records.
func (r *Recorder) Percentile(p float64) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.records) == 0 {
		return 0
	}
	durations := make([]time.Duration, len(r.records))
	for i, rec := range r.records {
		durations[i] = rec.Duration
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	idx := int(float64(len(durations))*p/100+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(durations) {
		idx = len(durations) - 1
	}
	return durations[idx]
}

// Reset clears the recorded history.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = r.records[:0]
}
