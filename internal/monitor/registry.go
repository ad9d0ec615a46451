package monitor

import (
	"fmt"
	"sync"

	"github.com/logguard-ai/logguard/internal/models"
)

// Registry is the in-memory alert collection. Alerts accumulate for
// the lifetime of the process; lifecycle changes re-status them in
// place, nothing is deleted.
type Registry struct {
	mu     sync.RWMutex
	alerts []*models.Alert // newest first
	byID   map[string]*models.Alert
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*models.Alert)}
}

// Add inserts an alert at the head of the list.
func (r *Registry) Add(alert *models.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append([]*models.Alert{alert}, r.alerts...)
	r.byID[alert.ID] = alert
}

// List returns a snapshot of all alerts, newest first.
func (r *Registry) List() []*models.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// Get returns the alert with the given id.
func (r *Registry) Get(id string) (*models.Alert, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// SetStatus transitions the alert's lifecycle state.
func (r *Registry) SetStatus(id string, status models.AlertStatus) (*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("alert %s not found", id)
	}
	if err := a.Transition(status); err != nil {
		return nil, err
	}
	return a, nil
}

// Acknowledge marks the alert acknowledged.
func (r *Registry) Acknowledge(id string) (*models.Alert, error) {
	return r.SetStatus(id, models.StatusAcknowledged)
}

// Resolve marks the alert resolved.
func (r *Registry) Resolve(id string) (*models.Alert, error) {
	return r.SetStatus(id, models.StatusResolved)
}

// Stats summarizes alert counts by lifecycle state.
type Stats struct {
	Total        int `json:"total"`
	New          int `json:"new"`
	Acknowledged int `json:"acknowledged"`
	Resolved     int `json:"resolved"`
}

// Stats returns current alert counts.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{Total: len(r.alerts)}
	for _, a := range r.alerts {
		switch a.Status {
		case models.StatusNew:
			s.New++
		case models.StatusAcknowledged:
			s.Acknowledged++
		case models.StatusResolved:
			s.Resolved++
		}
	}
	return s
}
