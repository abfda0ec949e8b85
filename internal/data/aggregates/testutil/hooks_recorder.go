package testutil

import (
	"sync"
	"time"
)

// HooksRecorder captures aggregate hook signals in tests.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []OperationEvent
	Conflicts  []string
	Retries    []string
	Rejected   []Rejection
}

type Rejection struct {
	Name string
	Code string
}

type OperationEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, OperationEvent{
		Name:     name,
		Status:   status,
		Duration: dur,
	})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}

func (h *HooksRecorder) IncRejected(name, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Rejected = append(h.Rejected, Rejection{Name: name, Code: code})
}

// StatusOf returns the status of the last observed run of name, or "" if it never ran.
func (h *HooksRecorder) StatusOf(name string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.Operations) - 1; i >= 0; i-- {
		if h.Operations[i].Name == name {
			return h.Operations[i].Status
		}
	}
	return ""
}
