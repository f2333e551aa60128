package consumers

import (
	"sync"

	"github.com/JakeFAU/file2text/internal/progress"
)

// Status is the JSON view of the latest snapshot.
type Status struct {
	Label      string         `json:"label"`
	Current    int            `json:"current"`
	Total      *int           `json:"total,omitempty"`
	Percentage *float64       `json:"percentage,omitempty"`
	Type       string         `json:"type"`
	Completed  bool           `json:"completed"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Snapshot remembers the last delivered update. Unlike the emitter it is safe
// for concurrent use, so an HTTP handler can read it while a pipeline runs.
type Snapshot struct {
	mu        sync.RWMutex
	last      progress.Update
	seen      bool
	completed bool
}

// NewSnapshot returns an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// OnProgress implements progress.Consumer.
func (s *Snapshot) OnProgress(u progress.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = u
	s.seen = true
	return nil
}

// OnComplete implements progress.Consumer.
func (s *Snapshot) OnComplete(state progress.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = progress.Update{State: state, Type: progress.Completed}
	s.seen = true
	s.completed = true
	return nil
}

// Status returns the latest view, or false before the first update.
func (s *Snapshot) Status() (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.seen {
		return Status{}, false
	}
	st := s.last.State
	out := Status{
		Label:     st.Label(),
		Current:   st.Current(),
		Total:     totalPtr(st.Total()),
		Type:      s.last.Type.String(),
		Completed: s.completed,
		Metadata:  st.Metadata().Map(),
	}
	if pct, ok := st.Percentage(); ok {
		out.Percentage = &pct
	}
	return out, true
}
