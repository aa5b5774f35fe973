package classify

import (
	"sync"

	"github.com/nikbrunner/bmsort/internal/progress"
)

// Snapshot is a point-in-time copy of the run state.
type Snapshot struct {
	IsRunning bool    `json:"isRunning"`
	Progress  float64 `json:"progress"`
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	Status    string  `json:"status"`
	Error     string  `json:"error,omitempty"`
}

// State is the single-slot holder for the in-flight run. At most one run
// can hold it at a time; a second start is rejected, not queued.
type State struct {
	mu     sync.Mutex
	snap   Snapshot
	result *Tree
}

// TryStart claims the slot for a run over total bookmarks. When a run is
// already active it returns that run's snapshot and false.
func (s *State) TryStart(total int) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.IsRunning {
		return s.snap, false
	}
	s.snap = Snapshot{IsRunning: true, Total: total, Status: "starting"}
	return s.snap, true
}

// Update records a progress event. Progress and processed never go
// backwards within a run.
func (s *State) Update(e progress.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.snap.IsRunning {
		return
	}
	if e.Progress > s.snap.Progress {
		s.snap.Progress = e.Progress
	}
	if e.Processed > s.snap.Processed {
		s.snap.Processed = e.Processed
	}
	s.snap.Total = e.Total
	s.snap.Status = e.Status
}

// Finish releases the slot and stores the run's result.
func (s *State) Finish(result *Tree) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.IsRunning = false
	s.snap.Progress = 100
	s.snap.Processed = s.snap.Total
	s.snap.Error = ""
	s.result = result
}

// Fail releases the slot, keeping the previous result.
func (s *State) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.IsRunning = false
	s.snap.Status = "failed"
	s.snap.Error = err.Error()
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Result returns the last completed run's tree, or nil.
func (s *State) Result() *Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}
