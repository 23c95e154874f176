package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu         sync.RWMutex
	executions map[string]*Execution
	activities map[string]*ActivityRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		executions: make(map[string]*Execution),
		activities: make(map[string]*ActivityRecord),
	}
}

func activityKey(executionID, activity string) string {
	return executionID + "/" + activity
}

func (s *MemoryStore) CreateExecution(_ context.Context, id string, wfType Type, input []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.executions[id]; exists {
		return fmt.Errorf("execution %s already exists", id)
	}
	s.executions[id] = &Execution{
		ID:        id,
		Type:      wfType,
		State:     StateStarted,
		Input:     input,
		StartedAt: time.Now().UTC(),
	}
	return nil
}

func (s *MemoryStore) UpdateState(_ context.Context, id string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec, ok := s.executions[id]
	if !ok {
		return fmt.Errorf("execution %s not found", id)
	}
	exec.State = state
	return nil
}

func (s *MemoryStore) GetActivityResult(_ context.Context, executionID, activity string) (*ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.activities[activityKey(executionID, activity)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) RecordActivityResult(_ context.Context, rec *ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	if cp.RecordedAt.IsZero() {
		cp.RecordedAt = time.Now().UTC()
	}
	s.activities[activityKey(rec.ExecutionID, rec.Activity)] = &cp
	return nil
}

func (s *MemoryStore) CompleteExecution(_ context.Context, id string, state State, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec, ok := s.executions[id]
	if !ok {
		return fmt.Errorf("execution %s not found", id)
	}
	now := time.Now().UTC()
	exec.State = state
	exec.Result = result
	exec.CompletedAt = &now
	return nil
}

func (s *MemoryStore) ListNonTerminal(_ context.Context) ([]*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var execs []*Execution
	for _, exec := range s.executions {
		if exec.State.Terminal() {
			continue
		}
		cp := *exec
		execs = append(execs, &cp)
	}
	sort.Slice(execs, func(i, j int) bool {
		return execs[i].StartedAt.Before(execs[j].StartedAt)
	})
	return execs, nil
}

func (s *MemoryStore) GetExecution(_ context.Context, id string) (*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.executions[id]
	if !ok {
		return nil, fmt.Errorf("execution %s not found", id)
	}
	cp := *exec
	return &cp, nil
}
