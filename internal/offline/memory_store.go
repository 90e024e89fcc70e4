package offline

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a Store that lives only as long as the process
type MemoryStore struct {
	mu       sync.Mutex
	ops      []Operation
	dead     []DeadLetter
	lastSync time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, op Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op.Clone())
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, op := range s.ops {
		if op.ID == id {
			s.ops = append(s.ops[:i:i], s.ops[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Operation, len(s.ops))
	for i, op := range s.ops {
		out[i] = op.Clone()
	}
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
	return nil
}

func (s *MemoryStore) Settle(_ context.Context, st Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inSnapshot := make(map[string]bool, len(st.Snapshot))
	for _, id := range st.Snapshot {
		inSnapshot[id] = true
	}
	retry := make(map[string]Operation, len(st.Retry))
	for _, op := range st.Retry {
		retry[op.ID] = op
	}

	kept := s.ops[:0:0]
	for _, op := range s.ops {
		if !inSnapshot[op.ID] {
			kept = append(kept, op)
			continue
		}
		if updated, ok := retry[op.ID]; ok {
			kept = append(kept, updated.Clone())
		}
	}
	s.ops = kept

	for _, dl := range st.DeadLetters {
		dl.Operation = dl.Operation.Clone()
		s.dead = append(s.dead, dl)
	}
	return nil
}

func (s *MemoryStore) DeadLetters(_ context.Context) ([]DeadLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DeadLetter, len(s.dead))
	for i, dl := range s.dead {
		dl.Operation = dl.Operation.Clone()
		out[i] = dl
	}
	return out, nil
}

func (s *MemoryStore) Requeue(_ context.Context, id string) (Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, dl := range s.dead {
		if dl.Operation.ID != id {
			continue
		}
		s.dead = append(s.dead[:i:i], s.dead[i+1:]...)
		op := dl.Operation.Clone()
		op.RetryCount = 0
		op.LastError = ""
		s.ops = append(s.ops, op)
		return op.Clone(), nil
	}
	return Operation{}, ErrDeadLetterNotFound
}

func (s *MemoryStore) PurgeDeadLetters(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.dead)
	s.dead = nil
	return n, nil
}

func (s *MemoryStore) LastSync(_ context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync, nil
}

func (s *MemoryStore) SetLastSync(_ context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = at
	return nil
}

func (s *MemoryStore) Close() error { return nil }
