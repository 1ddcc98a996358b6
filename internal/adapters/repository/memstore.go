package repository

import (
	"context"
	"sync"

	"github.com/okian/labeleval/internal/domain/model"
)

const defaultCapacity = 100

// node is one entry of the insertion-ordered list (oldest at head).
type node struct {
	report model.Report
	next   *node
}

// MemoryStore implements Store with a map for lookups and a singly linked
// list for FIFO eviction.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*node
	head     *node // oldest
	tail     *node // newest
	capacity int
	onEvict  func(id string)
}

// NewMemoryStore creates a store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.byID = make(map[string]*node)
	return s
}

// Put stores r. Storing an id that already exists replaces the report in
// place without changing its eviction order.
func (s *MemoryStore) Put(_ context.Context, r model.Report) error {
	if r.ID == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	if n, ok := s.byID[r.ID]; ok {
		n.report = r
		s.mu.Unlock()
		return nil
	}

	var evicted []string
	for s.capacity > 0 && len(s.byID) >= s.capacity {
		evicted = append(evicted, s.evictOldest())
	}

	n := &node{report: r}
	if s.tail == nil {
		s.head = n
	} else {
		s.tail.next = n
	}
	s.tail = n
	s.byID[r.ID] = n
	hook := s.onEvict
	s.mu.Unlock()

	if hook != nil {
		for _, id := range evicted {
			hook(id)
		}
	}
	return nil
}

// evictOldest removes the head of the list. Must be called with s.mu held.
func (s *MemoryStore) evictOldest() string {
	n := s.head
	s.head = n.next
	if s.head == nil {
		s.tail = nil
	}
	delete(s.byID, n.report.ID)
	return n.report.ID
}

// Get returns the report with the given id.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byID[id]
	if !ok {
		return model.Report{}, ErrNotFound
	}
	return n.report, nil
}

// Recent returns up to n reports, newest first.
func (s *MemoryStore) Recent(_ context.Context, n int) ([]model.Report, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]model.Report, 0, len(s.byID))
	for cur := s.head; cur != nil; cur = cur.next {
		all = append(all, cur.report)
	}
	if n > len(all) {
		n = len(all)
	}
	out := make([]model.Report, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Count returns the number of reports currently held.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
