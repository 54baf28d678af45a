package moderation

import (
	"context"
	"slices"
	"sync"
)

// MemoryQueue keeps reports in process, in arrival order.
type MemoryQueue struct {
	mu      sync.Mutex
	reports []Report
}

var _ Queue = (*MemoryQueue)(nil)

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{reports: make([]Report, 0)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, report Report) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.reports = append(q.reports, report)

	return nil
}

func (q *MemoryQueue) Reports() []Report {
	q.mu.Lock()
	defer q.mu.Unlock()

	return slices.Clone(q.reports)
}
