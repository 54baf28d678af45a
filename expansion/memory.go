package expansion

import (
	"context"
	"maps"
	"sync"

	"github.com/nasermirzaei89/nexus/discuss"
)

type Memory struct {
	mu    sync.Mutex
	views map[string]map[string]bool
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{views: make(map[string]map[string]bool)}
}

func (m *Memory) Show(_ context.Context, view string, comments []*discuss.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.view(view)

	for _, comment := range comments {
		if _, seen := state[comment.ID]; seen || !expandedByDefault(comment) {
			continue
		}

		state[comment.ID] = true
	}

	return nil
}

func (m *Memory) Toggle(_ context.Context, view, commentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.view(view)
	state[commentID] = !state[commentID]

	return state[commentID], nil
}

func (m *Memory) Expanded(_ context.Context, view, commentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.views[view][commentID], nil
}

func (m *Memory) Snapshot(_ context.Context, view string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := maps.Clone(m.views[view])
	if state == nil {
		state = make(map[string]bool)
	}

	return state, nil
}

func (m *Memory) Close(_ context.Context, view string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.views, view)

	return nil
}

func (m *Memory) view(view string) map[string]bool {
	state, ok := m.views[view]
	if !ok {
		state = make(map[string]bool)
		m.views[view] = state
	}

	return state
}
