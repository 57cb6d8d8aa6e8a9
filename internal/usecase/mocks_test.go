// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sort"
	"sync"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/domain/ports/adapter"
)

// memUserRepo is a small in-memory implementation used by unit tests.
type memUserRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.User
	saveErr error // used by tests to simulate save failures
	findErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Register(ctx context.Context, u *model.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[u.ID]; ok {
		return nil
	}
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// memTurnRepo keeps turns in insertion order with a global sequence.
type memTurnRepo struct {
	mu        sync.Mutex
	seq       int64
	turns     []model.Turn
	appendErr func(t *model.Turn) error
	recentErr error
}

func newMemTurnRepo() *memTurnRepo { return &memTurnRepo{} }

func (m *memTurnRepo) Append(ctx context.Context, t *model.Turn) error {
	if m.appendErr != nil {
		if err := m.appendErr(t); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t.Seq = m.seq
	m.turns = append(m.turns, *t)
	return nil
}

func (m *memTurnRepo) Recent(ctx context.Context, sessionID string, limit int) ([]model.Turn, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Turn
	for _, t := range m.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if len(out) > limit {
		out = out[:limit]
	}
	return model.Chronological(out), nil
}

func (m *memTurnRepo) all() []model.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Turn(nil), m.turns...)
}

type memTokenRepo struct {
	mu    sync.Mutex
	total int64
	err   error
}

func (m *memTokenRepo) Increment(ctx context.Context, delta int64) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total += delta
	return nil
}

func (m *memTokenRepo) Total(ctx context.Context) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total, nil
}

// fakeAI records the history it was called with.
type fakeAI struct {
	mu     sync.Mutex
	reply  string
	usage  adapter.Usage
	err    error
	calls  [][]adapter.Message
	perMsg int
}

func (f *fakeAI) Name() string  { return "fake" }
func (f *fakeAI) Model() string { return "fake-model" }

func (f *fakeAI) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	return f.perMsg * len(messages), nil
}

func (f *fakeAI) ChatWithUsage(ctx context.Context, messages []adapter.Message) (string, adapter.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]adapter.Message(nil), messages...))
	if f.err != nil {
		return "", adapter.Usage{}, f.err
	}
	return f.reply, f.usage, nil
}
