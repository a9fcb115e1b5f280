package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
)

// Memory mantém os eventos em memória, protegidos por RWMutex
type Memory struct {
	mu     sync.RWMutex
	events map[string]domain.Event
	order  []string
}

func NewMemory() *Memory {
	return &Memory{events: make(map[string]domain.Event)}
}

func (m *Memory) Create(ctx context.Context, ev domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[ev.ID]; ok {
		return errs.Conflict("event", ev.ID, "already exists")
	}
	m.events[ev.ID] = ev
	m.order = append(m.order, ev.ID)
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return domain.Event{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ev, ok := m.events[id]
	if !ok {
		return domain.Event{}, errs.NotFound("event", id)
	}
	return ev, nil
}

func (m *Memory) List(ctx context.Context) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Event, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.events[id])
	}
	return out, nil
}

func (m *Memory) ListByState(ctx context.Context, states ...domain.State) ([]domain.Event, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterStates(all, states), nil
}

func (m *Memory) Transition(ctx context.Context, id string, from, to domain.State) (domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return domain.Event{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[id]
	if !ok {
		return domain.Event{}, errs.NotFound("event", id)
	}
	if ev.State != from {
		return domain.Event{}, errs.InvalidState("event", id, fmt.Sprintf("current state is %s, expected %s", ev.State, from))
	}
	ev.State = to
	m.events[id] = ev
	return ev, nil
}
