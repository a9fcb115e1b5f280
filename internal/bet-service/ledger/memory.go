package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/line-bet-platform/internal/bet-service/domain"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
)

// Memory é o ledger em memória (dev/testes); um único mutex serializa insert e liquidação
type Memory struct {
	mu    sync.RWMutex
	bets  map[string]domain.Bet
	order []string

	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		bets: make(map[string]domain.Bet),
		Now:  time.Now,
	}
}

func (m *Memory) Insert(ctx context.Context, nb NewBet) (domain.Bet, error) {
	if err := ctx.Err(); err != nil {
		return domain.Bet{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	if !nb.EventDeadline.After(now) {
		return domain.Bet{}, errs.InvalidState("event", nb.EventID, "betting deadline has passed")
	}

	b := domain.Bet{
		ID:        uuid.NewString(),
		EventID:   nb.EventID,
		Amount:    nb.Amount,
		Status:    domain.StatusPending,
		CreatedAt: now.UTC(),
	}
	m.bets[b.ID] = b
	m.order = append(m.order, b.ID)
	return b, nil
}

func (m *Memory) Resolve(ctx context.Context, eventID string, status domain.Status) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	settledAt := m.Now().UTC()
	var n int64
	for _, id := range m.order {
		b := m.bets[id]
		if b.EventID != eventID || b.Status != domain.StatusPending {
			continue
		}
		b.Status = status
		b.SettledAt = &settledAt
		m.bets[id] = b
		n++
	}
	return n, nil
}

func (m *Memory) Get(ctx context.Context, id string) (domain.Bet, error) {
	if err := ctx.Err(); err != nil {
		return domain.Bet{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bets[id]
	if !ok {
		return domain.Bet{}, errs.NotFound("bet", id)
	}
	return b, nil
}

func (m *Memory) List(ctx context.Context) ([]domain.Bet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Bet, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.bets[id])
	}
	return out, nil
}

func (m *Memory) PendingEventIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	out := []string{}
	for _, id := range m.order {
		b := m.bets[id]
		if b.Status == domain.StatusPending && !seen[b.EventID] {
			seen[b.EventID] = true
			out = append(out, b.EventID)
		}
	}
	return out, nil
}
