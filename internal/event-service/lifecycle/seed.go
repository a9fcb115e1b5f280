package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/shared/errs"
)

type seedEvent struct {
	id          string
	coefficient string
	ttl         time.Duration
}

// eventos de demonstração do line provider
var demoEvents = []seedEvent{
	{id: "1", coefficient: "1.2", ttl: 10 * time.Minute},
	{id: "2", coefficient: "1.15", ttl: 5 * time.Minute},
	{id: "3", coefficient: "1.67", ttl: 15 * time.Minute},
}

// Seed cria os eventos de demonstração; ids que já existem no store são mantidos
func (m *Manager) Seed(ctx context.Context) (int, error) {
	now := m.Now()
	created := 0
	for _, se := range demoEvents {
		_, err := m.CreateEvent(ctx, se.id, decimal.RequireFromString(se.coefficient), now.Add(se.ttl))
		if errors.Is(err, errs.ErrConflict) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	m.Log.Info("demo events seeded", zap.Int("created", created))
	return created, nil
}
