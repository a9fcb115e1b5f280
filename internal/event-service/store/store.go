package store

import (
	"context"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
)

// Store guarda os eventos e é o único dono do estado do ciclo de vida.
// Toda mutação é atômica por linha: Create é insert-if-absent e Transition é compare-and-set.
type Store interface {
	// Create falha com errs.Conflict se o id já existir
	Create(ctx context.Context, ev domain.Event) error
	// Get falha com errs.NotFound
	Get(ctx context.Context, id string) (domain.Event, error)
	// List retorna todos os eventos em ordem de criação
	List(ctx context.Context) ([]domain.Event, error)
	// ListByState filtra por estado mantendo a ordem de criação
	ListByState(ctx context.Context, states ...domain.State) ([]domain.Event, error)
	// Transition troca o estado de from para to; errs.NotFound ou errs.InvalidState se o atual != from
	Transition(ctx context.Context, id string, from, to domain.State) (domain.Event, error)
}

func filterStates(evs []domain.Event, states []domain.State) []domain.Event {
	out := make([]domain.Event, 0, len(evs))
	for _, ev := range evs {
		for _, st := range states {
			if ev.State == st {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}
