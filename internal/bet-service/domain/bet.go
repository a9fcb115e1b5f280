package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/line-bet-platform/internal/shared/errs"
	"github.com/radieske/line-bet-platform/pkg/contracts/events"
)

// Status é o estado de uma aposta; WON e LOST são terminais
type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Bet é o registro persistido no ledger
type Bet struct {
	ID        string
	EventID   string
	Amount    decimal.Decimal
	Status    Status
	CreatedAt time.Time
	SettledAt *time.Time
}

// StatusForEventState mapeia o estado terminal do evento para o status da aposta
func StatusForEventState(state string) (Status, error) {
	switch state {
	case events.StateFinishedWin:
		return StatusWon, nil
	case events.StateFinishedLose:
		return StatusLost, nil
	default:
		return "", errs.InvalidArgument("state", state, "invalid event status")
	}
}

// EventStateNew é o único estado de evento que aceita apostas
const EventStateNew = events.StateNew

// EventSnapshot é a visão do evento lida do event-service no momento da aposta
type EventSnapshot struct {
	ID          string
	Coefficient decimal.Decimal
	Deadline    time.Time
	State       string
}

// AcceptsBets replica a regra do event-service: NEW e dentro do prazo
func (e EventSnapshot) AcceptsBets(now time.Time) bool {
	return e.State == EventStateNew && e.Deadline.After(now)
}
