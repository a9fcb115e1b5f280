package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/line-bet-platform/internal/shared/errs"
	"github.com/radieske/line-bet-platform/pkg/contracts/events"
)

// State é o estado do ciclo de vida de um evento
type State string

const (
	StateNew          State = events.StateNew
	StateFinishedWin  State = events.StateFinishedWin
	StateFinishedLose State = events.StateFinishedLose
)

// ParseState valida o estado recebido na API
func ParseState(s string) (State, error) {
	switch st := State(s); st {
	case StateNew, StateFinishedWin, StateFinishedLose:
		return st, nil
	default:
		return "", errs.InvalidArgument("state", s, "unknown event state")
	}
}

// Terminal indica que não há transições de saída
func (s State) Terminal() bool {
	return s == StateFinishedWin || s == StateFinishedLose
}

// Event é uma oportunidade de aposta com odds fixas e prazo
type Event struct {
	ID          string
	Coefficient decimal.Decimal
	Deadline    time.Time
	State       State
}

// AcceptsBets: apenas eventos NEW dentro do prazo aceitam apostas
func (e Event) AcceptsBets(now time.Time) bool {
	return e.State == StateNew && e.Deadline.After(now)
}

// Active: prazo ainda não expirou, independente do estado
func (e Event) Active(now time.Time) bool {
	return e.Deadline.After(now)
}
