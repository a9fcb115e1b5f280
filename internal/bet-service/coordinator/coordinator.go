package coordinator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/bet-service/domain"
	"github.com/radieske/line-bet-platform/internal/bet-service/ledger"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
	"github.com/radieske/line-bet-platform/internal/shared/money"
)

// EventReader lê o evento no event-service; NotFound quando não existe, UpstreamUnavailable em falha
type EventReader interface {
	GetEvent(ctx context.Context, id string) (domain.EventSnapshot, error)
}

// Publisher recebe as notificações de aposta feita e de liquidação (Kafka)
type Publisher interface {
	PublishBetPlaced(ctx context.Context, b domain.Bet) error
	PublishBetsSettled(ctx context.Context, eventID string, status domain.Status, updated int64) error
}

// Coordinator aceita apostas e aplica o resultado dos eventos no ledger
type Coordinator struct {
	Ledger    ledger.Ledger
	Events    EventReader // nil no settlement-worker, que só liquida
	Publisher Publisher   // opcional
	Log       *zap.Logger
	Now       func() time.Time

	OnPlaced   func()
	OnRejected func(kind errs.Kind)
	OnResolve  func()
	OnSettled  func(status domain.Status, n int64)

	// OnReconciled recebe o total liquidado por uma rodada de ReconcilePending
	OnReconciled func(n int64)
}

func New(l ledger.Ledger, events EventReader, log *zap.Logger) *Coordinator {
	return &Coordinator{Ledger: l, Events: events, Log: log, Now: time.Now}
}

// PlaceBet valida valor e evento e grava a aposta PENDING.
// O ledger repete a checagem de prazo dentro do seu escopo atômico.
func (c *Coordinator) PlaceBet(ctx context.Context, eventID string, amount decimal.Decimal) (domain.Bet, error) {
	b, err := c.placeBet(ctx, strings.TrimSpace(eventID), amount)
	if err != nil {
		if c.OnRejected != nil {
			c.OnRejected(errs.KindOf(err))
		}
		c.Log.Info("bet rejected", zap.String("event_id", eventID), zap.Error(err))
		return domain.Bet{}, err
	}

	if c.OnPlaced != nil {
		c.OnPlaced()
	}
	c.Log.Info("bet placed",
		zap.String("bet_id", b.ID),
		zap.String("event_id", b.EventID),
		zap.String("amount", b.Amount.StringFixed(money.Scale)),
	)
	if c.Publisher != nil {
		_ = c.Publisher.PublishBetPlaced(ctx, b)
	}
	return b, nil
}

func (c *Coordinator) placeBet(ctx context.Context, eventID string, amount decimal.Decimal) (domain.Bet, error) {
	if eventID == "" {
		return domain.Bet{}, errs.InvalidArgument("bet", "", "event_id is required")
	}
	if !money.ValidPositive(amount) {
		return domain.Bet{}, errs.InvalidArgument("bet", eventID, "amount must be positive, below 1e10, with at most two decimal places")
	}

	ev, err := c.Events.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Bet{}, err
	}
	if !ev.AcceptsBets(c.Now()) {
		msg := "betting deadline has passed"
		if ev.State != domain.EventStateNew {
			msg = fmt.Sprintf("event is %s and no longer accepts bets", ev.State)
		}
		return domain.Bet{}, errs.InvalidState("event", eventID, msg)
	}

	return c.Ledger.Insert(ctx, ledger.NewBet{
		EventID:       eventID,
		Amount:        amount.Round(money.Scale),
		EventDeadline: ev.Deadline,
	})
}

// ResolveBetsForEvent liquida as apostas PENDING do evento; repetir a chamada devolve 0
func (c *Coordinator) ResolveBetsForEvent(ctx context.Context, eventID, state string) (int64, error) {
	if c.OnResolve != nil {
		c.OnResolve()
	}
	status, err := domain.StatusForEventState(state)
	if err != nil {
		return 0, err
	}

	n, err := c.Ledger.Resolve(ctx, eventID, status)
	if err != nil {
		c.Log.Warn("bet settlement rejected", zap.String("event_id", eventID), zap.String("state", state), zap.Error(err))
		return 0, err
	}

	if c.OnSettled != nil {
		c.OnSettled(status, n)
	}
	c.Log.Info("bets settled", zap.String("event_id", eventID), zap.String("status", string(status)), zap.Int64("updated", n))
	if c.Publisher != nil && n > 0 {
		_ = c.Publisher.PublishBetsSettled(ctx, eventID, status, n)
	}
	return n, nil
}

func (c *Coordinator) GetBet(ctx context.Context, id string) (domain.Bet, error) {
	return c.Ledger.Get(ctx, id)
}

func (c *Coordinator) ListBets(ctx context.Context) ([]domain.Bet, error) {
	return c.Ledger.List(ctx)
}
