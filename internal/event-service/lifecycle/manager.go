package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
	"github.com/radieske/line-bet-platform/internal/event-service/store"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
	"github.com/radieske/line-bet-platform/internal/shared/money"
)

// DefaultSettleTimeout limita a chamada síncrona ao bet-service
const DefaultSettleTimeout = 3 * time.Second

// Settler resolve as apostas pendentes de um evento terminal (bet-service)
type Settler interface {
	ResolveBets(ctx context.Context, eventID string, state domain.State) (updated int64, err error)
}

// Manager valida criação de eventos e conduz a máquina de estados NEW -> FINISHED_*.
// Callbacks são opcionais e usados para métricas e fan-out (Kafka, WebSocket).
type Manager struct {
	Store         store.Store
	Settler       Settler
	Log           *zap.Logger
	Now           func() time.Time
	SettleTimeout time.Duration

	OnCreated           func()
	OnTransition        func(state domain.State)
	OnSettlementFailure func()
	OnReconciled        func()
	// OnFinished recebe o evento já commitado; falhas aqui nunca voltam para o chamador
	OnFinished []func(ctx context.Context, ev domain.Event)
}

// NewManager cria o Manager com relógio real e timeout padrão
func NewManager(s store.Store, settler Settler, log *zap.Logger) *Manager {
	return &Manager{
		Store:         s,
		Settler:       settler,
		Log:           log,
		Now:           time.Now,
		SettleTimeout: DefaultSettleTimeout,
	}
}

// CreateEvent valida id, odds e prazo antes de qualquer escrita; o evento nasce NEW
func (m *Manager) CreateEvent(ctx context.Context, id string, coefficient decimal.Decimal, deadline time.Time) (domain.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Event{}, errs.InvalidArgument("event", "", "event_id is required")
	}
	if !money.ValidPositive(coefficient) {
		return domain.Event{}, errs.InvalidArgument("event", id, "coefficient must be positive, below 1e10, with at most two decimal places")
	}
	if !deadline.After(m.Now()) {
		return domain.Event{}, errs.InvalidArgument("event", id, "deadline must be in the future")
	}

	ev := domain.Event{
		ID:          id,
		Coefficient: coefficient.Round(money.Scale),
		Deadline:    deadline.UTC(),
		State:       domain.StateNew,
	}
	if err := m.Store.Create(ctx, ev); err != nil {
		return domain.Event{}, err
	}

	if m.OnCreated != nil {
		m.OnCreated()
	}
	m.Log.Info("event created",
		zap.String("event_id", ev.ID),
		zap.String("coefficient", ev.Coefficient.StringFixed(money.Scale)),
		zap.Time("deadline", ev.Deadline),
	)
	return ev, nil
}

// ListActiveEvents retorna os eventos com deadline > now, independente do estado
func (m *Manager) ListActiveEvents(ctx context.Context, now time.Time) ([]domain.Event, error) {
	all, err := m.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, len(all))
	for _, ev := range all {
		if ev.Active(now) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *Manager) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	return m.Store.Get(ctx, id)
}

// TransitionEvent move o evento de NEW para um estado terminal e notifica o bet-service.
// Se a notificação falhar a transição continua commitada: o evento é retornado junto com
// um erro UpstreamUnavailable para o chamador repetir a liquidação.
func (m *Manager) TransitionEvent(ctx context.Context, id string, newState domain.State) (domain.Event, error) {
	if !newState.Terminal() {
		// evento inexistente responde NotFound antes do estado inválido
		if _, err := m.Store.Get(ctx, id); err != nil {
			return domain.Event{}, err
		}
		return domain.Event{}, errs.InvalidArgument("event", id, "target state must be finished_win or finished_lose")
	}

	ev, err := m.Store.Transition(ctx, id, domain.StateNew, newState)
	if err != nil {
		return domain.Event{}, err
	}

	if m.OnTransition != nil {
		m.OnTransition(newState)
	}
	m.Log.Info("event finished", zap.String("event_id", id), zap.String("state", string(newState)))

	for _, fn := range m.OnFinished {
		fn(ctx, ev)
	}

	if err := m.settle(ctx, ev); err != nil {
		return ev, err
	}
	return ev, nil
}

// ReconcileReport resume uma rodada de reconciliação
type ReconcileReport struct {
	Notified int      `json:"notified"`
	Failed   []string `json:"failed"`
}

// Reconcile reenvia a liquidação de todos os eventos terminais.
// É seguro repetir porque a liquidação no bet-service é idempotente.
func (m *Manager) Reconcile(ctx context.Context) (ReconcileReport, error) {
	evs, err := m.Store.ListByState(ctx, domain.StateFinishedWin, domain.StateFinishedLose)
	if err != nil {
		return ReconcileReport{}, err
	}

	rep := ReconcileReport{Failed: []string{}}
	for _, ev := range evs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := m.settle(ctx, ev); err != nil {
			rep.Failed = append(rep.Failed, ev.ID)
			continue
		}
		rep.Notified++
		if m.OnReconciled != nil {
			m.OnReconciled()
		}
	}

	m.Log.Info("reconcile finished", zap.Int("notified", rep.Notified), zap.Strings("failed", rep.Failed))
	return rep, nil
}

func (m *Manager) settle(ctx context.Context, ev domain.Event) error {
	timeout := m.SettleTimeout
	if timeout <= 0 {
		timeout = DefaultSettleTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	updated, err := m.Settler.ResolveBets(sctx, ev.ID, ev.State)
	if err != nil {
		if m.OnSettlementFailure != nil {
			m.OnSettlementFailure()
		}
		m.Log.Warn("bet settlement failed",
			zap.String("event_id", ev.ID),
			zap.String("state", string(ev.State)),
			zap.Error(err),
		)
		return errs.Upstream("event", ev.ID, err)
	}

	m.Log.Info("bets settled", zap.String("event_id", ev.ID), zap.Int64("updated", updated))
	return nil
}
