package metrics

import "github.com/prometheus/client_golang/prometheus"

// Events agrupa as métricas do event-service
type Events struct {
	Created            prometheus.Counter
	Transitions        *prometheus.CounterVec // label: state
	SettlementFailures prometheus.Counter
	Reconciled         prometheus.Counter
}

// NewEvents registra as métricas no registerer informado (prometheus.DefaultRegisterer em produção)
func NewEvents(reg prometheus.Registerer) *Events {
	m := &Events{
		Created:            prometheus.NewCounter(prometheus.CounterOpts{Name: "events_created_total", Help: "eventos criados"}),
		Transitions:        prometheus.NewCounterVec(prometheus.CounterOpts{Name: "event_transitions_total", Help: "transições de estado por estado final"}, []string{"state"}),
		SettlementFailures: prometheus.NewCounter(prometheus.CounterOpts{Name: "event_settlement_failures_total", Help: "falhas ao notificar o bet-service"}),
		Reconciled:         prometheus.NewCounter(prometheus.CounterOpts{Name: "event_reconciled_total", Help: "eventos reenviados para liquidação"}),
	}
	reg.MustRegister(m.Created, m.Transitions, m.SettlementFailures, m.Reconciled)
	return m
}

// Bets agrupa as métricas do bet-service e do settlement-worker
type Bets struct {
	Placed   prometheus.Counter
	Rejected *prometheus.CounterVec // label: reason (kind do erro)
	Settled  *prometheus.CounterVec // label: status
	Resolves prometheus.Counter
	// Delivered conta apostas liquidadas por canal de entrega (kafka, feed, reconcile)
	Delivered *prometheus.CounterVec
}

func NewBets(reg prometheus.Registerer) *Bets {
	m := &Bets{
		Placed:    prometheus.NewCounter(prometheus.CounterOpts{Name: "bets_placed_total", Help: "apostas aceitas"}),
		Rejected:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bets_rejected_total", Help: "apostas rejeitadas por motivo"}, []string{"reason"}),
		Settled:   prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bets_settled_total", Help: "apostas liquidadas por status"}, []string{"status"}),
		Resolves:  prometheus.NewCounter(prometheus.CounterOpts{Name: "bet_resolve_calls_total", Help: "chamadas de liquidação recebidas"}),
		Delivered: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bets_settled_by_channel_total", Help: "apostas liquidadas por canal de entrega"}, []string{"channel"}),
	}
	reg.MustRegister(m.Placed, m.Rejected, m.Settled, m.Resolves, m.Delivered)
	return m
}
