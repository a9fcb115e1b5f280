package coordinator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/shared/errs"
	"github.com/radieske/line-bet-platform/pkg/contracts/events"
)

// PendingReport resume uma rodada de ReconcilePending
type PendingReport struct {
	Checked int      `json:"checked"`
	Settled int64    `json:"settled"`
	Failed  []string `json:"failed"`
}

// ReconcilePending procura eventos com apostas PENDING, consulta o estado de cada um
// no event-service e liquida os que já terminaram. Cobre entregas perdidas do resultado.
func (c *Coordinator) ReconcilePending(ctx context.Context) (PendingReport, error) {
	if c.Events == nil {
		return PendingReport{}, errors.New("reconcile needs an event reader")
	}
	ids, err := c.Ledger.PendingEventIDs(ctx)
	if err != nil {
		return PendingReport{}, err
	}

	rep := PendingReport{Failed: []string{}}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Checked++

		ev, err := c.Events.GetEvent(ctx, id)
		if err != nil {
			// evento sumido (ex.: event-service em memória reiniciado) não tem resultado a aplicar
			if errs.KindOf(err) != errs.KindNotFound {
				rep.Failed = append(rep.Failed, id)
			}
			continue
		}
		if ev.State != events.StateFinishedWin && ev.State != events.StateFinishedLose {
			continue
		}

		n, err := c.ResolveBetsForEvent(ctx, id, ev.State)
		if err != nil {
			rep.Failed = append(rep.Failed, id)
			continue
		}
		rep.Settled += n
	}

	if c.OnReconciled != nil {
		c.OnReconciled(rep.Settled)
	}
	c.Log.Info("pending bets reconciled",
		zap.Int("checked", rep.Checked),
		zap.Int64("settled", rep.Settled),
		zap.Strings("failed", rep.Failed),
	)
	return rep, nil
}
