package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/line-bet-platform/internal/bet-service/domain"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
)

func TestReconcilePending(t *testing.T) {
	t.Parallel()
	c, evs := newCoordinator()
	ctx := context.Background()

	var reconciled []int64
	c.OnReconciled = func(n int64) { reconciled = append(reconciled, n) }

	evs.set(domain.EventSnapshot{ID: "E2", Coefficient: decimal.RequireFromString("2"), Deadline: now.Add(time.Hour), State: "new"})
	evs.set(domain.EventSnapshot{ID: "gone", Coefficient: decimal.RequireFromString("2"), Deadline: now.Add(time.Hour), State: "new"})

	won, _ := c.PlaceBet(ctx, "E1", decimal.NewFromInt(10))
	open, _ := c.PlaceBet(ctx, "E2", decimal.NewFromInt(20))
	if _, err := c.PlaceBet(ctx, "gone", decimal.NewFromInt(30)); err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}

	// o resultado de E1 nunca chegou ao bet-service; "gone" sumiu do event-service
	evs.set(domain.EventSnapshot{ID: "E1", Coefficient: decimal.RequireFromString("1.5"), Deadline: now.Add(10 * time.Minute), State: "finished_win"})
	evs.mu.Lock()
	delete(evs.events, "gone")
	evs.mu.Unlock()

	rep, err := c.ReconcilePending(ctx)
	if err != nil {
		t.Fatalf("ReconcilePending: %v", err)
	}
	if rep.Checked != 3 || rep.Settled != 1 || len(rep.Failed) != 0 {
		t.Fatalf("report = %+v", rep)
	}
	if b, _ := c.GetBet(ctx, won.ID); b.Status != domain.StatusWon {
		t.Fatalf("E1 bet = %s, want won", b.Status)
	}
	if b, _ := c.GetBet(ctx, open.ID); b.Status != domain.StatusPending {
		t.Fatalf("E2 bet = %s, want pending", b.Status)
	}

	// event-service fora do ar: os eventos ficam para a próxima rodada
	evs.mu.Lock()
	evs.err = errs.Upstream("event", "", errors.New("connection refused"))
	evs.mu.Unlock()
	rep, err = c.ReconcilePending(ctx)
	if err != nil {
		t.Fatalf("ReconcilePending: %v", err)
	}
	if rep.Checked != 2 || rep.Settled != 0 || len(rep.Failed) != 2 {
		t.Fatalf("report with upstream down = %+v", rep)
	}

	if len(reconciled) != 2 || reconciled[0] != 1 || reconciled[1] != 0 {
		t.Fatalf("OnReconciled = %v", reconciled)
	}
}

func TestReconcilePendingWithoutEventReader(t *testing.T) {
	t.Parallel()
	c, _ := newCoordinator()
	c.Events = nil
	if _, err := c.ReconcilePending(context.Background()); err == nil {
		t.Fatal("expected error without event reader")
	}
}
