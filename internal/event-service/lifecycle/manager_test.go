package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
	"github.com/radieske/line-bet-platform/internal/event-service/store"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
)

type settleCall struct {
	eventID string
	state   domain.State
}

type fakeSettler struct {
	mu    sync.Mutex
	calls []settleCall
	err   error
	block bool
}

func (f *fakeSettler) ResolveBets(ctx context.Context, eventID string, state domain.State) (int64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, settleCall{eventID, state})
	err, block := f.err, f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return 1, err
}

func (f *fakeSettler) Calls() []settleCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]settleCall(nil), f.calls...)
}

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newManager(settler Settler) *Manager {
	m := NewManager(store.NewMemory(), settler, zap.NewNop())
	m.Now = func() time.Time { return now }
	return m
}

func TestCreateEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		id       string
		coef     string
		deadline time.Time
		wantKind errs.Kind
	}{
		{name: "valid", id: "E1", coef: "1.5", deadline: now.Add(10 * time.Minute)},
		{name: "empty id", id: " ", coef: "1.5", deadline: now.Add(time.Minute), wantKind: errs.KindInvalidArgument},
		{name: "zero odds", id: "E2", coef: "0", deadline: now.Add(time.Minute), wantKind: errs.KindInvalidArgument},
		{name: "three decimals", id: "E3", coef: "1.555", deadline: now.Add(time.Minute), wantKind: errs.KindInvalidArgument},
		{name: "deadline now", id: "E4", coef: "1.5", deadline: now, wantKind: errs.KindInvalidArgument},
		{name: "deadline past", id: "E5", coef: "1.5", deadline: now.Add(-time.Hour), wantKind: errs.KindInvalidArgument},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := newManager(&fakeSettler{})

			ev, err := m.CreateEvent(context.Background(), tc.id, decimal.RequireFromString(tc.coef), tc.deadline)
			if tc.wantKind != "" {
				if errs.KindOf(err) != tc.wantKind {
					t.Fatalf("err = %v, want kind %s", err, tc.wantKind)
				}
				if all, _ := m.Store.List(context.Background()); len(all) != 0 {
					t.Fatalf("rejected create left %d events behind", len(all))
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateEvent: %v", err)
			}

			got, err := m.GetEvent(context.Background(), tc.id)
			if err != nil {
				t.Fatalf("GetEvent: %v", err)
			}
			if got.ID != ev.ID || !got.Coefficient.Equal(ev.Coefficient) || !got.Deadline.Equal(tc.deadline) || got.State != domain.StateNew {
				t.Fatalf("GetEvent = %+v, want %+v", got, ev)
			}
		})
	}
}

func TestCreateEventDuplicate(t *testing.T) {
	t.Parallel()
	m := newManager(&fakeSettler{})
	ctx := context.Background()

	if _, err := m.CreateEvent(ctx, "E1", decimal.RequireFromString("1.2"), now.Add(time.Minute)); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	_, err := m.CreateEvent(ctx, "E1", decimal.RequireFromString("2.2"), now.Add(time.Hour))
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("duplicate err = %v, want conflict", err)
	}
}

func TestListActiveEvents(t *testing.T) {
	t.Parallel()
	m := newManager(&fakeSettler{})
	ctx := context.Background()

	for _, tc := range []struct {
		id string
		in time.Duration
	}{{"soon", time.Minute}, {"later", time.Hour}} {
		if _, err := m.CreateEvent(ctx, tc.id, decimal.RequireFromString("1.1"), now.Add(tc.in)); err != nil {
			t.Fatalf("CreateEvent %s: %v", tc.id, err)
		}
	}
	if _, err := m.TransitionEvent(ctx, "later", domain.StateFinishedLose); err != nil {
		t.Fatalf("TransitionEvent: %v", err)
	}

	// finalizado mas dentro do prazo continua listado
	active, err := m.ListActiveEvents(ctx, now)
	if err != nil {
		t.Fatalf("ListActiveEvents: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2", len(active))
	}

	// passado o prazo de "soon", ele some mesmo ainda NEW
	active, _ = m.ListActiveEvents(ctx, now.Add(2*time.Minute))
	if len(active) != 1 || active[0].ID != "later" {
		t.Fatalf("active after soon deadline = %+v", active)
	}
}

func TestTransitionEvent(t *testing.T) {
	t.Parallel()
	settler := &fakeSettler{}
	m := newManager(settler)
	ctx := context.Background()

	var finished []string
	m.OnFinished = append(m.OnFinished, func(_ context.Context, ev domain.Event) { finished = append(finished, ev.ID) })

	if _, err := m.CreateEvent(ctx, "E1", decimal.RequireFromString("1.5"), now.Add(10*time.Minute)); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	ev, err := m.TransitionEvent(ctx, "E1", domain.StateFinishedWin)
	if err != nil {
		t.Fatalf("TransitionEvent: %v", err)
	}
	if ev.State != domain.StateFinishedWin {
		t.Fatalf("state = %s", ev.State)
	}
	if calls := settler.Calls(); len(calls) != 1 || calls[0] != (settleCall{"E1", domain.StateFinishedWin}) {
		t.Fatalf("settler calls = %+v", calls)
	}
	if len(finished) != 1 {
		t.Fatalf("OnFinished calls = %d, want 1", len(finished))
	}

	_, err = m.TransitionEvent(ctx, "E1", domain.StateFinishedLose)
	if !errors.Is(err, errs.ErrInvalidState) {
		t.Fatalf("second transition err = %v, want invalid state", err)
	}
	if len(settler.Calls()) != 1 {
		t.Fatal("rejected transition must not notify the bet service")
	}

	if _, err := m.TransitionEvent(ctx, "ghost", domain.StateFinishedWin); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("ghost err = %v, want not found", err)
	}
	if _, err := m.TransitionEvent(ctx, "E1", domain.StateNew); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("to new err = %v, want invalid argument", err)
	}
	if _, err := m.TransitionEvent(ctx, "ghost", domain.StateNew); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("ghost to new err = %v, want not found", err)
	}
}

func TestTransitionEventSettlementFailureKeepsTransition(t *testing.T) {
	t.Parallel()
	settler := &fakeSettler{err: errors.New("bet service http 503")}
	m := newManager(settler)
	ctx := context.Background()

	failures := 0
	m.OnSettlementFailure = func() { failures++ }

	if _, err := m.CreateEvent(ctx, "E1", decimal.RequireFromString("1.5"), now.Add(time.Minute)); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	ev, err := m.TransitionEvent(ctx, "E1", domain.StateFinishedLose)
	if !errors.Is(err, errs.ErrUpstreamUnavailable) || !errs.Retryable(err) {
		t.Fatalf("err = %v, want retryable upstream error", err)
	}
	if ev.State != domain.StateFinishedLose {
		t.Fatalf("returned event state = %s, want finished_lose", ev.State)
	}
	got, _ := m.GetEvent(ctx, "E1")
	if got.State != domain.StateFinishedLose {
		t.Fatalf("stored state = %s, transition must not roll back", got.State)
	}
	if failures != 1 {
		t.Fatalf("failures = %d, want 1", failures)
	}
}

func TestTransitionEventSettlementTimeout(t *testing.T) {
	t.Parallel()
	m := newManager(&fakeSettler{block: true})
	m.SettleTimeout = 20 * time.Millisecond
	ctx := context.Background()

	if _, err := m.CreateEvent(ctx, "E1", decimal.RequireFromString("1.5"), now.Add(time.Minute)); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	start := time.Now()
	_, err := m.TransitionEvent(ctx, "E1", domain.StateFinishedWin)
	if !errors.Is(err, errs.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want upstream unavailable", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded cause", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("settlement call was not bounded by the timeout")
	}
}

func TestReconcile(t *testing.T) {
	t.Parallel()
	settler := &fakeSettler{}
	m := newManager(settler)
	ctx := context.Background()

	for _, id := range []string{"A", "B", "C"} {
		if _, err := m.CreateEvent(ctx, id, decimal.RequireFromString("1.5"), now.Add(time.Minute)); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}
	_, _ = m.TransitionEvent(ctx, "A", domain.StateFinishedWin)
	_, _ = m.TransitionEvent(ctx, "B", domain.StateFinishedLose)

	rep, err := m.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if rep.Notified != 2 || len(rep.Failed) != 0 {
		t.Fatalf("report = %+v", rep)
	}
	// 2 das transições + 2 da reconciliação; C continua NEW e não é enviado
	calls := settler.Calls()
	if len(calls) != 4 {
		t.Fatalf("settler calls = %d, want 4", len(calls))
	}
	for _, c := range calls {
		if c.eventID == "C" {
			t.Fatal("NEW event must not be reconciled")
		}
	}

	settler.mu.Lock()
	settler.err = errors.New("down")
	settler.mu.Unlock()
	rep, _ = m.Reconcile(ctx)
	if rep.Notified != 0 || len(rep.Failed) != 2 {
		t.Fatalf("report with failing settler = %+v", rep)
	}
}
