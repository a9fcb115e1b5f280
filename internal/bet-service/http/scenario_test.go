package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/bet-service/coordinator"
	"github.com/radieske/line-bet-platform/internal/bet-service/dto"
	"github.com/radieske/line-bet-platform/internal/bet-service/events"
	"github.com/radieske/line-bet-platform/internal/bet-service/ledger"
	eventapi "github.com/radieske/line-bet-platform/internal/event-service/http"
	"github.com/radieske/line-bet-platform/internal/event-service/lifecycle"
	"github.com/radieske/line-bet-platform/internal/event-service/settlement"
	"github.com/radieske/line-bet-platform/internal/event-service/store"
)

type platform struct {
	events *httptest.Server
	bets   *httptest.Server
}

// newPlatform sobe os dois serviços com stores em memória, ligados por HTTP de verdade
func newPlatform(t *testing.T) platform {
	t.Helper()
	// o listener do bet-service já existe antes do Start, então o endereço é conhecido
	bets := httptest.NewUnstartedServer(nil)
	betsURL := "http://" + bets.Listener.Addr().String()

	mgr := lifecycle.NewManager(store.NewMemory(), settlement.New(betsURL, 2*time.Second), zap.NewNop())
	evs := httptest.NewServer(eventapi.NewServer(zap.NewNop(), mgr, nil).Router())
	t.Cleanup(evs.Close)

	evClient := events.New(evs.URL, 2*time.Second)
	coord := coordinator.New(ledger.NewMemory(), evClient, zap.NewNop())
	bets.Config.Handler = NewServer(zap.NewNop(), coord, evClient).Router()
	bets.Start()
	t.Cleanup(bets.Close)

	return platform{events: evs, bets: bets}
}

func call(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	if out != nil {
		_ = json.NewDecoder(res.Body).Decode(out)
	}
	return res.StatusCode
}

func (p platform) createEvent(t *testing.T, id string, deadline time.Time) {
	t.Helper()
	code := call(t, http.MethodPost, p.events.URL+"/events", map[string]any{
		"event_id":    id,
		"coefficient": 1.5,
		"deadline":    deadline.Format(time.RFC3339Nano),
		"state":       "new",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("create event %s status = %d", id, code)
	}
}

func TestScenarioBetWinsAndEventIsFinal(t *testing.T) {
	t.Parallel()
	p := newPlatform(t)
	p.createEvent(t, "E1", time.Now().Add(10*time.Minute))

	var bet dto.BetResponse
	if code := call(t, http.MethodPost, p.bets.URL+"/bets", map[string]any{"event_id": "E1", "amount": 100.0}, &bet); code != http.StatusCreated {
		t.Fatalf("place bet status = %d", code)
	}
	if bet.Status != "pending" {
		t.Fatalf("status = %s, want pending", bet.Status)
	}

	if code := call(t, http.MethodPatch, p.events.URL+"/events/E1/status?state=finished_win", nil, nil); code != http.StatusOK {
		t.Fatalf("transition status = %d", code)
	}

	var got dto.BetResponse
	call(t, http.MethodGet, p.bets.URL+"/bets/"+bet.BetID, nil, &got)
	if got.Status != "won" {
		t.Fatalf("bet status = %s, want won", got.Status)
	}

	if code := call(t, http.MethodPatch, p.events.URL+"/events/E1/status?state=finished_lose", nil, nil); code != http.StatusConflict {
		t.Fatalf("second transition status = %d, want 409", code)
	}
	call(t, http.MethodGet, p.bets.URL+"/bets/"+bet.BetID, nil, &got)
	if got.Status != "won" {
		t.Fatalf("bet flipped to %s", got.Status)
	}

	// evento finalizado não aceita novas apostas
	if code := call(t, http.MethodPost, p.bets.URL+"/bets", map[string]any{"event_id": "E1", "amount": 5.0}, nil); code != http.StatusBadRequest {
		t.Fatalf("bet on finished event status = %d, want 400", code)
	}
}

func TestScenarioGhostEvent(t *testing.T) {
	t.Parallel()
	p := newPlatform(t)

	if code := call(t, http.MethodPost, p.bets.URL+"/bets", map[string]any{"event_id": "ghost", "amount": 100.0}, nil); code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	var list []dto.BetResponse
	call(t, http.MethodGet, p.bets.URL+"/bets", nil, &list)
	if len(list) != 0 {
		t.Fatalf("bets = %+v, want none", list)
	}
}

func TestScenarioDeadlinePassed(t *testing.T) {
	t.Parallel()
	p := newPlatform(t)
	p.createEvent(t, "soon", time.Now().Add(300*time.Millisecond))
	time.Sleep(400 * time.Millisecond)

	if code := call(t, http.MethodPost, p.bets.URL+"/bets", map[string]any{"event_id": "soon", "amount": 10.0}, nil); code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}

	var active []events.Event
	call(t, http.MethodGet, p.bets.URL+"/events", nil, &active)
	if len(active) != 0 {
		t.Fatalf("active events = %+v, want none", active)
	}
}

func TestScenarioTwoBetsLose(t *testing.T) {
	t.Parallel()
	p := newPlatform(t)
	p.createEvent(t, "E2", time.Now().Add(10*time.Minute))

	for _, amt := range []float64{10, 20.5} {
		if code := call(t, http.MethodPost, p.bets.URL+"/bets", map[string]any{"event_id": "E2", "amount": amt}, nil); code != http.StatusCreated {
			t.Fatalf("place bet status = %d", code)
		}
	}
	if code := call(t, http.MethodPatch, p.events.URL+"/events/E2/status?state=finished_lose", nil, nil); code != http.StatusOK {
		t.Fatalf("transition status = %d", code)
	}

	var list []dto.BetResponse
	call(t, http.MethodGet, p.bets.URL+"/bets", nil, &list)
	if len(list) != 2 {
		t.Fatalf("bets = %d, want 2", len(list))
	}
	for _, b := range list {
		if b.Status != "lost" {
			t.Fatalf("bet %s status = %s, want lost", b.BetID, b.Status)
		}
	}

	// reconciliação repete a liquidação sem alterar nada
	var rep lifecycle.ReconcileReport
	if code := call(t, http.MethodPost, p.events.URL+"/events/reconcile", nil, &rep); code != http.StatusOK || rep.Notified != 1 {
		t.Fatalf("reconcile = %d, %+v", code, rep)
	}
}
