package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/radieske/line-bet-platform/internal/shared/errs"
)

func newEventServer(t *testing.T) *httptest.Server {
	t.Helper()
	deadline := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events":
			_ = json.NewEncoder(w).Encode([]Event{{EventID: "E1", Coefficient: 1.5, Deadline: deadline, State: "new"}})
		case "/events/E1":
			_ = json.NewEncoder(w).Encode(Event{EventID: "E1", Coefficient: 1.5, Deadline: deadline, State: "new"})
		case "/events/broken":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.Error(w, `{"error":"event not found"}`, http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetEvent(t *testing.T) {
	t.Parallel()
	c := New(newEventServer(t).URL, time.Second)
	ctx := context.Background()

	ev, err := c.GetEvent(ctx, "E1")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if ev.ID != "E1" || ev.State != "new" || ev.Coefficient.String() != "1.5" {
		t.Fatalf("snapshot = %+v", ev)
	}

	if _, err := c.GetEvent(ctx, "ghost"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("ghost err = %v, want not found", err)
	}
	if _, err := c.GetEvent(ctx, "broken"); !errors.Is(err, errs.ErrUpstreamUnavailable) {
		t.Fatalf("broken err = %v, want upstream unavailable", err)
	}
}

func TestGetEventUnreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, 200*time.Millisecond).GetEvent(context.Background(), "E1")
	if !errors.Is(err, errs.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want upstream unavailable", err)
	}
}

func TestListEvents(t *testing.T) {
	t.Parallel()
	evs, err := New(newEventServer(t).URL, time.Second).ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(evs) != 1 || evs[0].EventID != "E1" {
		t.Fatalf("events = %+v", evs)
	}
}
