package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// subscribe envia o subscribe e espera o pong do ping seguinte,
// garantindo que a assinatura já foi registrada pelo Hub
func subscribe(t *testing.T, conn *websocket.Conn, eventID string) {
	t.Helper()
	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", EventID: eventID}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	var pong map[string]string
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&pong); err != nil || pong["type"] != "pong" {
		t.Fatalf("pong = %v, err = %v", pong, err)
	}
}

func readUpdate(t *testing.T, conn *websocket.Conn) StatusUpdate {
	t.Helper()
	var upd StatusUpdate
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&upd); err != nil {
		t.Fatalf("read update: %v", err)
	}
	return upd
}

func TestHubBroadcast(t *testing.T) {
	t.Parallel()

	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	one := dial(t, srv)
	subscribe(t, one, "E1")
	all := dial(t, srv)
	subscribe(t, all, AllEvents)

	HubListener(hub)(context.Background(), domain.Event{ID: "E1", State: domain.StateFinishedWin})

	for _, c := range []*websocket.Conn{one, all} {
		upd := readUpdate(t, c)
		if upd.Type != "status" || upd.EventID != "E1" || upd.State != "finished_win" {
			t.Fatalf("update = %+v", upd)
		}
	}

	// E2 só chega para quem assinou "*"
	hub.Broadcast(StatusUpdate{EventID: "E2", State: "finished_lose"})
	if upd := readUpdate(t, all); upd.EventID != "E2" {
		t.Fatalf("update = %+v, want E2", upd)
	}
}

func TestRedisFanOut(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := StartRedisSubscriber(ctx, rdb, "event_status_broadcast", hub, zap.NewNop()); err != nil {
		t.Fatalf("StartRedisSubscriber: %v", err)
	}

	conn := dial(t, srv)
	subscribe(t, conn, "E9")

	b := &RedisBroadcaster{R: rdb, Channel: "event_status_broadcast", Log: zap.NewNop()}
	b.Listener()(ctx, domain.Event{ID: "E9", State: domain.StateFinishedLose})

	if upd := readUpdate(t, conn); upd.EventID != "E9" || upd.State != "finished_lose" {
		t.Fatalf("update = %+v", upd)
	}
}
