package feed

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/pkg/contracts/events"
)

// Resolver é implementado pelo coordinator.Coordinator
type Resolver interface {
	ResolveBetsForEvent(ctx context.Context, eventID, state string) (int64, error)
}

type subscribeMsg struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
}

type statusMsg struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
	State   string `json:"state"`
}

// WSClient assina o feed /ws do event-service e liquida as apostas a cada status terminal.
// Reconecta com espera fixa quando a conexão cai.
type WSClient struct {
	URL       string
	Log       *zap.Logger
	Resolver  Resolver
	Reconnect time.Duration

	OnSettled func(eventID string, n int64)
}

// FeedURL troca http(s) por ws(s) e aponta para /ws
func FeedURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("unsupported scheme " + u.Scheme)
	}
	u.Path += "/ws"
	return u.String(), nil
}

// Start bloqueia até o contexto ser cancelado
func (c *WSClient) Start(ctx context.Context) {
	wait := c.Reconnect
	if wait <= 0 {
		wait = 3 * time.Second
	}
	for {
		if err := c.connectAndListen(ctx); err != nil && ctx.Err() == nil {
			c.Log.Warn("event feed connection closed", zap.String("url", c.URL), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			c.Log.Info("context canceled, stopping event feed client")
			return
		case <-time.After(wait):
		}
	}
}

func (c *WSClient) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// ReadMessage não respeita ctx; fechar a conexão destrava a leitura
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(subscribeMsg{Type: "subscribe", EventID: "*"}); err != nil {
		return err
	}
	c.Log.Info("subscribed to event feed", zap.String("url", c.URL))

	for {
		var msg statusMsg
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msg.Type != "status" || msg.EventID == "" {
			continue
		}
		if msg.State != events.StateFinishedWin && msg.State != events.StateFinishedLose {
			continue
		}

		n, err := c.Resolver.ResolveBetsForEvent(ctx, msg.EventID, msg.State)
		if err != nil {
			c.Log.Warn("feed settlement failed", zap.String("event_id", msg.EventID), zap.Error(err))
			continue
		}
		if c.OnSettled != nil {
			c.OnSettled(msg.EventID, n)
		}
	}
}
