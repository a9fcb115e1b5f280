package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
)

// RedisBroadcaster publica atualizações de status no canal Redis Pub/Sub,
// permitindo que todas as instâncias do event-service repassem aos seus clientes WS
type RedisBroadcaster struct {
	R       *redis.Client
	Channel string
	Log     *zap.Logger
}

// Listener adapta o broadcaster para lifecycle.Manager.OnFinished
func (b *RedisBroadcaster) Listener() func(context.Context, domain.Event) {
	return func(ctx context.Context, ev domain.Event) {
		payload, _ := json.Marshal(StatusUpdate{Type: "status", EventID: ev.ID, State: string(ev.State)})
		if err := b.R.Publish(ctx, b.Channel, payload).Err(); err != nil {
			b.Log.Warn("ws broadcast publish failed", zap.String("event_id", ev.ID), zap.Error(err))
		}
	}
}

// HubListener entrega direto no Hub local quando não há Redis configurado
func HubListener(h *Hub) func(context.Context, domain.Event) {
	return func(_ context.Context, ev domain.Event) {
		h.Broadcast(StatusUpdate{EventID: ev.ID, State: string(ev.State)})
	}
}

// StartRedisSubscriber inicia uma goroutine que escuta o canal Redis Pub/Sub
// e repassa as atualizações recebidas para os clientes WebSocket conectados via Hub.
// Retorna só depois da confirmação da inscrição pelo Redis.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) error {
	sub := r.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	ch := sub.Channel()
	go func() {
		defer sub.Close() // encerra a inscrição ao finalizar o contexto
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var upd StatusUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
					log.Warn("ws subscriber unmarshal error", zap.Error(err))
					continue
				}
				hub.Broadcast(upd)
			}
		}
	}()
	return nil
}
