package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
	"github.com/radieske/line-bet-platform/pkg/contracts/events"
)

// MessageWriter é o subconjunto do *kafka.Writer usado aqui
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica EventFinished no tópico event_finished.
// A chave é o event_id, garantindo ordem por evento dentro da partição.
type KafkaPublisher struct {
	writer MessageWriter
	log    *zap.Logger
	now    func() time.Time
}

func NewKafkaPublisher(w MessageWriter, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, log: log, now: time.Now}
}

// PublishFinished serializa o evento terminal e envia para o Kafka
func (p *KafkaPublisher) PublishFinished(ctx context.Context, ev domain.Event) error {
	value, err := json.Marshal(events.EventFinished{
		EventID: ev.ID,
		State:   string(ev.State),
		Ts:      p.now().UTC(),
	})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(ev.ID),
		Value: value,
		Time:  p.now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to publish event_finished", zap.String("event_id", ev.ID), zap.Error(err))
		return err
	}

	p.log.Debug("published event_finished", zap.String("event_id", ev.ID))
	return nil
}

// Listener adapta o publisher para lifecycle.Manager.OnFinished; erros já foram logados
func (p *KafkaPublisher) Listener() func(context.Context, domain.Event) {
	return func(ctx context.Context, ev domain.Event) {
		_ = p.PublishFinished(ctx, ev)
	}
}

// Close finaliza o writer e libera recursos associados.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
