package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/bet-service/domain"
	"github.com/radieske/line-bet-platform/internal/shared/money"
	"github.com/radieske/line-bet-platform/pkg/contracts/events"
)

// MessageWriter é o subconjunto do *kafka.Writer usado pelo producer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica bet_placed e bets_settled; um writer por tópico
type KafkaPublisher struct {
	placed  MessageWriter
	settled MessageWriter
	log     *zap.Logger
	now     func() time.Time
}

func NewKafkaPublisher(placed, settled MessageWriter, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{placed: placed, settled: settled, log: log, now: time.Now}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, b domain.Bet) error {
	value, err := json.Marshal(events.BetPlaced{
		BetID:    b.ID,
		EventID:  b.EventID,
		Amount:   b.Amount.StringFixed(money.Scale),
		TsUnixMs: p.now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return p.write(ctx, p.placed, "bet_placed", b.EventID, value)
}

func (p *KafkaPublisher) PublishBetsSettled(ctx context.Context, eventID string, status domain.Status, updated int64) error {
	value, err := json.Marshal(events.BetsSettled{
		EventID: eventID,
		Status:  string(status),
		Updated: updated,
		Ts:      p.now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.write(ctx, p.settled, "bets_settled", eventID, value)
}

func (p *KafkaPublisher) write(ctx context.Context, w MessageWriter, kind, key string, value []byte) error {
	msg := kafka.Message{Key: []byte(key), Value: value, Time: p.now()}
	if err := w.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to publish "+kind, zap.String("event_id", key), zap.Error(err))
		return err
	}
	p.log.Debug("published "+kind, zap.String("event_id", key))
	return nil
}

// Close fecha os dois writers
func (p *KafkaPublisher) Close() error {
	err := p.placed.Close()
	if cerr := p.settled.Close(); err == nil {
		err = cerr
	}
	return err
}
