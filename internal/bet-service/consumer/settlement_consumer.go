package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/shared/errs"
	"github.com/radieske/line-bet-platform/pkg/contracts/events"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Resolver é implementado pelo coordinator.Coordinator
type Resolver interface {
	ResolveBetsForEvent(ctx context.Context, eventID, state string) (int64, error)
}

// Processor consome event_finished e liquida as apostas do evento.
// O offset só é commitado depois da liquidação (ou do envio para a DLQ), então a entrega é at-least-once;
// reprocessar a mesma mensagem não altera nada porque a liquidação é idempotente.
type Processor struct {
	Log      *zap.Logger
	Reader   MessageReader
	Resolver Resolver
	DLQ      MessageWriter // opcional

	Retries int
	Backoff time.Duration

	OnConsumed func()
	OnSettled  func(n int64)
	OnError    func(stage string)
}

// Run executa o loop até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			p.onError("read")
			if !sleep(ctx, 500*time.Millisecond) {
				return ctx.Err()
			}
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		p.Handle(ctx, m)
		if ctx.Err() != nil {
			// mensagem fica sem commit e volta no próximo start
			return ctx.Err()
		}

		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			p.Log.Warn("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
			p.onError("commit")
		}
	}
}

// Handle processa uma mensagem; erros terminam na DLQ e nunca travam a partição
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	var ev events.EventFinished
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.EventID == "" {
		if err == nil {
			err = errors.New("missing event_id")
		}
		p.Log.Warn("invalid event_finished message", zap.Int64("offset", m.Offset), zap.Error(err))
		p.onError("decode")
		p.deadLetter(ctx, m, err)
		return
	}

	var (
		n   int64
		err error
	)
	for attempt := 0; ; attempt++ {
		n, err = p.Resolver.ResolveBetsForEvent(ctx, ev.EventID, ev.State)
		if err == nil || !errs.Retryable(err) || attempt >= p.Retries || ctx.Err() != nil {
			break
		}
		p.Log.Warn("settlement attempt failed", zap.String("event_id", ev.EventID), zap.Int("attempt", attempt+1), zap.Error(err))
		if !sleep(ctx, p.Backoff*time.Duration(attempt+1)) {
			return
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.Log.Error("settlement failed", zap.String("event_id", ev.EventID), zap.String("state", ev.State), zap.Error(err))
		p.onError("settle")
		p.deadLetter(ctx, m, err)
		return
	}

	if p.OnSettled != nil {
		p.OnSettled(n)
	}
	p.Log.Info("event_finished processed", zap.String("event_id", ev.EventID), zap.Int64("updated", n))
}

// erros de domínio (estado inválido, resultado conflitante) não melhoram com retry
func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, cause error) {
	if p.DLQ == nil {
		return
	}
	headers := append([]kafka.Header(nil), m.Headers...)
	dlq := kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: append(headers, kafka.Header{Key: "error", Value: []byte(cause.Error())}),
		Time:    time.Now(),
	}
	if err := p.DLQ.WriteMessages(ctx, dlq); err != nil {
		p.Log.Error("dlq write failed", zap.ByteString("key", m.Key), zap.Error(err))
		p.onError("dlq")
	}
}

func (p *Processor) onError(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
