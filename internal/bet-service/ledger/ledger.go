package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/line-bet-platform/internal/bet-service/domain"
)

// NewBet carrega o necessário para revalidar o evento dentro do escopo atômico do insert
type NewBet struct {
	EventID       string
	Amount        decimal.Decimal
	EventDeadline time.Time
}

// Ledger guarda as apostas e é o único dono do status delas.
// Insert e Resolve do mesmo evento são serializados. Uma aposta aceita depois de uma
// liquidação fica PENDING até a próxima entrega do resultado ou a reconciliação.
type Ledger interface {
	// Insert falha com errs.InvalidState se o prazo do evento passou
	Insert(ctx context.Context, nb NewBet) (domain.Bet, error)
	// Resolve liquida todas as apostas PENDING do evento com o status dado.
	// Repetir atualiza zero linhas; apostas já liquidadas nunca mudam.
	Resolve(ctx context.Context, eventID string, status domain.Status) (int64, error)
	Get(ctx context.Context, id string) (domain.Bet, error)
	// List retorna o histórico completo em ordem de inserção
	List(ctx context.Context) ([]domain.Bet, error)
	// PendingEventIDs lista eventos que ainda têm apostas PENDING
	PendingEventIDs(ctx context.Context) ([]string, error)
}
