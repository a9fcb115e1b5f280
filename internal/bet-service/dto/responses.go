package dto

import (
	"fmt"

	"github.com/radieske/line-bet-platform/internal/bet-service/domain"
)

// BetResponse é a representação pública da aposta
type BetResponse struct {
	BetID   string  `json:"bet_id"`
	EventID string  `json:"event_id"`
	Amount  float64 `json:"amount"`
	Status  string  `json:"status"`
}

func FromBet(b domain.Bet) BetResponse {
	return BetResponse{
		BetID:   b.ID,
		EventID: b.EventID,
		Amount:  b.Amount.InexactFloat64(),
		Status:  string(b.Status),
	}
}

func FromBets(bs []domain.Bet) []BetResponse {
	out := make([]BetResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, FromBet(b))
	}
	return out
}

// UpdateResponse responde POST /bets/update
type UpdateResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

func NewUpdateResponse(eventID string, status domain.Status, updated int64) UpdateResponse {
	return UpdateResponse{
		Message: fmt.Sprintf("Bets for event '%s' updated to %s", eventID, status),
		Updated: updated,
	}
}
