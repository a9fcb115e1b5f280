package dto

// PlaceBetRequest é o corpo de POST /bets
type PlaceBetRequest struct {
	EventID string  `json:"event_id" validate:"required,max=128"`
	Amount  float64 `json:"amount" validate:"gt=0"`
}

// UpdateRequest é o corpo de POST /bets/update, enviado pelo event-service
type UpdateRequest struct {
	EventID string `json:"event_id" validate:"required"`
	Status  string `json:"status" validate:"required"` // finished_win | finished_lose
}
