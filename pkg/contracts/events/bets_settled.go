package events

import "time"

// Evento emitido pelo bet-service após liquidar as apostas de um evento.
type BetsSettled struct {
	EventID string    `json:"event_id"`
	Status  string    `json:"status"` // "won" | "lost"
	Updated int64     `json:"updated"`
	Ts      time.Time `json:"ts"`
}
