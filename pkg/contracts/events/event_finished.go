package events

import "time"

// Evento publicado no tópico "event_finished" quando um evento chega a um estado terminal.
// Consumidores devem tratar a mensagem como at-least-once: a liquidação é idempotente.
type EventFinished struct {
	EventID string    `json:"event_id"`
	State   string    `json:"state"` // "finished_win" | "finished_lose"
	Ts      time.Time `json:"ts"`
}

// Estados de evento no contrato HTTP/Kafka
const (
	StateNew          = "new"
	StateFinishedWin  = "finished_win"
	StateFinishedLose = "finished_lose"
)
