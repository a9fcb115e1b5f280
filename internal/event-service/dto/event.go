package dto

import (
	"time"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
)

// CreateEventRequest é o corpo de POST /events
type CreateEventRequest struct {
	EventID     string    `json:"event_id" validate:"required,max=128"`
	Coefficient float64   `json:"coefficient" validate:"gt=0"`
	Deadline    time.Time `json:"deadline" validate:"required"`
	State       string    `json:"state" validate:"omitempty,eq=new"` // só eventos NEW podem ser criados
}

// Event é a representação pública do evento (mesmos campos do request)
type Event struct {
	EventID     string    `json:"event_id"`
	Coefficient float64   `json:"coefficient"`
	Deadline    time.Time `json:"deadline"`
	State       string    `json:"state"`
}

func FromDomain(ev domain.Event) Event {
	return Event{
		EventID:     ev.ID,
		Coefficient: ev.Coefficient.InexactFloat64(),
		Deadline:    ev.Deadline,
		State:       string(ev.State),
	}
}

func FromDomainList(evs []domain.Event) []Event {
	out := make([]Event, 0, len(evs))
	for _, ev := range evs {
		out = append(out, FromDomain(ev))
	}
	return out
}
