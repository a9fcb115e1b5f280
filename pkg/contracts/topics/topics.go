package topics

const (
	// Eventos
	EventFinished = "event_finished"

	// Bets
	BetPlaced   = "bet_placed"
	BetsSettled = "bets_settled"

	// DLQs
	EventFinishedDLQ = "event_finished_dlq"
)
