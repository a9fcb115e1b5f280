package events

type BetPlaced struct {
	BetID    string `json:"bet_id"`
	EventID  string `json:"event_id"`
	Amount   string `json:"amount"` // decimal em string, ex: "100.50"
	TsUnixMs int64  `json:"ts_unix_ms"`
}
