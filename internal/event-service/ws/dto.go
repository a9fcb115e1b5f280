package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// EventID: obrigatório para subscribe/unsubscribe; "*" assina todos os eventos
type ClientMsg struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
}

// StatusUpdate é enviado aos clientes quando um evento muda de estado
type StatusUpdate struct {
	Type    string `json:"type"` // sempre "status"
	EventID string `json:"event_id"`
	State   string `json:"state"`
}

// AllEvents é a chave de assinatura para receber todos os eventos
const AllEvents = "*"
