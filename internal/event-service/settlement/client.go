package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
)

// UpdateRequest é o payload de POST /bets/update no bet-service
type UpdateRequest struct {
	EventID string `json:"event_id"`
	Status  string `json:"status"`
}

// UpdateResponse é a resposta de POST /bets/update
type UpdateResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

// Client chama o endpoint de liquidação do bet-service
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// ResolveBets implementa lifecycle.Settler; qualquer status != 200 é tratado como falha
func (c *Client) ResolveBets(ctx context.Context, eventID string, state domain.State) (int64, error) {
	body, err := json.Marshal(UpdateRequest{EventID: eventID, Status: string(state)})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/bets/update", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return 0, fmt.Errorf("bet update http %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out UpdateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode bet update response: %w", err)
	}
	return out.Updated, nil
}
