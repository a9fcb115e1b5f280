package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/line-bet-platform/internal/bet-service/domain"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
)

// Event é o formato retornado pelo event-service em GET /events e GET /events/{id}
type Event struct {
	EventID     string    `json:"event_id"`
	Coefficient float64   `json:"coefficient"`
	Deadline    time.Time `json:"deadline"`
	State       string    `json:"state"`
}

func (e Event) Snapshot() domain.EventSnapshot {
	return domain.EventSnapshot{
		ID:          e.EventID,
		Coefficient: decimal.NewFromFloat(e.Coefficient),
		Deadline:    e.Deadline,
		State:       e.State,
	}
}

// Client lê eventos do event-service (line provider)
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

// GetEvent retorna NotFound quando o event-service responde 404; qualquer outra falha é UpstreamUnavailable
func (c *Client) GetEvent(ctx context.Context, id string) (domain.EventSnapshot, error) {
	var ev Event
	status, err := c.getJSON(ctx, "/events/"+url.PathEscape(id), &ev)
	if status == http.StatusNotFound {
		return domain.EventSnapshot{}, errs.NotFound("event", id)
	}
	if err != nil {
		return domain.EventSnapshot{}, errs.Upstream("event", id, err)
	}
	return ev.Snapshot(), nil
}

// ListEvents repassa a lista de eventos ativos do event-service
func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	out := []Event{}
	if _, err := c.getJSON(ctx, "/events", &out); err != nil {
		return nil, errs.Upstream("events", "", err)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return 0, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return res.StatusCode, fmt.Errorf("event service http %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return res.StatusCode, fmt.Errorf("decode event service response: %w", err)
	}
	return res.StatusCode, nil
}
