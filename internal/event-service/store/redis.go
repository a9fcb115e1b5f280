package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
)

const (
	keyIndex = "events:index" // zset id -> seq de criação
	keySeq   = "events:seq"
)

func keyEvent(id string) string { return "event:" + id }

// createScript insere o hash apenas se a chave não existir e indexa pela sequência
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
local seq = redis.call('INCR', KEYS[3])
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'coefficient', ARGV[2], 'deadline', ARGV[3], 'state', ARGV[4])
redis.call('ZADD', KEYS[2], seq, ARGV[1])
return 1
`)

// transitionScript faz compare-and-set do campo state
// retorno: -1 inexistente, 0 estado divergente, 1 ok
var transitionScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'state')
if not cur then
	return -1
end
if cur ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'state', ARGV[2])
return 1
`)

// Redis guarda cada evento num hash e usa scripts Lua para as mutações atômicas
type Redis struct {
	R *redis.Client
}

func NewRedis(r *redis.Client) *Redis { return &Redis{R: r} }

func (s *Redis) Create(ctx context.Context, ev domain.Event) error {
	res, err := createScript.Run(ctx, s.R,
		[]string{keyEvent(ev.ID), keyIndex, keySeq},
		ev.ID, ev.Coefficient.StringFixed(2), ev.Deadline.UTC().Format(time.RFC3339Nano), string(ev.State),
	).Int()
	if err != nil {
		return fmt.Errorf("redis create event: %w", err)
	}
	if res == 0 {
		return errs.Conflict("event", ev.ID, "already exists")
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, id string) (domain.Event, error) {
	h, err := s.R.HGetAll(ctx, keyEvent(id)).Result()
	if err != nil {
		return domain.Event{}, fmt.Errorf("redis get event: %w", err)
	}
	if len(h) == 0 {
		return domain.Event{}, errs.NotFound("event", id)
	}
	return decodeHash(h)
}

func (s *Redis) List(ctx context.Context) ([]domain.Event, error) {
	ids, err := s.R.ZRange(ctx, keyIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list events: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Event{}, nil
	}

	pipe := s.R.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, keyEvent(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis list events: %w", err)
	}

	out := make([]domain.Event, 0, len(ids))
	for _, c := range cmds {
		h := c.Val()
		if len(h) == 0 {
			continue
		}
		ev, err := decodeHash(h)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *Redis) ListByState(ctx context.Context, states ...domain.State) ([]domain.Event, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterStates(all, states), nil
}

func (s *Redis) Transition(ctx context.Context, id string, from, to domain.State) (domain.Event, error) {
	res, err := transitionScript.Run(ctx, s.R, []string{keyEvent(id)}, string(from), string(to)).Int()
	if err != nil {
		return domain.Event{}, fmt.Errorf("redis transition event: %w", err)
	}
	switch res {
	case -1:
		return domain.Event{}, errs.NotFound("event", id)
	case 0:
		cur, err := s.Get(ctx, id)
		if err != nil {
			return domain.Event{}, err
		}
		return domain.Event{}, errs.InvalidState("event", id, fmt.Sprintf("current state is %s, expected %s", cur.State, from))
	}
	return s.Get(ctx, id)
}

func decodeHash(h map[string]string) (domain.Event, error) {
	coef, err := decimal.NewFromString(h["coefficient"])
	if err != nil {
		return domain.Event{}, fmt.Errorf("decode coefficient of event %s: %w", h["id"], err)
	}
	deadline, err := time.Parse(time.RFC3339Nano, h["deadline"])
	if err != nil {
		return domain.Event{}, fmt.Errorf("decode deadline of event %s: %w", h["id"], err)
	}
	return domain.Event{
		ID:          h["id"],
		Coefficient: coef,
		Deadline:    deadline,
		State:       domain.State(h["state"]),
	}, nil
}
