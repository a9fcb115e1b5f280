package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
	"github.com/radieske/line-bet-platform/internal/shared/db"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
)

// Schema do event-service; aplicado por Postgres.Migrate
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		seq         BIGSERIAL,
		id          TEXT PRIMARY KEY,
		coefficient NUMERIC(12,2) NOT NULL CHECK (coefficient > 0),
		deadline    TIMESTAMPTZ NOT NULL,
		state       TEXT NOT NULL DEFAULT 'new',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS events_state_idx ON events (state)`,
}

// Postgres implementa o Store em banco Postgres
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Migrate cria as tabelas se ainda não existirem
func (p *Postgres) Migrate(ctx context.Context) error {
	return db.Migrate(ctx, p.db, Schema...)
}

// Create usa ON CONFLICT DO NOTHING: nenhuma linha afetada significa id duplicado
func (p *Postgres) Create(ctx context.Context, ev domain.Event) error {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO events (id, coefficient, deadline, state)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.Coefficient, ev.Deadline.UTC(), string(ev.State),
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.Conflict("event", ev.ID, "already exists")
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (domain.Event, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id, coefficient, deadline, state FROM events WHERE id=$1`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, errs.NotFound("event", id)
	}
	return ev, err
}

func (p *Postgres) List(ctx context.Context) ([]domain.Event, error) {
	return p.query(ctx, `SELECT id, coefficient, deadline, state FROM events ORDER BY seq`)
}

func (p *Postgres) ListByState(ctx context.Context, states ...domain.State) ([]domain.Event, error) {
	ss := make([]string, len(states))
	for i, s := range states {
		ss[i] = string(s)
	}
	return p.query(ctx, `SELECT id, coefficient, deadline, state FROM events WHERE state = ANY($1) ORDER BY seq`, pq.Array(ss))
}

// Transition aplica o compare-and-set num único UPDATE ... WHERE state=$from
func (p *Postgres) Transition(ctx context.Context, id string, from, to domain.State) (domain.Event, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE events SET state=$3, updated_at=NOW()
		WHERE id=$1 AND state=$2
		RETURNING id, coefficient, deadline, state`,
		id, string(from), string(to),
	)
	ev, err := scanEvent(row)
	if err == nil {
		return ev, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("transition event %s: %w", id, err)
	}

	// nenhuma linha: ou não existe ou o estado já mudou
	cur, gerr := p.Get(ctx, id)
	if gerr != nil {
		return domain.Event{}, gerr
	}
	return domain.Event{}, errs.InvalidState("event", id, fmt.Sprintf("current state is %s, expected %s", cur.State, from))
}

func (p *Postgres) query(ctx context.Context, q string, args ...any) ([]domain.Event, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (domain.Event, error) {
	var (
		ev    domain.Event
		state string
	)
	if err := s.Scan(&ev.ID, &ev.Coefficient, &ev.Deadline, &state); err != nil {
		return domain.Event{}, err
	}
	ev.State = domain.State(state)
	return ev, nil
}
