package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/line-bet-platform/internal/bet-service/domain"
	"github.com/radieske/line-bet-platform/internal/shared/db"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
)

// Schema do bet-service; aplicado por Postgres.Migrate
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS bets (
		seq        BIGSERIAL,
		id         UUID PRIMARY KEY,
		event_id   TEXT NOT NULL,
		amount     NUMERIC(14,2) NOT NULL CHECK (amount > 0),
		status     TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		settled_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS bets_event_status_idx ON bets (event_id, status)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS bets_seq_idx ON bets (seq)`,
}

// Postgres implementa o Ledger em banco Postgres.
// Insert e Resolve pegam pg_advisory_xact_lock(hashtext(event_id)) na mesma transação,
// então a revalidação do prazo e o insert nunca cruzam com a liquidação do mesmo evento.
type Postgres struct {
	db  *sql.DB
	Now func() time.Time
}

// NewPostgres retorna uma instância do ledger de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db, Now: time.Now} }

// Migrate cria as tabelas se ainda não existirem
func (p *Postgres) Migrate(ctx context.Context) error {
	return db.Migrate(ctx, p.db, Schema...)
}

func lockEvent(ctx context.Context, tx *sql.Tx, eventID string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, eventID)
	return err
}

// Insert revalida o prazo dentro da transação e insere a aposta PENDING
func (p *Postgres) Insert(ctx context.Context, nb NewBet) (domain.Bet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Bet{}, err
	}
	defer tx.Rollback()

	if err = lockEvent(ctx, tx, nb.EventID); err != nil {
		return domain.Bet{}, fmt.Errorf("lock event %s: %w", nb.EventID, err)
	}

	now := p.Now().UTC()
	if !nb.EventDeadline.After(now) {
		return domain.Bet{}, errs.InvalidState("event", nb.EventID, "betting deadline has passed")
	}

	b := domain.Bet{
		ID:        uuid.NewString(),
		EventID:   nb.EventID,
		Amount:    nb.Amount,
		Status:    domain.StatusPending,
		CreatedAt: now,
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO bets (id, event_id, amount, status, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		b.ID, b.EventID, b.Amount, string(b.Status), b.CreatedAt,
	); err != nil {
		return domain.Bet{}, fmt.Errorf("insert bet for event %s: %w", nb.EventID, err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Bet{}, err
	}
	return b, nil
}

// Resolve atualiza todas as apostas PENDING do evento num único UPDATE
func (p *Postgres) Resolve(ctx context.Context, eventID string, status domain.Status) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err = lockEvent(ctx, tx, eventID); err != nil {
		return 0, fmt.Errorf("lock event %s: %w", eventID, err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE bets SET status=$2, settled_at=$3
		WHERE event_id=$1 AND status='pending'`,
		eventID, string(status), p.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("settle bets of event %s: %w", eventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (domain.Bet, error) {
	if _, err := uuid.Parse(id); err != nil {
		// ids fora do formato nunca existem; evita erro de cast no banco
		return domain.Bet{}, errs.NotFound("bet", id)
	}
	row := p.db.QueryRowContext(ctx, `SELECT id, event_id, amount, status, created_at, settled_at FROM bets WHERE id=$1`, id)
	b, err := scanBet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Bet{}, errs.NotFound("bet", id)
	}
	return b, err
}

func (p *Postgres) List(ctx context.Context) ([]domain.Bet, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, event_id, amount, status, created_at, settled_at FROM bets ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Bet{}
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *Postgres) PendingEventIDs(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT event_id FROM bets WHERE status='pending'
		GROUP BY event_id ORDER BY MIN(seq)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBet(s scanner) (domain.Bet, error) {
	var (
		b         domain.Bet
		status    string
		settledAt sql.NullTime
	)
	if err := s.Scan(&b.ID, &b.EventID, &b.Amount, &status, &b.CreatedAt, &settledAt); err != nil {
		return domain.Bet{}, err
	}
	b.Status = domain.Status(status)
	if settledAt.Valid {
		t := settledAt.Time
		b.SettledAt = &t
	}
	return b, nil
}
