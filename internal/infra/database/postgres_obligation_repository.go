package database

import (
	"context"
	"database/sql"
	"fmt"

	"finance_tracker_bot/internal/domain/obligation"
)

// Custom errors specific to the obligation repository.
var ErrObligationNotFound = fmt.Errorf("obligation not found")

type PostgresObligationRepository struct {
	db *sql.DB
}

func NewPostgresObligationRepository(db *sql.DB) *PostgresObligationRepository {
	return &PostgresObligationRepository{db: db}
}

const obligationColumns = `id, title, amount_minor, account, category, due_day, lead_days,
	auto_post, skip_if_already_posted, active_from, active_until, last_posted_month,
	state, created_at, updated_at`

func (r *PostgresObligationRepository) Create(ctx context.Context, ob *obligation.Obligation) error {
	query := `INSERT INTO obligations (title, amount_minor, account, category, due_day, lead_days,
                   auto_post, skip_if_already_posted, active_from, active_until, last_posted_month, state)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		ob.Title, ob.AmountMinor, ob.Account, ob.Category, int(ob.DueRule), ob.LeadDays,
		ob.AutoPost, ob.SkipIfAlreadyPosted, ob.ActiveFrom.String(),
		nullableMonth(ob.ActiveUntil), nullableMonth(ob.LastPostedMonth), string(ob.State),
	).Scan(&ob.ID, &ob.CreatedAt, &ob.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating obligation: %w", err)
	}
	return nil
}

func (r *PostgresObligationRepository) GetByID(ctx context.Context, id int64) (*obligation.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE id = $1`
	ob, err := scanObligation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrObligationNotFound
		}
		return nil, fmt.Errorf("error getting obligation by ID: %w", err)
	}
	return ob, nil
}

func (r *PostgresObligationRepository) Update(ctx context.Context, ob *obligation.Obligation) error {
	query := `UPDATE obligations
               SET title = $2, amount_minor = $3, account = $4, category = $5, due_day = $6,
                   lead_days = $7, auto_post = $8, skip_if_already_posted = $9, active_from = $10,
                   active_until = $11, last_posted_month = $12, state = $13, updated_at = NOW()
               WHERE id = $1
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		ob.ID, ob.Title, ob.AmountMinor, ob.Account, ob.Category, int(ob.DueRule), ob.LeadDays,
		ob.AutoPost, ob.SkipIfAlreadyPosted, ob.ActiveFrom.String(),
		nullableMonth(ob.ActiveUntil), nullableMonth(ob.LastPostedMonth), string(ob.State),
	).Scan(&ob.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrObligationNotFound
		}
		return fmt.Errorf("error updating obligation ID %d: %w", ob.ID, err)
	}
	return nil
}

func (r *PostgresObligationRepository) ListActive(ctx context.Context) ([]*obligation.Obligation, error) {
	return r.list(ctx, `SELECT `+obligationColumns+` FROM obligations WHERE state = 'ACTIVE' ORDER BY id`)
}

func (r *PostgresObligationRepository) ListAll(ctx context.Context) ([]*obligation.Obligation, error) {
	return r.list(ctx, `SELECT `+obligationColumns+` FROM obligations ORDER BY id`)
}

func (r *PostgresObligationRepository) list(ctx context.Context, query string) ([]*obligation.Obligation, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing obligations: %w", err)
	}
	defer rows.Close()

	var obs []*obligation.Obligation
	for rows.Next() {
		ob, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning obligation row: %w", err)
		}
		obs = append(obs, ob)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating obligation rows: %w", err)
	}
	return obs, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanObligation(s scanner) (*obligation.Obligation, error) {
	var (
		ob          obligation.Obligation
		dueDay      int
		state       string
		activeFrom  string
		activeUntil sql.NullString
		lastPosted  sql.NullString
	)
	err := s.Scan(&ob.ID, &ob.Title, &ob.AmountMinor, &ob.Account, &ob.Category, &dueDay,
		&ob.LeadDays, &ob.AutoPost, &ob.SkipIfAlreadyPosted, &activeFrom, &activeUntil,
		&lastPosted, &state, &ob.CreatedAt, &ob.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ob.DueRule = obligation.DueRule(dueDay)
	ob.State = obligation.State(state)
	if ob.ActiveFrom, err = obligation.ParseMonth(activeFrom); err != nil {
		return nil, err
	}
	if ob.ActiveUntil, err = parseNullableMonth(activeUntil); err != nil {
		return nil, err
	}
	if ob.LastPostedMonth, err = parseNullableMonth(lastPosted); err != nil {
		return nil, err
	}
	return &ob, nil
}

func nullableMonth(m *obligation.Month) sql.NullString {
	if m == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: m.String(), Valid: true}
}

func parseNullableMonth(s sql.NullString) (*obligation.Month, error) {
	if !s.Valid {
		return nil, nil
	}
	m, err := obligation.ParseMonth(s.String)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
