package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"finance_tracker_bot/internal/domain/ledger"
	"finance_tracker_bot/internal/domain/obligation"
)

// Custom errors specific to the ledger repository.
var ErrEntryNotFound = fmt.Errorf("ledger entry not found")
var ErrDuplicateObligationEntry = fmt.Errorf("ledger entry already exists for this obligation and month")

// pqUniqueViolation is the postgres error code for unique constraint violations.
const pqUniqueViolation = "23505"

type PostgresLedgerRepository struct {
	db *sql.DB
}

func NewPostgresLedgerRepository(db *sql.DB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{db: db}
}

func (r *PostgresLedgerRepository) Insert(ctx context.Context, e *ledger.Entry) error {
	query := `INSERT INTO ledger_entries (id, obligation_id, entry_month, amount_minor, account, category, note, posted_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               RETURNING created_at`
	var (
		obligationID sql.NullInt64
		entryMonth   sql.NullString
	)
	if e.ObligationID != 0 {
		obligationID = sql.NullInt64{Int64: e.ObligationID, Valid: true}
		entryMonth = sql.NullString{String: e.Month.String(), Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query,
		e.ID, obligationID, entryMonth, e.AmountMinor, e.Account, e.Category, e.Note, e.PostedAt,
	).Scan(&e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicateObligationEntry
		}
		return fmt.Errorf("error inserting ledger entry: %w", err)
	}
	return nil
}

func (r *PostgresLedgerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting ledger entry %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking delete result for entry %s: %w", id, err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *PostgresLedgerRepository) FindByMonth(ctx context.Context, obligationID int64, m obligation.Month) (*ledger.Entry, error) {
	query := `SELECT id, obligation_id, entry_month, amount_minor, account, category, note, posted_at, created_at
               FROM ledger_entries
               WHERE obligation_id = $1 AND entry_month = $2`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, obligationID, m.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("error finding ledger entry for obligation %d month %s: %w", obligationID, m, err)
	}
	return e, nil
}

func (r *PostgresLedgerRepository) Latest(ctx context.Context, obligationID int64) (*ledger.Entry, error) {
	query := `SELECT id, obligation_id, entry_month, amount_minor, account, category, note, posted_at, created_at
               FROM ledger_entries
               WHERE obligation_id = $1
               ORDER BY posted_at DESC, created_at DESC
               LIMIT 1`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, obligationID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("error getting latest ledger entry for obligation %d: %w", obligationID, err)
	}
	return e, nil
}

func scanEntry(s scanner) (*ledger.Entry, error) {
	var (
		e            ledger.Entry
		obligationID sql.NullInt64
		entryMonth   sql.NullString
	)
	err := s.Scan(&e.ID, &obligationID, &entryMonth, &e.AmountMinor, &e.Account, &e.Category,
		&e.Note, &e.PostedAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if obligationID.Valid {
		e.ObligationID = obligationID.Int64
	}
	if entryMonth.Valid {
		m, err := obligation.ParseMonth(entryMonth.String)
		if err != nil {
			return nil, err
		}
		e.Month = m
	}
	return &e, nil
}
