package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"finance_tracker_bot/internal/domain/obligation"
	"finance_tracker_bot/internal/domain/override"
)

// Custom errors specific to the override repositories.
var ErrSnoozeNotFound = fmt.Errorf("snooze override not found")

type PostgresSkipRepository struct {
	db *sql.DB
}

func NewPostgresSkipRepository(db *sql.DB) *PostgresSkipRepository {
	return &PostgresSkipRepository{db: db}
}

func (r *PostgresSkipRepository) Set(ctx context.Context, obligationID int64, m obligation.Month) error {
	query := `INSERT INTO skip_overrides (obligation_id, month)
               VALUES ($1, $2)
               ON CONFLICT (obligation_id, month) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, obligationID, m.String()); err != nil {
		return fmt.Errorf("error setting skip override for obligation %d, month %s: %w", obligationID, m, err)
	}
	return nil
}

func (r *PostgresSkipRepository) Clear(ctx context.Context, obligationID int64, m obligation.Month) error {
	query := `DELETE FROM skip_overrides WHERE obligation_id = $1 AND month = $2`
	if _, err := r.db.ExecContext(ctx, query, obligationID, m.String()); err != nil {
		return fmt.Errorf("error clearing skip override for obligation %d, month %s: %w", obligationID, m, err)
	}
	return nil
}

func (r *PostgresSkipRepository) IsSet(ctx context.Context, obligationID int64, m obligation.Month) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM skip_overrides WHERE obligation_id = $1 AND month = $2)`
	var set bool
	if err := r.db.QueryRowContext(ctx, query, obligationID, m.String()).Scan(&set); err != nil {
		return false, fmt.Errorf("error checking skip override for obligation %d, month %s: %w", obligationID, m, err)
	}
	return set, nil
}

type PostgresSnoozeRepository struct {
	db *sql.DB
}

func NewPostgresSnoozeRepository(db *sql.DB) *PostgresSnoozeRepository {
	return &PostgresSnoozeRepository{db: db}
}

func (r *PostgresSnoozeRepository) Set(ctx context.Context, obligationID int64, m obligation.Month, until time.Time) error {
	query := `INSERT INTO snooze_overrides (obligation_id, month, snoozed_until)
               VALUES ($1, $2, $3)
               ON CONFLICT (obligation_id, month) DO UPDATE SET snoozed_until = EXCLUDED.snoozed_until`
	if _, err := r.db.ExecContext(ctx, query, obligationID, m.String(), until.Unix()); err != nil {
		return fmt.Errorf("error setting snooze override for obligation %d, month %s: %w", obligationID, m, err)
	}
	return nil
}

func (r *PostgresSnoozeRepository) Clear(ctx context.Context, obligationID int64, m obligation.Month) error {
	query := `DELETE FROM snooze_overrides WHERE obligation_id = $1 AND month = $2`
	if _, err := r.db.ExecContext(ctx, query, obligationID, m.String()); err != nil {
		return fmt.Errorf("error clearing snooze override for obligation %d, month %s: %w", obligationID, m, err)
	}
	return nil
}

func (r *PostgresSnoozeRepository) Get(ctx context.Context, obligationID int64, m obligation.Month) (*override.Snooze, error) {
	query := `SELECT obligation_id, month, snoozed_until, created_at
               FROM snooze_overrides WHERE obligation_id = $1 AND month = $2`
	var (
		sn         override.Snooze
		monthStr   string
		untilEpoch int64
	)
	err := r.db.QueryRowContext(ctx, query, obligationID, m.String()).
		Scan(&sn.ObligationID, &monthStr, &untilEpoch, &sn.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSnoozeNotFound
		}
		return nil, fmt.Errorf("error getting snooze override for obligation %d, month %s: %w", obligationID, m, err)
	}
	if sn.Month, err = obligation.ParseMonth(monthStr); err != nil {
		return nil, err
	}
	sn.SnoozedUntil = time.Unix(untilEpoch, 0)
	return &sn, nil
}
