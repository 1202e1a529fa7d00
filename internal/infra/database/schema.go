package database

import (
	"database/sql"
	"fmt"
)

// schemaDDL is applied on every boot; all statements are idempotent.
//
// The partial unique index on ledger_entries is the authoritative guard for
// the at-most-once-per-(obligation, month) posting invariant: concurrent
// triggers that survive the in-process serialization still cannot insert a
// second entry for the same obligation and month.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS obligations (
	id                     BIGSERIAL PRIMARY KEY,
	title                  TEXT NOT NULL,
	amount_minor           BIGINT NOT NULL,
	account                TEXT NOT NULL,
	category               TEXT NOT NULL,
	due_day                SMALLINT NOT NULL DEFAULT 0, -- 0 means last day of month
	lead_days              SMALLINT NOT NULL DEFAULT 3,
	auto_post              BOOLEAN NOT NULL DEFAULT FALSE,
	skip_if_already_posted BOOLEAN NOT NULL DEFAULT TRUE,
	active_from            TEXT NOT NULL,
	active_until           TEXT,
	last_posted_month      TEXT,
	state                  TEXT NOT NULL DEFAULT 'ACTIVE',
	created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id            UUID PRIMARY KEY,
	obligation_id BIGINT REFERENCES obligations(id) ON DELETE SET NULL,
	entry_month   TEXT,
	amount_minor  BIGINT NOT NULL,
	account       TEXT NOT NULL,
	category      TEXT NOT NULL,
	note          TEXT NOT NULL DEFAULT '',
	posted_at     TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS ledger_obligation_month_unique
	ON ledger_entries (obligation_id, entry_month)
	WHERE obligation_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS skip_overrides (
	obligation_id BIGINT NOT NULL REFERENCES obligations(id) ON DELETE CASCADE,
	month         TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (obligation_id, month)
);

CREATE TABLE IF NOT EXISTS snooze_overrides (
	obligation_id BIGINT NOT NULL REFERENCES obligations(id) ON DELETE CASCADE,
	month         TEXT NOT NULL,
	snoozed_until BIGINT NOT NULL, -- epoch seconds
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (obligation_id, month)
);
`

// InitSchema creates all tables and indexes owned by the engine.
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("failed to apply database schema: %w", err)
	}
	return nil
}
