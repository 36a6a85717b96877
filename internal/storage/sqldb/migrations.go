package sqldb

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// schema is portable between SQLite and PostgreSQL.
// Tables are created in foreign key order.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    payout_account_id TEXT NOT NULL DEFAULT '',
    payouts_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    rules TEXT NOT NULL DEFAULT '',
    entry_fee BIGINT NOT NULL DEFAULT 0,
    currency TEXT NOT NULL DEFAULT 'usd',
    owner_id TEXT NOT NULL REFERENCES users(id),
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS memberships (
    user_id TEXT NOT NULL REFERENCES users(id),
    group_id TEXT NOT NULL REFERENCES groups(id),
    active BOOLEAN NOT NULL DEFAULT TRUE,
    joined_at BIGINT NOT NULL,
    PRIMARY KEY (user_id, group_id)
);

CREATE TABLE IF NOT EXISTS invite_tokens (
    token TEXT PRIMARY KEY,
    group_id TEXT NOT NULL REFERENCES groups(id),
    created_by TEXT NOT NULL,
    issued_at BIGINT NOT NULL,
    expires_at BIGINT NOT NULL DEFAULT 0,
    single_use BOOLEAN NOT NULL DEFAULT TRUE,
    consumed_at BIGINT NOT NULL DEFAULT 0,
    consumed_by TEXT NOT NULL DEFAULT '',
    uses BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS payments (
    user_id TEXT NOT NULL REFERENCES users(id),
    group_id TEXT NOT NULL REFERENCES groups(id),
    period_id TEXT NOT NULL,
    amount BIGINT NOT NULL,
    currency TEXT NOT NULL,
    status TEXT NOT NULL,
    processor_ref TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    PRIMARY KEY (user_id, group_id, period_id)
);

CREATE TABLE IF NOT EXISTS processed_events (
    event_id TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    outcome TEXT NOT NULL,
    processed_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS campaign_sends (
    user_id TEXT NOT NULL,
    campaign_type TEXT NOT NULL,
    period_id TEXT NOT NULL,
    message_id TEXT NOT NULL,
    sent_at BIGINT NOT NULL,
    PRIMARY KEY (user_id, campaign_type, period_id)
);

CREATE TABLE IF NOT EXISTS activities (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    kind TEXT NOT NULL,
    distance_m BIGINT NOT NULL,
    duration_s BIGINT NOT NULL,
    occurred_at BIGINT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memberships_group_id ON memberships(group_id);
CREATE INDEX IF NOT EXISTS idx_invite_tokens_group_id ON invite_tokens(group_id);
CREATE INDEX IF NOT EXISTS idx_payments_processor_ref ON payments(processor_ref);
CREATE INDEX IF NOT EXISTS idx_payments_period_status ON payments(period_id, status);
CREATE INDEX IF NOT EXISTS idx_activities_user_occurred ON activities(user_id, occurred_at);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
