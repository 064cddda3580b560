package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied on startup. Statements are idempotent so a restart
// against an existing database is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
	id          UUID PRIMARY KEY REFERENCES accounts(id),
	full_name   TEXT NOT NULL DEFAULT '',
	avatar_url  TEXT NOT NULL DEFAULT '',
	bio         TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	is_provider BOOLEAN NOT NULL DEFAULT FALSE,
	rating      DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_online   BOOLEAN NOT NULL DEFAULT FALSE,
	last_seen   TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS conversations (
	id         UUID PRIMARY KEY,
	pair_key   TEXT UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS conversation_participants (
	conversation_id UUID NOT NULL REFERENCES conversations(id),
	user_id         UUID NOT NULL REFERENCES profiles(id),
	joined_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (conversation_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_participants_user ON conversation_participants (user_id);

CREATE TABLE IF NOT EXISTS messages (
	id              UUID PRIMARY KEY,
	conversation_id UUID NOT NULL REFERENCES conversations(id),
	sender_id       UUID NOT NULL REFERENCES profiles(id),
	content         TEXT,
	type            TEXT NOT NULL DEFAULT 'text'
		CHECK (type IN ('text', 'image', 'video', 'audio', 'file')),
	status          TEXT NOT NULL DEFAULT 'sent'
		CHECK (status IN ('sent', 'delivered', 'seen')),
	file_url        TEXT,
	reply_to        UUID REFERENCES messages(id),
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, created_at);

CREATE TABLE IF NOT EXISTS message_requests (
	id          UUID PRIMARY KEY,
	sender_id   UUID NOT NULL REFERENCES profiles(id),
	receiver_id UUID NOT NULL REFERENCES profiles(id),
	message     TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'accepted', 'declined')),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_requests_receiver ON message_requests (receiver_id, status);

CREATE TABLE IF NOT EXISTS direct_messages (
	id          UUID PRIMARY KEY,
	sender_id   UUID NOT NULL REFERENCES profiles(id),
	receiver_id UUID NOT NULL REFERENCES profiles(id),
	content     TEXT NOT NULL,
	is_read     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_direct_pair ON direct_messages (sender_id, receiver_id, created_at);

CREATE TABLE IF NOT EXISTS service_categories (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	icon        TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS services (
	id           UUID PRIMARY KEY,
	user_id      UUID NOT NULL REFERENCES profiles(id),
	category_id  UUID NOT NULL REFERENCES service_categories(id),
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	price        DOUBLE PRECISION NOT NULL DEFAULT 0,
	price_type   TEXT NOT NULL DEFAULT 'fixed'
		CHECK (price_type IN ('hourly', 'fixed', 'negotiable')),
	location     TEXT NOT NULL DEFAULT '',
	images       TEXT[] NOT NULL DEFAULT '{}',
	availability BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_services_category ON services (category_id);
`

// seedCategories fills the default marketplace categories on first run
const seedCategories = `
INSERT INTO service_categories (id, name, icon, color, description) VALUES
	(gen_random_uuid(), 'Cleaning',  'sparkles', '#4CAF50', 'Home and office cleaning'),
	(gen_random_uuid(), 'Repairs',   'wrench',   '#FF9800', 'Handyman and repair work'),
	(gen_random_uuid(), 'Tutoring',  'book',     '#2196F3', 'Lessons and coaching'),
	(gen_random_uuid(), 'Beauty',    'scissors', '#E91E63', 'Hair, nails and skincare'),
	(gen_random_uuid(), 'Transport', 'truck',    '#9C27B0', 'Moving and delivery'),
	(gen_random_uuid(), 'Other',     'grid',     '#607D8B', 'Everything else')
ON CONFLICT (name) DO NOTHING;
`

// Migrate applies the schema and seed data to the connected database
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	if _, err := pool.Exec(ctx, seedCategories); err != nil {
		return fmt.Errorf("seeding categories: %w", err)
	}
	return nil
}
