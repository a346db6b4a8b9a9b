package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_daily_snapshots",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_engagement_flags",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_user_achievements",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_generated_content",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
		{
			Version: 5,
			Name:    "create_notifications",
			UpSQL:   migration005Up,
			DownSQL: migration005Down,
		},
		{
			Version: 6,
			Name:    "create_program_tables",
			UpSQL:   migration006Up,
			DownSQL: migration006Down,
		},
		{
			Version: 7,
			Name:    "create_partner_commitments",
			UpSQL:   migration007Up,
			DownSQL: migration007Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: DAILY SNAPSHOTS
// One row per (user, day). The primary key is what makes the
// increment-or-initialize upsert in the snapshot repo possible.
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS daily_snapshots (
    user_id                  TEXT        NOT NULL,
    day                      DATE        NOT NULL,
    logins                   INTEGER     NOT NULL DEFAULT 0 CHECK (logins >= 0),
    posts                    INTEGER     NOT NULL DEFAULT 0 CHECK (posts >= 0),
    responses                INTEGER     NOT NULL DEFAULT 0 CHECK (responses >= 0),
    modules_completed        INTEGER     NOT NULL DEFAULT 0 CHECK (modules_completed >= 0),
    last_partner_interaction TIMESTAMPTZ,
    created_at               TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at               TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, day)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_day
    ON daily_snapshots (day);

CREATE INDEX IF NOT EXISTS idx_snapshots_active_day
    ON daily_snapshots (day) WHERE logins > 0;
`

const migration001Down = `
DROP TABLE IF EXISTS daily_snapshots;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: ENGAGEMENT FLAGS
// Append-only flag history. The partial index serves the engine's
// unresolved-duplicate check inside the lookback window.
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS engagement_flags (
    id             UUID        PRIMARY KEY,
    user_id        TEXT        NOT NULL,
    flag_type      TEXT        NOT NULL CHECK (flag_type IN ('red', 'yellow', 'green')),
    reason         TEXT        NOT NULL,
    context        JSONB       NOT NULL DEFAULT '{}',
    resolved       BOOLEAN     NOT NULL DEFAULT FALSE,
    resolved_by    TEXT,
    resolved_at    TIMESTAMPTZ,
    resolved_notes TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_flags_user_created
    ON engagement_flags (user_id, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_flags_unresolved
    ON engagement_flags (user_id, flag_type, created_at)
    WHERE NOT resolved;
`

const migration002Down = `
DROP TABLE IF EXISTS engagement_flags;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: USER ACHIEVEMENTS
// The composite primary key is the idempotency mechanism: Award does
// ON CONFLICT DO NOTHING against it.
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS user_achievements (
    user_id        TEXT        NOT NULL,
    achievement_id TEXT        NOT NULL,
    earned_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_achievements_user_earned
    ON user_achievements (user_id, earned_at);
`

const migration003Down = `
DROP TABLE IF EXISTS user_achievements;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: GENERATED CONTENT
// The partial unique index enforces at most one active row per content type;
// the approve transaction swaps rows under it.
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS generated_content (
    id           UUID        PRIMARY KEY,
    content_type TEXT        NOT NULL CHECK (content_type IN ('hero_message', 'cohort_activity', 'practice_actions', 'full_dashboard')),
    payload      JSONB       NOT NULL,
    context      JSONB       NOT NULL DEFAULT '{}',
    status       TEXT        NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    approved     BOOLEAN     NOT NULL DEFAULT FALSE,
    approved_by  TEXT,
    approved_at  TIMESTAMPTZ,
    active       BOOLEAN     NOT NULL DEFAULT FALSE,
    generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_content_one_active_per_type
    ON generated_content (content_type)
    WHERE active;

CREATE INDEX IF NOT EXISTS idx_content_pending
    ON generated_content (generated_at)
    WHERE status = 'pending';
`

const migration004Down = `
DROP TABLE IF EXISTS generated_content;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 005: NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration005Up = `
CREATE TABLE IF NOT EXISTS notifications (
    id         UUID        PRIMARY KEY,
    user_id    TEXT        NOT NULL,
    kind       TEXT        NOT NULL,
    title      TEXT        NOT NULL,
    body       TEXT        NOT NULL DEFAULT '',
    metadata   JSONB       NOT NULL DEFAULT '{}',
    is_read    BOOLEAN     NOT NULL DEFAULT FALSE,
    read_at    TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user_created
    ON notifications (user_id, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_notifications_unread
    ON notifications (user_id)
    WHERE NOT is_read;
`

const migration005Down = `
DROP TABLE IF EXISTS notifications;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 006: PROGRAM TABLES
// Read-side tables owned by the curriculum tooling; the context assembler
// only reads them.
// ══════════════════════════════════════════════════════════════════════════════

const migration006Up = `
CREATE TABLE IF NOT EXISTS program_settings (
    key        TEXT        PRIMARY KEY,
    value      TEXT        NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS discussions (
    id             UUID        PRIMARY KEY,
    title          TEXT        NOT NULL,
    author         TEXT        NOT NULL,
    response_count INTEGER     NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_discussions_created
    ON discussions (created_at DESC);

CREATE TABLE IF NOT EXISTS community_events (
    id        UUID        PRIMARY KEY,
    title     TEXT        NOT NULL,
    location  TEXT        NOT NULL DEFAULT '',
    starts_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_starts
    ON community_events (starts_at);
`

const migration006Down = `
DROP TABLE IF EXISTS community_events;
DROP TABLE IF EXISTS discussions;
DROP TABLE IF EXISTS program_settings;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 007: PARTNER COMMITMENTS
// Read-side table owned by the partner-pairing subsystem. The flag engine's
// red rule reads outstanding counts and the missed/partial run from it.
// ══════════════════════════════════════════════════════════════════════════════

const migration007Up = `
CREATE TABLE IF NOT EXISTS partner_commitments (
    id         UUID        PRIMARY KEY,
    user_id    TEXT        NOT NULL,
    status     TEXT        NOT NULL CHECK (status IN ('outstanding', 'met', 'partial', 'missed')),
    due_at     TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_commitments_user_status
    ON partner_commitments (user_id, status);

CREATE INDEX IF NOT EXISTS idx_commitments_user_due
    ON partner_commitments (user_id, due_at DESC)
    WHERE status <> 'outstanding';
`

const migration007Down = `
DROP TABLE IF EXISTS partner_commitments;
`
