package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY,
    email TEXT UNIQUE NOT NULL,
    name TEXT,
    role TEXT NOT NULL CHECK (role IN ('admin', 'facilitator', 'participant')),
    organization_id TEXT,
    cohort_id TEXT,
    is_test_user BOOLEAN NOT NULL DEFAULT FALSE,
    navigation_progress TEXT,
    ast_workshop_completed BOOLEAN NOT NULL DEFAULT FALSE,
    ast_completed_at DATETIME,
    ia_workshop_completed BOOLEAN NOT NULL DEFAULT FALSE,
    ia_completed_at DATETIME,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS navigation_progress (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    app_type TEXT NOT NULL,
    completed_steps TEXT NOT NULL DEFAULT '[]',
    current_step_id TEXT NOT NULL,
    unlocked_steps TEXT NOT NULL DEFAULT '[]',
    video_progress TEXT NOT NULL DEFAULT '{}',
    last_visited_at DATETIME NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS navigation_progress_live
    ON navigation_progress (user_id, app_type) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS user_assessments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    app_type TEXT NOT NULL,
    kind TEXT NOT NULL DEFAULT 'assessment',
    assessment_type TEXT NOT NULL,
    results TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS workshop_participation (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    app_type TEXT NOT NULL,
    started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS growth_plans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    quarter TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS discernment_progress (
    user_id INTEGER PRIMARY KEY REFERENCES users(id),
    scenarios_seen TEXT NOT NULL DEFAULT '[]',
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_photos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    mime_type TEXT NOT NULL,
    data BLOB NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS holistic_reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    report_type TEXT NOT NULL,
    file_name TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS invites (
    code TEXT PRIMARY KEY CHECK (length(code) <= 16),
    email TEXT NOT NULL,
    role TEXT NOT NULL,
    name TEXT,
    cohort_id TEXT,
    organization_id TEXT,
    created_by INTEGER NOT NULL,
    created_at DATETIME NOT NULL,
    expires_at DATETIME,
    used_at DATETIME,
    used_by INTEGER
);

CREATE INDEX IF NOT EXISTS invites_created_by ON invites (created_by);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const defaultSettings = `
INSERT OR IGNORE INTO settings (key, value) VALUES
    ('workshop_locked_message', 'This workshop is complete and read-only.'),
    ('invite_not_found_message', 'This invite code does not exist.'),
    ('invite_expired_message', 'This invite code has expired. Ask your facilitator for a new one.'),
    ('invite_used_message', 'This invite code has already been used.');
`

// MaxInviteCodeLength mirrors the CHECK constraint on invites.code.
const MaxInviteCodeLength = 16

func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	_, err := db.Exec(defaultSettings)
	return err
}
