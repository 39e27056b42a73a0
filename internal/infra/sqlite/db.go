// Package sqlite provides SQLite-based persistent storage for loopstate,
// implementing the domain.StreakRepository, domain.XPRepository, and
// domain.ProgressRepository contracts. Uses WAL mode for concurrent reads
// and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/loopstate/core/internal/infra/metrics"
)

// observeOp records how long a store operation took, labeled by name.
// Called via defer at the top of the StreakStore/XPStore methods other
// than StreamSummary.
func observeOp(op string, start time.Time) {
	metrics.StoreOperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db   *sql.DB
	path string
}

// Open creates or opens the SQLite database at dir/state.db. Enables WAL
// mode, foreign keys, and a 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(1) // SQLite is single-writer.
	db.SetMaxIdleConns(1)

	d := &DB{db: db, path: dbPath}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity, used by the health checker.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// Path reports the on-disk database file (dir/state.db).
func (d *DB) Path() string {
	return d.path
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS streak_events (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			streak_key  TEXT NOT NULL,
			created_at  INTEGER NOT NULL,
			timezone    TEXT NOT NULL DEFAULT '',
			is_freeze   BOOLEAN NOT NULL DEFAULT 0,
			freeze_id   TEXT NOT NULL DEFAULT '',
			metadata    TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_streak_events_scope ON streak_events(user_id, streak_key, created_at)`,

		`CREATE TABLE IF NOT EXISTS streak_freezes (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			streak_key  TEXT NOT NULL,
			earned_at   INTEGER,
			used_at     INTEGER,
			expires_at  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_streak_freezes_scope ON streak_freezes(user_id, streak_key, earned_at)`,

		`CREATE TABLE IF NOT EXISTS streak_summaries (
			user_id                  TEXT NOT NULL,
			streak_key               TEXT NOT NULL,
			current_streak           INTEGER NOT NULL DEFAULT 0,
			longest_streak           INTEGER NOT NULL DEFAULT 0,
			date_last_event          INTEGER,
			last_event_timezone      TEXT NOT NULL DEFAULT '',
			date_streak_start        INTEGER,
			total_events             INTEGER NOT NULL DEFAULT 0,
			freezes_available        TEXT NOT NULL DEFAULT '[]',
			freezes_available_count  INTEGER NOT NULL DEFAULT 0,
			date_created             INTEGER,
			date_updated             INTEGER NOT NULL,
			events_required_per_day  INTEGER NOT NULL DEFAULT 1,
			today_event_count        INTEGER NOT NULL DEFAULT 0,
			recent_events            TEXT NOT NULL DEFAULT '[]',
			PRIMARY KEY (user_id, streak_key)
		)`,

		`CREATE TABLE IF NOT EXISTS xp_events (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL,
			experience_key  TEXT NOT NULL,
			created_at      INTEGER NOT NULL,
			points          INTEGER NOT NULL,
			metadata        TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_xp_events_scope ON xp_events(user_id, experience_key, created_at)`,

		`CREATE TABLE IF NOT EXISTS xp_summaries (
			user_id                 TEXT NOT NULL,
			experience_key          TEXT NOT NULL,
			points_all_time         INTEGER NOT NULL DEFAULT 0,
			points_today            INTEGER NOT NULL DEFAULT 0,
			events_today_count      INTEGER NOT NULL DEFAULT 0,
			points_this_week        INTEGER NOT NULL DEFAULT 0,
			points_last_7_days      INTEGER NOT NULL DEFAULT 0,
			points_this_month       INTEGER NOT NULL DEFAULT 0,
			points_last_30_days     INTEGER NOT NULL DEFAULT 0,
			points_this_year        INTEGER NOT NULL DEFAULT 0,
			points_last_12_months   INTEGER NOT NULL DEFAULT 0,
			date_last_event         INTEGER,
			date_created            INTEGER,
			date_updated            INTEGER NOT NULL,
			recent_events           TEXT NOT NULL DEFAULT '[]',
			PRIMARY KEY (user_id, experience_key)
		)`,

		`CREATE TABLE IF NOT EXISTS progress_items (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			value       REAL NOT NULL DEFAULT 0,
			target      REAL NOT NULL DEFAULT 0,
			updated_at  INTEGER NOT NULL,
			metadata    TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_progress_items_user ON progress_items(user_id)`,

		// Carried over from the engagement engine's original schema:
		// unlocked achievements and the notification log are keyed
		// per-user rather than per-streak, since they project across
		// every streak/XP key a user has.
		`CREATE TABLE IF NOT EXISTS achievements (
			user_id     TEXT NOT NULL,
			id          TEXT NOT NULL,
			unlocked_at INTEGER NOT NULL,
			notified    BOOLEAN DEFAULT 0,
			PRIMARY KEY (user_id, id)
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			shown      BOOLEAN DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notif_user_created ON notifications(user_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS quests (
			user_id        TEXT NOT NULL,
			id             TEXT NOT NULL,
			type           TEXT NOT NULL,
			description    TEXT NOT NULL,
			target         INTEGER NOT NULL,
			progress       INTEGER DEFAULT 0,
			reward_xp      INTEGER NOT NULL,
			expires_at     INTEGER NOT NULL,
			completed      BOOLEAN DEFAULT 0,
			PRIMARY KEY (user_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quests_user_expires ON quests(user_id, expires_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
