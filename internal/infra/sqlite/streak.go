package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/loopstate/core/internal/domain"
)

// StreakStore implements domain.StreakRepository scoped to one
// (user_id, streak_key) pair.
type StreakStore struct {
	db        *DB
	userID    string
	streakKey string
}

// NewStreakStore binds a StreakStore to a single user and streak.
func NewStreakStore(db *DB, userID, streakKey string) *StreakStore {
	return &StreakStore{db: db, userID: userID, streakKey: streakKey}
}

var _ domain.StreakRepository = (*StreakStore)(nil)

// ListEvents returns every event for this (user, streak), ascending by
// created_at.
func (s *StreakStore) ListEvents(ctx context.Context) ([]domain.StreakEvent, error) {
	defer observeOp("streak_list_events", time.Now())
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT id, created_at, timezone, is_freeze, freeze_id, metadata
		 FROM streak_events WHERE user_id = ? AND streak_key = ? ORDER BY created_at ASC`,
		s.userID, s.streakKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.StreakEvent
	for rows.Next() {
		var e domain.StreakEvent
		var createdAt int64
		var metaJSON string
		if err := rows.Scan(&e.ID, &createdAt, &e.Timezone, &e.IsFreeze, &e.FreezeID, &metaJSON); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		if e.Metadata, err = decodeMetadata(metaJSON); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListFreezes returns every freeze for this (user, streak), ascending by
// earned_at (nulls first).
func (s *StreakStore) ListFreezes(ctx context.Context) ([]domain.Freeze, error) {
	defer observeOp("streak_list_freezes", time.Now())
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT id, earned_at, used_at, expires_at FROM streak_freezes
		 WHERE user_id = ? AND streak_key = ? ORDER BY earned_at ASC`,
		s.userID, s.streakKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var freezes []domain.Freeze
	for rows.Next() {
		var f domain.Freeze
		var earnedAt, usedAt, expiresAt sql.NullInt64
		if err := rows.Scan(&f.ID, &earnedAt, &usedAt, &expiresAt); err != nil {
			return nil, err
		}
		f.EarnedAt = nullableTime(earnedAt)
		f.UsedAt = nullableTime(usedAt)
		f.ExpiresAt = nullableTime(expiresAt)
		freezes = append(freezes, f)
	}
	return freezes, rows.Err()
}

// AppendEvent upserts an event keyed by event.ID, so retries converge.
func (s *StreakStore) AppendEvent(ctx context.Context, event domain.StreakEvent) error {
	defer observeOp("streak_append_event", time.Now())
	metaJSON, err := encodeMetadata(event.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.db.ExecContext(ctx,
		`INSERT INTO streak_events (id, user_id, streak_key, created_at, timezone, is_freeze, freeze_id, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			created_at=excluded.created_at, timezone=excluded.timezone,
			is_freeze=excluded.is_freeze, freeze_id=excluded.freeze_id, metadata=excluded.metadata`,
		event.ID, s.userID, s.streakKey, event.CreatedAt.Unix(), event.Timezone, event.IsFreeze, event.FreezeID, metaJSON,
	)
	return err
}

// MarkFreezeUsed sets used_at, returning a conflict fault if it was
// already used — the orchestrator treats that as benign.
func (s *StreakStore) MarkFreezeUsed(ctx context.Context, freezeID string, at time.Time) error {
	defer observeOp("streak_mark_freeze_used", time.Now())
	result, err := s.db.db.ExecContext(ctx,
		`UPDATE streak_freezes SET used_at = ? WHERE id = ? AND user_id = ? AND streak_key = ? AND used_at IS NULL`,
		at.Unix(), freezeID, s.userID, s.streakKey,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if qerr := s.db.db.QueryRowContext(ctx,
			`SELECT 1 FROM streak_freezes WHERE id = ? AND user_id = ? AND streak_key = ?`,
			freezeID, s.userID, s.streakKey,
		).Scan(&exists); qerr != nil {
			if qerr == sql.ErrNoRows {
				return domain.ErrFreezeNotFound
			}
			return qerr
		}
		return domain.NewFault(domain.CodeConflict, "freeze already used")
	}
	return nil
}

// UpsertSummary merges the summary into the stored document.
func (s *StreakStore) UpsertSummary(ctx context.Context, summary domain.StreakSummary) error {
	defer observeOp("streak_upsert_summary", time.Now())
	freezesJSON, err := json.Marshal(summary.FreezesAvailable)
	if err != nil {
		return err
	}
	recentJSON, err := encodeEvents(summary.RecentEvents)
	if err != nil {
		return err
	}
	_, err = s.db.db.ExecContext(ctx,
		`INSERT INTO streak_summaries (
			user_id, streak_key, current_streak, longest_streak, date_last_event,
			last_event_timezone, date_streak_start, total_events, freezes_available,
			freezes_available_count, date_created, date_updated, events_required_per_day,
			today_event_count, recent_events
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, streak_key) DO UPDATE SET
			current_streak=excluded.current_streak, longest_streak=excluded.longest_streak,
			date_last_event=excluded.date_last_event, last_event_timezone=excluded.last_event_timezone,
			date_streak_start=excluded.date_streak_start, total_events=excluded.total_events,
			freezes_available=excluded.freezes_available, freezes_available_count=excluded.freezes_available_count,
			date_created=excluded.date_created, date_updated=excluded.date_updated,
			events_required_per_day=excluded.events_required_per_day, today_event_count=excluded.today_event_count,
			recent_events=excluded.recent_events`,
		s.userID, s.streakKey, summary.CurrentStreak, summary.LongestStreak,
		nullableUnixPtr(summary.DateLastEvent), summary.LastEventTimezone,
		nullableUnixPtr(summary.DateStreakStart), summary.TotalEvents, string(freezesJSON),
		summary.FreezesAvailableCount, nullableUnixPtr(summary.DateCreated), summary.DateUpdated.Unix(),
		summary.EventsRequiredPerDay, summary.TodayEventCount, string(recentJSON),
	)
	return err
}

// StreamSummary polls the stored summary and emits a value whenever it
// changes, closing when ctx is canceled. There is no native change feed in
// SQLite; this is the restartable lazy sequence §6 calls for, built the
// simplest way that satisfies "emits every server-observed change."
func (s *StreakStore) StreamSummary(ctx context.Context) (<-chan domain.StreakSummary, error) {
	ch := make(chan domain.StreakSummary, 1)
	go func() {
		defer close(ch)
		var last *domain.StreakSummary
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cur, err := s.getSummary(ctx)
				if err != nil || cur == nil {
					continue
				}
				if last == nil || !summariesEqual(*last, *cur) {
					last = cur
					select {
					case ch <- *cur:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return ch, nil
}

// GetSummary returns the stored summary, or nil if none has been written
// yet. Used by read-only callers (the API's REST surface) that don't want
// to trigger a recalculation.
func (s *StreakStore) GetSummary(ctx context.Context) (*domain.StreakSummary, error) {
	defer observeOp("streak_get_summary", time.Now())
	return s.getSummary(ctx)
}

func (s *StreakStore) getSummary(ctx context.Context) (*domain.StreakSummary, error) {
	row := s.db.db.QueryRowContext(ctx,
		`SELECT current_streak, longest_streak, date_last_event, last_event_timezone,
			date_streak_start, total_events, freezes_available, freezes_available_count,
			date_created, date_updated, events_required_per_day, today_event_count, recent_events
		 FROM streak_summaries WHERE user_id = ? AND streak_key = ?`,
		s.userID, s.streakKey,
	)
	var (
		sum                                                      domain.StreakSummary
		dateLastEvent, dateStreakStart, dateCreated               sql.NullInt64
		dateUpdated                                               int64
		freezesJSON, recentJSON                                   string
	)
	err := row.Scan(&sum.CurrentStreak, &sum.LongestStreak, &dateLastEvent, &sum.LastEventTimezone,
		&dateStreakStart, &sum.TotalEvents, &freezesJSON, &sum.FreezesAvailableCount,
		&dateCreated, &dateUpdated, &sum.EventsRequiredPerDay, &sum.TodayEventCount, &recentJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sum.UserID = s.userID
	sum.StreakKey = s.streakKey
	sum.DateLastEvent = nullableTime(dateLastEvent)
	sum.DateStreakStart = nullableTime(dateStreakStart)
	sum.DateCreated = nullableTime(dateCreated)
	sum.DateUpdated = time.Unix(dateUpdated, 0).UTC()
	if err := json.Unmarshal([]byte(freezesJSON), &sum.FreezesAvailable); err != nil {
		return nil, err
	}
	events, err := decodeEvents[domain.StreakEvent](recentJSON)
	if err != nil {
		return nil, err
	}
	sum.RecentEvents = events
	return &sum, nil
}

func summariesEqual(a, b domain.StreakSummary) bool {
	return a.CurrentStreak == b.CurrentStreak &&
		a.LongestStreak == b.LongestStreak &&
		a.TotalEvents == b.TotalEvents &&
		a.DateUpdated.Equal(b.DateUpdated)
}
