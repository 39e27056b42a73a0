package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/loopstate/core/internal/domain"
)

// XPStore implements domain.XPRepository scoped to one
// (user_id, experience_key) pair.
type XPStore struct {
	db            *DB
	userID        string
	experienceKey string
}

// NewXPStore binds an XPStore to a single user and experience key.
func NewXPStore(db *DB, userID, experienceKey string) *XPStore {
	return &XPStore{db: db, userID: userID, experienceKey: experienceKey}
}

var _ domain.XPRepository = (*XPStore)(nil)

// ListEvents returns every event for this (user, experience), ascending
// by created_at.
func (s *XPStore) ListEvents(ctx context.Context) ([]domain.XPEvent, error) {
	defer observeOp("xp_list_events", time.Now())
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT id, created_at, points, metadata FROM xp_events
		 WHERE user_id = ? AND experience_key = ? ORDER BY created_at ASC`,
		s.userID, s.experienceKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.XPEvent
	for rows.Next() {
		var e domain.XPEvent
		var createdAt int64
		var metaJSON string
		if err := rows.Scan(&e.ID, &createdAt, &e.Points, &metaJSON); err != nil {
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

// AppendEvent upserts an event keyed by event.ID.
func (s *XPStore) AppendEvent(ctx context.Context, event domain.XPEvent) error {
	defer observeOp("xp_append_event", time.Now())
	metaJSON, err := encodeMetadata(event.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.db.ExecContext(ctx,
		`INSERT INTO xp_events (id, user_id, experience_key, created_at, points, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			created_at=excluded.created_at, points=excluded.points, metadata=excluded.metadata`,
		event.ID, s.userID, s.experienceKey, event.CreatedAt.Unix(), event.Points, metaJSON,
	)
	return err
}

// UpsertSummary merges the summary into the stored document.
func (s *XPStore) UpsertSummary(ctx context.Context, summary domain.XPSummary) error {
	defer observeOp("xp_upsert_summary", time.Now())
	recentJSON, err := encodeEvents(summary.RecentEvents)
	if err != nil {
		return err
	}
	_, err = s.db.db.ExecContext(ctx,
		`INSERT INTO xp_summaries (
			user_id, experience_key, points_all_time, points_today, events_today_count,
			points_this_week, points_last_7_days, points_this_month, points_last_30_days,
			points_this_year, points_last_12_months, date_last_event, date_created,
			date_updated, recent_events
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, experience_key) DO UPDATE SET
			points_all_time=excluded.points_all_time, points_today=excluded.points_today,
			events_today_count=excluded.events_today_count, points_this_week=excluded.points_this_week,
			points_last_7_days=excluded.points_last_7_days, points_this_month=excluded.points_this_month,
			points_last_30_days=excluded.points_last_30_days, points_this_year=excluded.points_this_year,
			points_last_12_months=excluded.points_last_12_months, date_last_event=excluded.date_last_event,
			date_created=excluded.date_created, date_updated=excluded.date_updated,
			recent_events=excluded.recent_events`,
		s.userID, s.experienceKey, summary.PointsAllTime, summary.PointsToday, summary.EventsTodayCount,
		summary.PointsThisWeek, summary.PointsLast7Days, summary.PointsThisMonth, summary.PointsLast30Days,
		summary.PointsThisYear, summary.PointsLast12Months, nullableUnixPtr(summary.DateLastEvent),
		nullableUnixPtr(summary.DateCreated), summary.DateUpdated.Unix(), string(recentJSON),
	)
	return err
}

// StreamSummary polls the stored summary, same shape as StreakStore's.
func (s *XPStore) StreamSummary(ctx context.Context) (<-chan domain.XPSummary, error) {
	ch := make(chan domain.XPSummary, 1)
	go func() {
		defer close(ch)
		var last *domain.XPSummary
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
				if last == nil || !xpSummariesEqual(*last, *cur) {
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
// yet.
func (s *XPStore) GetSummary(ctx context.Context) (*domain.XPSummary, error) {
	defer observeOp("xp_get_summary", time.Now())
	return s.getSummary(ctx)
}

func (s *XPStore) getSummary(ctx context.Context) (*domain.XPSummary, error) {
	row := s.db.db.QueryRowContext(ctx,
		`SELECT points_all_time, points_today, events_today_count, points_this_week,
			points_last_7_days, points_this_month, points_last_30_days, points_this_year,
			points_last_12_months, date_last_event, date_created, date_updated, recent_events
		 FROM xp_summaries WHERE user_id = ? AND experience_key = ?`,
		s.userID, s.experienceKey,
	)
	var (
		sum                             domain.XPSummary
		dateLastEvent, dateCreated      sql.NullInt64
		dateUpdated                     int64
		recentJSON                      string
	)
	err := row.Scan(&sum.PointsAllTime, &sum.PointsToday, &sum.EventsTodayCount, &sum.PointsThisWeek,
		&sum.PointsLast7Days, &sum.PointsThisMonth, &sum.PointsLast30Days, &sum.PointsThisYear,
		&sum.PointsLast12Months, &dateLastEvent, &dateCreated, &dateUpdated, &recentJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sum.UserID = s.userID
	sum.ExperienceKey = s.experienceKey
	sum.DateLastEvent = nullableTime(dateLastEvent)
	sum.DateCreated = nullableTime(dateCreated)
	sum.DateUpdated = time.Unix(dateUpdated, 0).UTC()
	events, err := decodeEvents[domain.XPEvent](recentJSON)
	if err != nil {
		return nil, err
	}
	sum.RecentEvents = events
	return &sum, nil
}

func xpSummariesEqual(a, b domain.XPSummary) bool {
	return a.PointsAllTime == b.PointsAllTime && a.DateUpdated.Equal(b.DateUpdated)
}
