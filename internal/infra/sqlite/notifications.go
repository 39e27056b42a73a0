package sqlite

import (
	"context"
	"time"

	"github.com/loopstate/core/internal/domain"
)

// NotificationStore tracks sent notifications for one user.
type NotificationStore struct {
	db     *DB
	userID string
}

// NewNotificationStore binds a NotificationStore to a single user.
func NewNotificationStore(db *DB, userID string) *NotificationStore {
	return &NotificationStore{db: db, userID: userID}
}

// Insert records a notification and returns its assigned ID.
func (s *NotificationStore) Insert(ctx context.Context, n domain.Notification) (int64, error) {
	result, err := s.db.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, body, created_at, shown)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.userID, string(n.Type), n.Title, n.Body, n.CreatedAt.Unix(), n.Shown,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CountToday returns how many notifications were sent since midnight of
// `now`'s day in `now`'s own location.
func (s *NotificationStore) CountToday(ctx context.Context, now time.Time) (int, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var count int
	err := s.db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND created_at >= ?`,
		s.userID, startOfDay.Unix(),
	).Scan(&count)
	return count, err
}

// ListPending returns unshown notifications, newest first, capped at limit.
func (s *NotificationStore) ListPending(ctx context.Context, limit int) ([]domain.Notification, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT id, type, title, body, created_at, shown FROM notifications
		 WHERE user_id = ? AND shown = 0 ORDER BY created_at DESC LIMIT ?`,
		s.userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var createdAt int64
		var typ string
		if err := rows.Scan(&n.ID, &typ, &n.Title, &n.Body, &createdAt, &n.Shown); err != nil {
			return nil, err
		}
		n.Type = domain.NotificationType(typ)
		n.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkShown marks a notification as shown.
func (s *NotificationStore) MarkShown(ctx context.Context, id int64) error {
	_, err := s.db.db.ExecContext(ctx,
		`UPDATE notifications SET shown = 1 WHERE user_id = ? AND id = ?`, s.userID, id,
	)
	return err
}
