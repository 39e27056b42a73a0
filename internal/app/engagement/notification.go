package engagement

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/loopstate/core/internal/domain"
	"github.com/loopstate/core/internal/infra/sqlite"
)

// NotificationService manages smart notifications scoped to one user, under
// a policy of: max N per day, no notifications during quiet hours, and
// never for "streak at risk" — silence is the product decision, not a bug.
type NotificationService struct {
	store  *sqlite.NotificationStore
	policy domain.NotificationPolicy
}

// NewNotificationService creates a notification service with the default
// policy.
func NewNotificationService(db *sqlite.DB, userID string) *NotificationService {
	return &NotificationService{
		store:  sqlite.NewNotificationStore(db, userID),
		policy: domain.DefaultNotificationPolicy(),
	}
}

// NewNotificationServiceWithPolicy creates a notification service with a
// custom policy.
func NewNotificationServiceWithPolicy(db *sqlite.DB, userID string, policy domain.NotificationPolicy) *NotificationService {
	return &NotificationService{store: sqlite.NewNotificationStore(db, userID), policy: policy}
}

// Create creates a notification if policy allows it. Returns the assigned
// ID and an empty suppress reason on success. If policy withholds the
// notification, returns 0 and the reason ("daily_cap" or "quiet_hours")
// so the caller can account for it.
func (n *NotificationService) Create(ctx context.Context, notif domain.Notification, now time.Time) (int64, string, error) {
	todayCount, err := n.store.CountToday(ctx, now)
	if err != nil {
		return 0, "", fmt.Errorf("count today: %w", err)
	}
	if todayCount >= n.policy.MaxPerDay {
		return 0, "daily_cap", nil
	}
	if n.isQuietHour(now) {
		return 0, "quiet_hours", nil
	}

	notif.CreatedAt = now
	notif.Shown = false

	id, err := n.store.Insert(ctx, notif)
	if err != nil {
		return 0, "", fmt.Errorf("insert notification: %w", err)
	}
	return id, "", nil
}

// Pending returns unshown notifications, newest first.
func (n *NotificationService) Pending(ctx context.Context, limit int) ([]domain.Notification, error) {
	return n.store.ListPending(ctx, limit)
}

// MarkShown marks a notification as shown.
func (n *NotificationService) MarkShown(ctx context.Context, id int64) error {
	return n.store.MarkShown(ctx, id)
}

// TodayCount returns how many notifications were sent today.
func (n *NotificationService) TodayCount(ctx context.Context, now time.Time) (int, error) {
	return n.store.CountToday(ctx, now)
}

// Policy returns the active notification policy.
func (n *NotificationService) Policy() domain.NotificationPolicy {
	return n.policy
}

// isQuietHour reports whether t falls within the configured quiet window.
func (n *NotificationService) isQuietHour(t time.Time) bool {
	startHour, startMin := parseHHMM(n.policy.QuietStart)
	endHour, endMin := parseHHMM(n.policy.QuietEnd)

	timeMinutes := t.Hour()*60 + t.Minute()
	startMinutes := startHour*60 + startMin
	endMinutes := endHour*60 + endMin

	if startMinutes > endMinutes {
		// Wraps midnight: e.g., 22:00-08:00.
		return timeMinutes >= startMinutes || timeMinutes < endMinutes
	}
	return timeMinutes >= startMinutes && timeMinutes < endMinutes
}

// parseHHMM parses "HH:MM" into hour and minute.
func parseHHMM(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}
