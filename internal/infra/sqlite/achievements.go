package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/loopstate/core/internal/domain"
)

// AchievementStore tracks unlocked achievements for one user.
type AchievementStore struct {
	db     *DB
	userID string
}

// NewAchievementStore binds an AchievementStore to a single user.
func NewAchievementStore(db *DB, userID string) *AchievementStore {
	return &AchievementStore{db: db, userID: userID}
}

// IsUnlocked reports whether the given achievement was already unlocked.
func (s *AchievementStore) IsUnlocked(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM achievements WHERE user_id = ? AND id = ?`,
		s.userID, id,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Unlock records an achievement unlock, returning false if it was already
// unlocked (idempotent).
func (s *AchievementStore) Unlock(ctx context.Context, id string, at time.Time) (bool, error) {
	result, err := s.db.db.ExecContext(ctx,
		`INSERT INTO achievements (user_id, id, unlocked_at, notified) VALUES (?, ?, ?, 0)
		 ON CONFLICT(user_id, id) DO NOTHING`,
		s.userID, id, at.Unix(),
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListUnlocked returns every achievement this user has earned, ascending by
// unlock time.
func (s *AchievementStore) ListUnlocked(ctx context.Context) ([]domain.UnlockedAchievement, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT id, unlocked_at, notified FROM achievements WHERE user_id = ? ORDER BY unlocked_at ASC`,
		s.userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UnlockedAchievement
	for rows.Next() {
		var ua domain.UnlockedAchievement
		var unlockedAt int64
		if err := rows.Scan(&ua.ID, &unlockedAt, &ua.Notified); err != nil {
			return nil, err
		}
		ua.UnlockedAt = time.Unix(unlockedAt, 0).UTC()
		out = append(out, ua)
	}
	return out, rows.Err()
}

// UnlockedCount returns how many achievements this user has earned.
func (s *AchievementStore) UnlockedCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM achievements WHERE user_id = ?`, s.userID,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return count, err
}
