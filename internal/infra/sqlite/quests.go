package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/loopstate/core/internal/domain"
)

// QuestStore tracks weekly quests for one user.
type QuestStore struct {
	db     *DB
	userID string
}

// NewQuestStore binds a QuestStore to a single user.
func NewQuestStore(db *DB, userID string) *QuestStore {
	return &QuestStore{db: db, userID: userID}
}

// Insert adds a new quest.
func (s *QuestStore) Insert(ctx context.Context, q domain.Quest) error {
	_, err := s.db.db.ExecContext(ctx,
		`INSERT INTO quests (user_id, id, type, description, target, progress, reward_xp, expires_at, completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, id) DO NOTHING`,
		s.userID, q.ID, string(q.Type), q.Description, q.Target, q.Progress, q.RewardXP, q.ExpiresAt.Unix(), q.Completed,
	)
	return err
}

// ListActive returns non-expired, non-completed quests, ascending by
// expiry.
func (s *QuestStore) ListActive(ctx context.Context, now time.Time) ([]domain.Quest, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT id, type, description, target, progress, reward_xp, expires_at, completed
		 FROM quests WHERE user_id = ? AND completed = 0 AND expires_at > ?
		 ORDER BY expires_at ASC`,
		s.userID, now.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuests(rows)
}

// UpdateProgress adds delta to a quest's progress and returns the updated
// row, or nil if the quest does not exist.
func (s *QuestStore) UpdateProgress(ctx context.Context, id string, delta int) (*domain.Quest, error) {
	_, err := s.db.db.ExecContext(ctx,
		`UPDATE quests SET progress = progress + ? WHERE user_id = ? AND id = ?`,
		delta, s.userID, id,
	)
	if err != nil {
		return nil, err
	}
	row := s.db.db.QueryRowContext(ctx,
		`SELECT id, type, description, target, progress, reward_xp, expires_at, completed
		 FROM quests WHERE user_id = ? AND id = ?`,
		s.userID, id,
	)
	var q domain.Quest
	var expiresAt int64
	var typ string
	if err := row.Scan(&q.ID, &typ, &q.Description, &q.Target, &q.Progress, &q.RewardXP, &expiresAt, &q.Completed); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	q.Type = domain.QuestType(typ)
	q.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &q, nil
}

// SetProgressIfHigher sets a quest's progress to value unless its current
// progress is already at least that high, and returns the updated row, or
// nil if the quest does not exist. Used for quests whose progress tracks
// an absolute high-water mark (e.g. longest streak reached) rather than
// an accumulating delta.
func (s *QuestStore) SetProgressIfHigher(ctx context.Context, id string, value int) (*domain.Quest, error) {
	_, err := s.db.db.ExecContext(ctx,
		`UPDATE quests SET progress = MAX(progress, ?) WHERE user_id = ? AND id = ?`,
		value, s.userID, id,
	)
	if err != nil {
		return nil, err
	}
	row := s.db.db.QueryRowContext(ctx,
		`SELECT id, type, description, target, progress, reward_xp, expires_at, completed
		 FROM quests WHERE user_id = ? AND id = ?`,
		s.userID, id,
	)
	var q domain.Quest
	var expiresAt int64
	var typ string
	if err := row.Scan(&q.ID, &typ, &q.Description, &q.Target, &q.Progress, &q.RewardXP, &expiresAt, &q.Completed); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	q.Type = domain.QuestType(typ)
	q.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &q, nil
}

// Complete marks a quest completed.
func (s *QuestStore) Complete(ctx context.Context, id string) error {
	_, err := s.db.db.ExecContext(ctx,
		`UPDATE quests SET completed = 1 WHERE user_id = ? AND id = ?`, s.userID, id,
	)
	return err
}

// DeleteExpired removes quests that expired before now, returning the
// number removed.
func (s *QuestStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.db.ExecContext(ctx,
		`DELETE FROM quests WHERE user_id = ? AND expires_at <= ?`, s.userID, now.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanQuests(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.Quest, error) {
	var out []domain.Quest
	for rows.Next() {
		var q domain.Quest
		var expiresAt int64
		var typ string
		if err := rows.Scan(&q.ID, &typ, &q.Description, &q.Target, &q.Progress, &q.RewardXP, &expiresAt, &q.Completed); err != nil {
			return nil, err
		}
		q.Type = domain.QuestType(typ)
		q.ExpiresAt = time.Unix(expiresAt, 0).UTC()
		out = append(out, q)
	}
	return out, rows.Err()
}
