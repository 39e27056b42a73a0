package engagement

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/loopstate/core/internal/domain"
	"github.com/loopstate/core/internal/infra/sqlite"
)

// QuestService manages weekly quests scoped to one user. Three quests are
// generated when a caller asks for quests and none are active; they expire
// at the next Monday 00:00 UTC.
type QuestService struct {
	store  *sqlite.QuestStore
	userID string
}

// NewQuestService creates a quest service scoped to one user.
func NewQuestService(db *sqlite.DB, userID string) *QuestService {
	return &QuestService{store: sqlite.NewQuestStore(db, userID), userID: userID}
}

// questPool is the set of possible quest templates.
var questPool = []domain.QuestTemplate{
	{Type: domain.QuestStreakLength, Target: 3, Description: "Reach a 3-day streak", RewardXP: 75},
	{Type: domain.QuestStreakLength, Target: 7, Description: "Reach a 7-day streak", RewardXP: 200},
	{Type: domain.QuestPointsEarned, Target: 500, Description: "Earn 500 points", RewardXP: 150},
	{Type: domain.QuestPointsEarned, Target: 2000, Description: "Earn 2000 points", RewardXP: 400},
	{Type: domain.QuestDaysActive, Target: 5, Description: "Log an event on 5 different days", RewardXP: 150},
	{Type: domain.QuestDaysActive, Target: 7, Description: "Log an event every day this week", RewardXP: 250},
}

// GenerateWeeklyQuests returns this week's active quests, generating a new
// batch of 3 only if none are currently active.
func (q *QuestService) GenerateWeeklyQuests(ctx context.Context, now time.Time) ([]domain.Quest, error) {
	active, err := q.store.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return active, nil
	}

	expiry := nextMonday(now)
	selected := pickUniqueQuests(questPool, 3, now.UnixNano())

	var quests []domain.Quest
	for i, tmpl := range selected {
		quest := domain.Quest{
			ID:          fmt.Sprintf("quest-%s-%d-%d", tmpl.Type, expiry.Unix(), i),
			Type:        tmpl.Type,
			Description: tmpl.Description,
			Target:      tmpl.Target,
			RewardXP:    tmpl.RewardXP,
			ExpiresAt:   expiry,
		}
		if err := q.store.Insert(ctx, quest); err != nil {
			return nil, fmt.Errorf("insert quest: %w", err)
		}
		quests = append(quests, quest)
	}
	return quests, nil
}

// ActiveQuests returns current non-expired, non-completed quests.
func (q *QuestService) ActiveQuests(ctx context.Context, now time.Time) ([]domain.Quest, error) {
	return q.store.ListActive(ctx, now)
}

// RecordProgress increments progress for every active quest of the given
// type, returning any quests this push completed.
func (q *QuestService) RecordProgress(ctx context.Context, now time.Time, questType domain.QuestType, delta int) ([]domain.Quest, error) {
	active, err := q.store.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}

	var completed []domain.Quest
	for _, quest := range active {
		if quest.Type != questType {
			continue
		}
		updated, err := q.store.UpdateProgress(ctx, quest.ID, delta)
		if err != nil {
			return nil, err
		}
		if updated != nil && updated.Progress >= updated.Target && !updated.Completed {
			if err := q.store.Complete(ctx, quest.ID); err != nil {
				return nil, err
			}
			updated.Completed = true
			completed = append(completed, *updated)
		}
	}
	return completed, nil
}

// RecordStreakLength updates every active streak-length quest's progress to
// currentStreak, the user's current streak length. Unlike RecordProgress
// this is a high-water mark, not an accumulating delta: a streak that
// breaks and restarts must not leave stale progress from before the break,
// but a quest's progress also must never regress once a length has been
// reached.
func (q *QuestService) RecordStreakLength(ctx context.Context, now time.Time, currentStreak int) ([]domain.Quest, error) {
	active, err := q.store.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}

	var completed []domain.Quest
	for _, quest := range active {
		if quest.Type != domain.QuestStreakLength {
			continue
		}
		updated, err := q.store.SetProgressIfHigher(ctx, quest.ID, currentStreak)
		if err != nil {
			return nil, err
		}
		if updated != nil && updated.Progress >= updated.Target && !updated.Completed {
			if err := q.store.Complete(ctx, quest.ID); err != nil {
				return nil, err
			}
			updated.Completed = true
			completed = append(completed, *updated)
		}
	}
	return completed, nil
}

// CleanupExpired removes quests that expired before now.
func (q *QuestService) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	return q.store.DeleteExpired(ctx, now)
}

// nextMonday returns the next Monday at 00:00 UTC after the given time.
func nextMonday(t time.Time) time.Time {
	t = t.UTC().Truncate(24 * time.Hour)
	daysUntilMonday := (8 - int(t.Weekday())) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7
	}
	return t.AddDate(0, 0, daysUntilMonday)
}

// pickUniqueQuests selects n random templates, preferring unique types.
func pickUniqueQuests(pool []domain.QuestTemplate, n int, seed int64) []domain.QuestTemplate {
	r := rand.New(rand.NewSource(seed))

	shuffled := make([]domain.QuestTemplate, len(pool))
	copy(shuffled, pool)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	seen := make(map[domain.QuestType]bool)
	var result []domain.QuestTemplate
	for _, tmpl := range shuffled {
		if len(result) >= n {
			break
		}
		if !seen[tmpl.Type] {
			seen[tmpl.Type] = true
			result = append(result, tmpl)
		}
	}

	for _, tmpl := range shuffled {
		if len(result) >= n {
			break
		}
		dup := false
		for _, r := range result {
			if r.Type == tmpl.Type && r.Target == tmpl.Target {
				dup = true
				break
			}
		}
		if !dup {
			result = append(result, tmpl)
		}
	}

	return result
}
