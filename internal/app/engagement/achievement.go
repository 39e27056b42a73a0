// Package engagement implements the supplemental achievement, quest, and
// notification layer that sits on top of the streak and XP calculators.
// None of it participates in streak/XP calculation; it only reads the
// UserStats snapshot an orchestrator produces after a recompute.
package engagement

import (
	"context"
	"time"

	"github.com/loopstate/core/internal/domain"
	"github.com/loopstate/core/internal/infra/sqlite"
)

// AchievementService evaluates the achievement catalog against a user's
// stats and persists newly earned unlocks.
type AchievementService struct {
	store       *sqlite.AchievementStore
	definitions []domain.AchievementDef
}

// NewAchievementService creates an achievement service scoped to one user,
// with the full catalog loaded.
func NewAchievementService(db *sqlite.DB, userID string) *AchievementService {
	return &AchievementService{
		store:       sqlite.NewAchievementStore(db, userID),
		definitions: AllAchievements(),
	}
}

// CheckAndUnlock evaluates every achievement against the given stats.
// Already-unlocked achievements are skipped; returns only the newly
// unlocked ones, in catalog order.
func (a *AchievementService) CheckAndUnlock(ctx context.Context, stats domain.UserStats) ([]domain.AchievementDef, error) {
	var unlocked []domain.AchievementDef

	for _, def := range a.definitions {
		already, err := a.store.IsUnlocked(ctx, def.ID)
		if err != nil {
			return nil, err
		}
		if already {
			continue
		}
		if def.Predicate == nil || !def.Predicate(stats) {
			continue
		}
		isNew, err := a.store.Unlock(ctx, def.ID, time.Now())
		if err != nil {
			return nil, err
		}
		if isNew {
			unlocked = append(unlocked, def)
		}
	}

	return unlocked, nil
}

// ListUnlocked returns every achievement the user has earned.
func (a *AchievementService) ListUnlocked(ctx context.Context) ([]domain.UnlockedAchievement, error) {
	return a.store.ListUnlocked(ctx)
}

// UnlockedCount returns how many achievements the user has earned.
func (a *AchievementService) UnlockedCount(ctx context.Context) (int, error) {
	return a.store.UnlockedCount(ctx)
}

// TotalCount returns the size of the achievement catalog.
func (a *AchievementService) TotalCount() int {
	return len(a.definitions)
}

// Definitions returns the full achievement catalog, for display.
func (a *AchievementService) Definitions() []domain.AchievementDef {
	return a.definitions
}

// ─── Achievement catalog ────────────────────────────────────────────────────
// Four categories mirror domain.AchievementCategory. Every predicate reads
// only fields present on domain.UserStats — the calculators' own output.

// AllAchievements returns the full achievement catalog.
func AllAchievements() []domain.AchievementDef {
	return []domain.AchievementDef{
		// ── Getting Started ─────────────────────────────────────────────
		{
			ID: "first_event", Name: "First Step", Category: domain.CatGettingStarted,
			Icon: "🎯", RewardXP: 10,
			Predicate: func(s domain.UserStats) bool { return s.TotalEvents > 0 },
		},
		{
			ID: "first_day_complete", Name: "Day One", Category: domain.CatGettingStarted,
			Icon: "☀️", RewardXP: 20,
			Predicate: func(s domain.UserStats) bool { return s.CurrentStreak >= 1 },
		},
		{
			ID: "first_points", Name: "On the Board", Category: domain.CatGettingStarted,
			Icon: "📋", RewardXP: 15,
			Predicate: func(s domain.UserStats) bool { return s.PointsAllTime > 0 },
		},
		{
			ID: "ten_events", Name: "Getting Warmed Up", Category: domain.CatGettingStarted,
			Icon: "🔟", RewardXP: 30,
			Predicate: func(s domain.UserStats) bool { return s.TotalEvents >= 10 },
		},

		// ── Streaks ──────────────────────────────────────────────────────
		{
			ID: "streak_3", Name: "Three in a Row", Category: domain.CatStreaks,
			Icon: "🔥", RewardXP: 50,
			Predicate: func(s domain.UserStats) bool { return s.CurrentStreak >= 3 },
		},
		{
			ID: "streak_7", Name: "Week Warrior", Category: domain.CatStreaks,
			Icon: "🔥", RewardXP: 200,
			Predicate: func(s domain.UserStats) bool { return s.CurrentStreak >= 7 },
		},
		{
			ID: "streak_30", Name: "Monthly Machine", Category: domain.CatStreaks,
			Icon: "💪", RewardXP: 1000,
			Predicate: func(s domain.UserStats) bool { return s.CurrentStreak >= 30 },
		},
		{
			ID: "streak_100", Name: "Centurion", Category: domain.CatStreaks,
			Icon: "🏛️", RewardXP: 5000,
			Predicate: func(s domain.UserStats) bool { return s.CurrentStreak >= 100 },
		},
		{
			ID: "streak_longest_14", Name: "Fortnight Force", Category: domain.CatStreaks,
			Icon: "📅", RewardXP: 300,
			Predicate: func(s domain.UserStats) bool { return s.LongestStreak >= 14 },
		},

		// ── Points ───────────────────────────────────────────────────────
		{
			ID: "points_100", Name: "First Hundred", Category: domain.CatPoints,
			Icon: "💯", RewardXP: 25,
			Predicate: func(s domain.UserStats) bool { return s.PointsAllTime >= 100 },
		},
		{
			ID: "points_1000", Name: "Four Figures", Category: domain.CatPoints,
			Icon: "💰", RewardXP: 100,
			Predicate: func(s domain.UserStats) bool { return s.PointsAllTime >= 1000 },
		},
		{
			ID: "points_10000", Name: "Point Lord", Category: domain.CatPoints,
			Icon: "👑", RewardXP: 500,
			Predicate: func(s domain.UserStats) bool { return s.PointsAllTime >= 10000 },
		},
		{
			ID: "big_day", Name: "Big Day", Category: domain.CatPoints,
			Icon: "📈", RewardXP: 75,
			Predicate: func(s domain.UserStats) bool { return s.PointsToday >= 500 },
		},

		// ── Mastery ──────────────────────────────────────────────────────
		{
			ID: "events_100", Name: "Creature of Habit", Category: domain.CatMastery,
			Icon: "📚", RewardXP: 500,
			Predicate: func(s domain.UserStats) bool { return s.TotalEvents >= 100 },
		},
		{
			ID: "level_10", Name: "Rising Star", Category: domain.CatMastery,
			Icon: "🌅", RewardXP: 200,
			Predicate: func(s domain.UserStats) bool { return s.Level >= 10 },
		},
		{
			ID: "level_50", Name: "Veteran", Category: domain.CatMastery,
			Icon: "🎖️", RewardXP: 2000,
			Predicate: func(s domain.UserStats) bool { return s.Level >= 50 },
		},
		{
			ID: "level_100", Name: "Founder", Category: domain.CatMastery,
			Icon: "🏆", RewardXP: 50000,
			Predicate: func(s domain.UserStats) bool { return s.Level >= 100 },
		},
	}
}
