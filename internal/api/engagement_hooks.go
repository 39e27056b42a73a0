package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/loopstate/core/internal/app/engagement"
	"github.com/loopstate/core/internal/domain"
	"github.com/loopstate/core/internal/infra/metrics"
)

// applyStreakEngagement feeds a freshly calculated streak summary into the
// achievement/quest/notification layer. before is nil on a user's first
// calculation, or if the prior summary couldn't be read — in the latter
// case the caller has already skipped the call rather than risk treating
// a read failure as "no prior progress". Per SPEC_FULL.md §5 this is
// additive UI sugar: failures here are logged and swallowed, never
// surfaced as a calculate error.
func (s *Server) applyStreakEngagement(ctx context.Context, userID string, before *domain.StreakSummary, after domain.StreakSummary, now time.Time) {
	svc := s.engagementFor(userID)

	stats := domain.UserStats{
		CurrentStreak:   after.CurrentStreak,
		LongestStreak:   after.LongestStreak,
		TotalEvents:     after.TotalEvents,
		TodayEventCount: after.TodayEventCount,
	}
	s.unlockAchievements(ctx, svc, stats, now)

	completed, err := svc.quests.RecordStreakLength(ctx, now, after.CurrentStreak)
	if err != nil {
		log.Printf("[api] record streak length quest progress: %v", err)
	} else {
		s.reportQuestCompletions(ctx, svc, now, completed)
	}

	var beforeEvents int
	var beforeLastEvent *time.Time
	if before != nil {
		beforeEvents = before.TotalEvents
		beforeLastEvent = before.DateLastEvent
	}
	if after.TotalEvents > beforeEvents && !sameUTCDay(beforeLastEvent, after.DateLastEvent) {
		s.recordQuestProgress(ctx, svc, now, domain.QuestDaysActive, 1)
	}
}

// sameUTCDay reports whether a and b fall on the same UTC calendar day. A
// nil a (no prior event recorded) is never the same day as a non-nil b.
func sameUTCDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return false
	}
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// applyXPEngagement mirrors applyStreakEngagement for an XP calculation.
func (s *Server) applyXPEngagement(ctx context.Context, userID string, before *domain.XPSummary, after domain.XPSummary, now time.Time) {
	svc := s.engagementFor(userID)

	var beforePoints int64
	if before != nil {
		beforePoints = before.PointsAllTime
	}
	level := engagement.LevelForXP(after.PointsAllTime)

	stats := domain.UserStats{
		PointsAllTime: after.PointsAllTime,
		PointsToday:   after.PointsToday,
		Level:         level,
	}
	s.unlockAchievements(ctx, svc, stats, now)

	if delta := after.PointsAllTime - beforePoints; delta > 0 {
		metrics.PointsAwarded.Add(float64(delta))
		s.recordQuestProgress(ctx, svc, now, domain.QuestPointsEarned, int(delta))
	}

	if beforeLevel := engagement.LevelForXP(beforePoints); level > beforeLevel {
		s.notify(ctx, svc, now, domain.Notification{
			Type:  domain.NotifyLevelUp,
			Title: "Level up!",
			Body:  fmt.Sprintf("You reached level %d", level),
		})
	}
}

func (s *Server) unlockAchievements(ctx context.Context, svc engagementServices, stats domain.UserStats, now time.Time) {
	unlocked, err := svc.achievements.CheckAndUnlock(ctx, stats)
	if err != nil {
		log.Printf("[api] check achievements: %v", err)
		return
	}
	for _, def := range unlocked {
		metrics.AchievementsUnlocked.WithLabelValues(def.ID).Inc()
		s.notify(ctx, svc, now, domain.Notification{
			Type:  domain.NotifyAchievement,
			Title: "Achievement unlocked",
			Body:  def.Name,
		})
	}
}

func (s *Server) recordQuestProgress(ctx context.Context, svc engagementServices, now time.Time, questType domain.QuestType, delta int) {
	completed, err := svc.quests.RecordProgress(ctx, now, questType, delta)
	if err != nil {
		log.Printf("[api] record quest progress: %v", err)
		return
	}
	s.reportQuestCompletions(ctx, svc, now, completed)
}

func (s *Server) reportQuestCompletions(ctx context.Context, svc engagementServices, now time.Time, completed []domain.Quest) {
	for _, q := range completed {
		metrics.QuestsCompleted.WithLabelValues(string(q.Type)).Inc()
		s.notify(ctx, svc, now, domain.Notification{
			Type:  domain.NotifyQuestComplete,
			Title: "Quest complete",
			Body:  q.Description,
		})
	}
}

func (s *Server) notify(ctx context.Context, svc engagementServices, now time.Time, notif domain.Notification) {
	id, reason, err := svc.notifications.Create(ctx, notif, now)
	if err != nil {
		log.Printf("[api] create notification: %v", err)
		return
	}
	if id == 0 {
		metrics.NotificationsSuppressed.WithLabelValues(reason).Inc()
		return
	}
	metrics.NotificationsSent.WithLabelValues(string(notif.Type)).Inc()
}
