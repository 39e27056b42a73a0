// Package domain holds the data model, repository contracts, and sentinel
// errors shared by the calendar kernel, freeze policy, streak calculator,
// XP calculator, and the callable orchestrators that bind them to a store.
package domain

import "time"

// ─── Streak Events ──────────────────────────────────────────────────────────

// StreakEvent is one append-only record in a user's streak event log.
type StreakEvent struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Timezone  string    `json:"timezone"` // IANA zone the device believed it was in
	IsFreeze  bool      `json:"is_freeze"`
	FreezeID  string    `json:"freeze_id,omitempty"` // set iff IsFreeze
	Metadata  Metadata  `json:"metadata,omitempty"`
}

// ─── XP Events ──────────────────────────────────────────────────────────────

// XPEvent is one append-only record in a user's experience-points log.
type XPEvent struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Points    int64     `json:"points"`
	Metadata  Metadata  `json:"metadata,omitempty"`
}

// ─── Freezes ─────────────────────────────────────────────────────────────────

// Freeze is a consumable token that fills one missed local day.
type Freeze struct {
	ID        string     `json:"id"`
	EarnedAt  *time.Time `json:"earned_at,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Available reports whether the freeze can still be consumed at instant t.
func (f Freeze) Available(t time.Time) bool {
	if f.UsedAt != nil {
		return false
	}
	if f.ExpiresAt != nil && t.After(*f.ExpiresAt) {
		return false
	}
	return true
}

// ─── Configuration ───────────────────────────────────────────────────────────

// FreezeBehavior selects how the streak calculator treats gaps.
type FreezeBehavior string

const (
	NoFreezes     FreezeBehavior = "no_freezes"
	AutoConsume   FreezeBehavior = "auto_consume"
	ManualConsume FreezeBehavior = "manual_consume"
)

// StreakConfig parameterizes the streak calculator for one streak_key.
type StreakConfig struct {
	StreakKey            string         `json:"streak_key"`
	EventsRequiredPerDay  int            `json:"events_required_per_day"`
	LeewayHours           int            `json:"leeway_hours"`
	FreezeBehavior        FreezeBehavior `json:"freeze_behavior"`
}

// Validate checks the invariants the §7 error taxonomy calls invalid_argument.
func (c StreakConfig) Validate() error {
	if c.StreakKey == "" {
		return NewFault(CodeInvalidArgument, "streak_key is required")
	}
	if c.EventsRequiredPerDay < 1 {
		return NewFault(CodeInvalidArgument, "events_required_per_day must be >= 1")
	}
	if c.LeewayHours < 0 || c.LeewayHours > 23 {
		return NewFault(CodeInvalidArgument, "leeway_hours must be within 0-23")
	}
	switch c.FreezeBehavior {
	case NoFreezes, AutoConsume, ManualConsume:
	default:
		return NewFault(CodeInvalidArgument, "unknown freeze_behavior: "+string(c.FreezeBehavior))
	}
	return nil
}

// XPConfig parameterizes the XP calculator for one experience_key.
type XPConfig struct {
	ExperienceKey string `json:"experience_key"`
}

// Validate reports the invalid_argument cases for XPConfig.
func (c XPConfig) Validate() error {
	if c.ExperienceKey == "" {
		return NewFault(CodeInvalidArgument, "experience_key is required")
	}
	return nil
}

// ─── Summaries ───────────────────────────────────────────────────────────────

// StreakSummary is the overwrite-merged, history-free projection of a
// user's streak event log at a given instant.
type StreakSummary struct {
	StreakKey             string        `json:"streak_key"`
	UserID                string        `json:"user_id"`
	CurrentStreak         int           `json:"current_streak"`
	LongestStreak         int           `json:"longest_streak"`
	DateLastEvent         *time.Time    `json:"date_last_event,omitempty"`
	LastEventTimezone     string        `json:"last_event_timezone,omitempty"`
	DateStreakStart       *time.Time    `json:"date_streak_start,omitempty"`
	TotalEvents           int           `json:"total_events"`
	FreezesAvailable      []Freeze      `json:"freezes_available"`
	FreezesAvailableCount int           `json:"freezes_available_count"`
	DateCreated           *time.Time    `json:"date_created,omitempty"`
	DateUpdated           time.Time     `json:"date_updated"`
	EventsRequiredPerDay  int           `json:"events_required_per_day"`
	TodayEventCount       int           `json:"today_event_count"`
	RecentEvents          []StreakEvent `json:"recent_events"`
}

// StreakState is the pure projection of a StreakSummary described in §4.3.
type StreakState string

const (
	StreakActive  StreakState = "active"
	StreakAtRisk  StreakState = "at_risk"
	StreakBroken  StreakState = "broken"
)

// State projects the §4.3 state machine from the summary and a qualifying
// bool telling whether today already qualifies (computed by the caller,
// since that requires the same config/zone context the calculator used).
func (s StreakSummary) State(todayQualifies bool) StreakState {
	if s.CurrentStreak == 0 {
		return StreakBroken
	}
	if todayQualifies {
		return StreakActive
	}
	return StreakAtRisk
}

// XPSummary is the overwrite-merged projection of a user's XP event log.
type XPSummary struct {
	ExperienceKey       string     `json:"experience_key"`
	UserID              string     `json:"user_id"`
	PointsAllTime       int64      `json:"points_all_time"`
	PointsToday         int64      `json:"points_today"`
	EventsTodayCount    int        `json:"events_today_count"`
	PointsThisWeek      int64      `json:"points_this_week"`
	PointsLast7Days     int64      `json:"points_last_7_days"`
	PointsThisMonth     int64      `json:"points_this_month"`
	PointsLast30Days    int64      `json:"points_last_30_days"`
	PointsThisYear      int64      `json:"points_this_year"`
	PointsLast12Months  int64      `json:"points_last_12_months"`
	DateLastEvent       *time.Time `json:"date_last_event,omitempty"`
	DateCreated         *time.Time `json:"date_created,omitempty"`
	DateUpdated         time.Time  `json:"date_updated"`
	RecentEvents        []XPEvent  `json:"recent_events"`
}

// ─── Progress items (supplemental repository contract only — §6) ──────────

// ProgressItem is an arbitrary named progress record, owned and mutated by
// the out-of-scope client manager; the core never calculates against it.
type ProgressItem struct {
	ID        string    `json:"id"`
	Value     float64   `json:"value"`
	Target    float64   `json:"target"`
	UpdatedAt time.Time `json:"updated_at"`
	Metadata  Metadata  `json:"metadata,omitempty"`
}

// ChangeKind categorizes a progress change-stream event.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// ProgressChange is one entry in the progress change stream.
type ProgressChange struct {
	Kind ChangeKind
	Item ProgressItem
}

// ─── Supplemented: achievements / quests / notifications ──────────────────

// UserStats is a snapshot of calculator output fed to achievement predicates.
type UserStats struct {
	CurrentStreak   int
	LongestStreak   int
	TotalEvents     int
	TodayEventCount int
	PointsAllTime   int64
	PointsToday     int64
	Level           int
}

// AchievementCategory groups achievements by theme.
type AchievementCategory string

const (
	CatGettingStarted AchievementCategory = "getting_started"
	CatStreaks        AchievementCategory = "streaks"
	CatPoints         AchievementCategory = "points"
	CatMastery        AchievementCategory = "mastery"
)

// AchievementDef defines a single achievement's requirements.
type AchievementDef struct {
	ID        string
	Name      string
	Category  AchievementCategory
	Icon      string
	RewardXP  int64
	Predicate func(UserStats) bool `json:"-"`
}

// UnlockedAchievement records when an achievement was earned.
type UnlockedAchievement struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlocked_at"`
	Notified   bool      `json:"notified"`
}

// QuestType categorizes the kind of quest.
type QuestType string

const (
	QuestStreakLength QuestType = "streak_length"
	QuestPointsEarned QuestType = "points_earned"
	QuestDaysActive   QuestType = "days_active"
)

// Quest represents a weekly challenge with progress tracking.
type Quest struct {
	ID          string    `json:"id"`
	Type        QuestType `json:"type"`
	Description string    `json:"description"`
	Target      int       `json:"target"`
	Progress    int       `json:"progress"`
	RewardXP    int64     `json:"reward_xp"`
	ExpiresAt   time.Time `json:"expires_at"`
	Completed   bool      `json:"completed"`
}

// ProgressPct returns completion percentage (0-100).
func (q Quest) ProgressPct() float64 {
	if q.Target <= 0 {
		return 100.0
	}
	pct := float64(q.Progress) / float64(q.Target) * 100.0
	if pct > 100.0 {
		pct = 100.0
	}
	return pct
}

// QuestTemplate defines the pool of possible quests.
type QuestTemplate struct {
	Type        QuestType
	Target      int
	Description string
	RewardXP    int64
}

// NotificationType categorizes notifications.
type NotificationType string

const (
	NotifyAchievement  NotificationType = "achievement"
	NotifyLevelUp      NotificationType = "level_up"
	NotifyDailySummary NotificationType = "daily_summary"
	NotifyQuestComplete NotificationType = "quest_complete"
)

// Notification is a user-facing message.
type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// NotificationPolicy governs how often notifications are sent.
type NotificationPolicy struct {
	MaxPerDay  int
	QuietStart string // "22:00"
	QuietEnd   string // "08:00"
}

// DefaultNotificationPolicy returns the stock policy: never nag about
// at-risk streaks, max one notification a day, quiet hours respected.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{
		MaxPerDay:  1,
		QuietStart: "22:00",
		QuietEnd:   "08:00",
	}
}
