package streak_test

import (
	"testing"
	"time"

	"github.com/loopstate/core/internal/domain"
	"github.com/loopstate/core/internal/streak"
)

func at(s string) time.Time {
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return v
}

func event(id, createdAt string) domain.StreakEvent {
	return domain.StreakEvent{ID: id, CreatedAt: at(createdAt), Timezone: "UTC"}
}

func baseConfig() domain.StreakConfig {
	return domain.StreakConfig{
		StreakKey:            "daily",
		EventsRequiredPerDay: 1,
		LeewayHours:          0,
		FreezeBehavior:       domain.NoFreezes,
	}
}

// Scenario A — basic streak.
func TestCalculate_ScenarioA_Basic(t *testing.T) {
	in := streak.Input{
		Events: []domain.StreakEvent{
			event("e1", "2025-01-01T12:00:00Z"),
			event("e2", "2025-01-02T12:00:00Z"),
			event("e3", "2025-01-03T12:00:00Z"),
		},
		Config: baseConfig(),
		UserID: "u1",
		Now:    at("2025-01-03T18:00:00Z"),
		Zone:   "UTC",
	}
	out, err := streak.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if out.Summary.CurrentStreak != 3 {
		t.Errorf("current_streak = %d, want 3", out.Summary.CurrentStreak)
	}
	if out.Summary.LongestStreak != 3 {
		t.Errorf("longest_streak = %d, want 3", out.Summary.LongestStreak)
	}
	if out.Summary.TodayEventCount != 1 {
		t.Errorf("today_event_count = %d, want 1", out.Summary.TodayEventCount)
	}
	if len(out.Consumptions) != 0 {
		t.Errorf("expected no consumptions, got %v", out.Consumptions)
	}
}

// Scenario B — at-risk yesterday.
func TestCalculate_ScenarioB_AtRiskYesterday(t *testing.T) {
	in := streak.Input{
		Events: []domain.StreakEvent{
			event("e1", "2025-01-01T12:00:00Z"),
			event("e2", "2025-01-02T12:00:00Z"),
		},
		Config: baseConfig(),
		UserID: "u1",
		Now:    at("2025-01-03T10:00:00Z"),
		Zone:   "UTC",
	}
	out, err := streak.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if out.Summary.CurrentStreak != 2 {
		t.Errorf("current_streak = %d, want 2", out.Summary.CurrentStreak)
	}
	if out.Summary.LongestStreak != 2 {
		t.Errorf("longest_streak = %d, want 2", out.Summary.LongestStreak)
	}
}

// Scenario C — at-risk expires.
func TestCalculate_ScenarioC_AtRiskExpires(t *testing.T) {
	in := streak.Input{
		Events: []domain.StreakEvent{
			event("e1", "2025-01-01T12:00:00Z"),
			event("e2", "2025-01-02T12:00:00Z"),
		},
		Config: baseConfig(),
		UserID: "u1",
		Now:    at("2025-01-04T10:00:00Z"),
		Zone:   "UTC",
	}
	out, err := streak.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if out.Summary.CurrentStreak != 0 {
		t.Errorf("current_streak = %d, want 0", out.Summary.CurrentStreak)
	}
}

// Scenario D — auto-consume save.
func TestCalculate_ScenarioD_AutoConsume(t *testing.T) {
	earned := at("2024-12-20T00:00:00Z")
	cfg := baseConfig()
	cfg.FreezeBehavior = domain.AutoConsume
	in := streak.Input{
		Events: []domain.StreakEvent{
			event("e1", "2025-01-01T12:00:00Z"),
			event("e2", "2025-01-02T12:00:00Z"),
		},
		Freezes: []domain.Freeze{
			{ID: "f1", EarnedAt: &earned},
		},
		Config: cfg,
		UserID: "u1",
		Now:    at("2025-01-04T12:00:00Z"),
		Zone:   "UTC",
	}
	out, err := streak.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(out.Consumptions) != 1 {
		t.Fatalf("expected 1 consumption, got %d", len(out.Consumptions))
	}
	if out.Consumptions[0].FreezeID != "f1" {
		t.Errorf("unexpected freeze id: %s", out.Consumptions[0].FreezeID)
	}
	wantDay := at("2025-01-03T00:00:00Z")
	if !out.Consumptions[0].Day.Equal(wantDay) {
		t.Errorf("consumption day = %v, want %v", out.Consumptions[0].Day, wantDay)
	}
	if out.Summary.CurrentStreak != 2 {
		t.Errorf("current_streak = %d, want 2", out.Summary.CurrentStreak)
	}
	if out.Summary.FreezesAvailableCount != 0 {
		t.Errorf("expected the freeze to be spent, got %d available", out.Summary.FreezesAvailableCount)
	}
}

// Scenario E — insufficient freezes.
func TestCalculate_ScenarioE_InsufficientFreezes(t *testing.T) {
	cfg := baseConfig()
	cfg.FreezeBehavior = domain.AutoConsume
	in := streak.Input{
		Events: []domain.StreakEvent{
			event("e1", "2025-01-01T12:00:00Z"),
		},
		Config: cfg,
		UserID: "u1",
		Now:    at("2025-01-04T00:00:00Z"),
		Zone:   "UTC",
	}
	out, err := streak.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(out.Consumptions) != 0 {
		t.Errorf("expected no consumptions, got %v", out.Consumptions)
	}
	if out.Summary.CurrentStreak != 0 {
		t.Errorf("current_streak = %d, want 0", out.Summary.CurrentStreak)
	}
}

// Scenario F — goal-based (events_required_per_day > 1).
func TestCalculate_ScenarioF_GoalBased(t *testing.T) {
	cfg := baseConfig()
	cfg.EventsRequiredPerDay = 3
	in := streak.Input{
		Events: []domain.StreakEvent{
			event("a1", "2025-01-01T08:00:00Z"),
			event("a2", "2025-01-01T09:00:00Z"),
			event("a3", "2025-01-01T10:00:00Z"),
			event("b1", "2025-01-02T08:00:00Z"),
			event("b2", "2025-01-02T09:00:00Z"),
			event("c1", "2025-01-03T08:00:00Z"),
			event("c2", "2025-01-03T09:00:00Z"),
			event("c3", "2025-01-03T10:00:00Z"),
		},
		Config: cfg,
		UserID: "u1",
		Now:    at("2025-01-03T23:00:00Z"),
		Zone:   "UTC",
	}
	out, err := streak.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if out.Summary.CurrentStreak != 1 {
		t.Errorf("current_streak = %d, want 1", out.Summary.CurrentStreak)
	}
	if out.Summary.LongestStreak != 1 {
		t.Errorf("longest_streak = %d, want 1", out.Summary.LongestStreak)
	}
}

// Property 1 — no_freezes implies zero consumptions and purity.
func TestCalculate_NoFreezes_NoConsumptions(t *testing.T) {
	in := streak.Input{
		Events: []domain.StreakEvent{event("e1", "2025-01-01T12:00:00Z")},
		Freezes: []domain.Freeze{
			{ID: "f1"},
		},
		Config: baseConfig(),
		UserID: "u1",
		Now:    at("2025-01-05T00:00:00Z"),
		Zone:   "UTC",
	}
	out, err := streak.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(out.Consumptions) != 0 {
		t.Errorf("expected no consumptions under no_freezes, got %v", out.Consumptions)
	}
}

// Property 2 — longest_streak >= current_streak always.
func TestCalculate_LongestGEQCurrent(t *testing.T) {
	in := streak.Input{
		Events: []domain.StreakEvent{
			event("e1", "2025-01-01T12:00:00Z"),
			event("e2", "2025-01-05T12:00:00Z"),
		},
		Config: baseConfig(),
		UserID: "u1",
		Now:    at("2025-01-05T18:00:00Z"),
		Zone:   "UTC",
	}
	out, err := streak.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if out.Summary.LongestStreak < out.Summary.CurrentStreak {
		t.Errorf("longest %d < current %d", out.Summary.LongestStreak, out.Summary.CurrentStreak)
	}
}

// Property 3 — date_streak_start formula.
func TestCalculate_DateStreakStartFormula(t *testing.T) {
	in := streak.Input{
		Events: []domain.StreakEvent{
			event("e1", "2025-01-01T12:00:00Z"),
			event("e2", "2025-01-02T12:00:00Z"),
			event("e3", "2025-01-03T12:00:00Z"),
		},
		Config: baseConfig(),
		UserID: "u1",
		Now:    at("2025-01-03T18:00:00Z"),
		Zone:   "UTC",
	}
	out, err := streak.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if out.Summary.DateStreakStart == nil {
		t.Fatal("expected date_streak_start to be set")
	}
	want := at("2025-01-01T00:00:00Z")
	if !out.Summary.DateStreakStart.Equal(want) {
		t.Errorf("date_streak_start = %v, want %v", out.Summary.DateStreakStart, want)
	}
}

// Property 8 — freeze FIFO: the consumed freeze is the earliest-earned one.
func TestCalculate_FreezeFIFOConsumption(t *testing.T) {
	earlier := at("2024-11-01T00:00:00Z")
	later := at("2024-12-01T00:00:00Z")
	cfg := baseConfig()
	cfg.FreezeBehavior = domain.AutoConsume
	in := streak.Input{
		Events: []domain.StreakEvent{
			event("e1", "2025-01-01T12:00:00Z"),
			event("e2", "2025-01-02T12:00:00Z"),
		},
		Freezes: []domain.Freeze{
			{ID: "later", EarnedAt: &later},
			{ID: "earlier", EarnedAt: &earlier},
		},
		Config: cfg,
		UserID: "u1",
		Now:    at("2025-01-04T12:00:00Z"),
		Zone:   "UTC",
	}
	out, err := streak.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(out.Consumptions) != 1 || out.Consumptions[0].FreezeID != "earlier" {
		t.Errorf("expected earliest-earned freeze consumed, got %v", out.Consumptions)
	}
}

// Leeway grace period: an event logged just after local midnight still
// extends yesterday's streak instead of starting a fresh one.
func TestCalculate_LeewayGracePeriod(t *testing.T) {
	cfg := baseConfig()
	cfg.LeewayHours = 3
	in := streak.Input{
		Events: []domain.StreakEvent{
			event("e1", "2025-01-01T12:00:00Z"),
			event("e2", "2025-01-02T12:00:00Z"),
		},
		Config: cfg,
		UserID: "u1",
		Now:    at("2025-01-03T01:00:00Z"),
		Zone:   "UTC",
	}
	out, err := streak.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if out.Summary.CurrentStreak != 2 {
		t.Errorf("current_streak = %d, want 2", out.Summary.CurrentStreak)
	}
}

func TestCalculate_EmptyEvents(t *testing.T) {
	in := streak.Input{
		Config: baseConfig(),
		UserID: "u1",
		Now:    at("2025-01-05T00:00:00Z"),
		Zone:   "UTC",
	}
	out, err := streak.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if out.Summary.CurrentStreak != 0 || out.Summary.LongestStreak != 0 || out.Summary.TotalEvents != 0 {
		t.Errorf("expected blank summary, got %+v", out.Summary)
	}
	if len(out.Consumptions) != 0 {
		t.Errorf("expected no consumptions, got %v", out.Consumptions)
	}
}

func TestCalculate_UnknownZone(t *testing.T) {
	in := streak.Input{
		Events: []domain.StreakEvent{event("e1", "2025-01-01T12:00:00Z")},
		Config: baseConfig(),
		UserID: "u1",
		Now:    at("2025-01-05T00:00:00Z"),
		Zone:   "Not/AZone",
	}
	if _, err := streak.Calculate(in); err == nil {
		t.Error("expected error for unknown zone")
	}
}
