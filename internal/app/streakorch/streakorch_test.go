package streakorch_test

import (
	"context"
	"testing"
	"time"

	"github.com/loopstate/core/internal/app/streakorch"
	"github.com/loopstate/core/internal/domain"
)

// fakeRepo is a minimal in-memory domain.StreakRepository used to drive
// the orchestrator without a real store.
type fakeRepo struct {
	events          []domain.StreakEvent
	freezes         []domain.Freeze
	summary         domain.StreakSummary
	appendCalls     int
	markUsedCalls   int
	conflictOnFirst bool
}

func (f *fakeRepo) ListEvents(ctx context.Context) ([]domain.StreakEvent, error) {
	out := make([]domain.StreakEvent, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeRepo) ListFreezes(ctx context.Context) ([]domain.Freeze, error) {
	out := make([]domain.Freeze, len(f.freezes))
	copy(out, f.freezes)
	return out, nil
}

func (f *fakeRepo) AppendEvent(ctx context.Context, event domain.StreakEvent) error {
	f.appendCalls++
	for i, e := range f.events {
		if e.ID == event.ID {
			f.events[i] = event
			return nil
		}
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeRepo) MarkFreezeUsed(ctx context.Context, freezeID string, at time.Time) error {
	f.markUsedCalls++
	for i, fr := range f.freezes {
		if fr.ID == freezeID {
			if fr.UsedAt != nil {
				return domain.NewFault(domain.CodeConflict, "freeze already used")
			}
			t := at
			f.freezes[i].UsedAt = &t
			return nil
		}
	}
	return domain.ErrFreezeNotFound
}

func (f *fakeRepo) UpsertSummary(ctx context.Context, summary domain.StreakSummary) error {
	f.summary = summary
	return nil
}

func (f *fakeRepo) StreamSummary(ctx context.Context) (<-chan domain.StreakSummary, error) {
	ch := make(chan domain.StreakSummary)
	close(ch)
	return ch, nil
}

func at(s string) time.Time {
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return v
}

func clockAt(s string) streakorch.Clock {
	t := at(s)
	return func() time.Time { return t }
}

func TestRun_BasicStreak(t *testing.T) {
	repo := &fakeRepo{
		events: []domain.StreakEvent{
			{ID: "e1", CreatedAt: at("2025-01-01T12:00:00Z"), Timezone: "UTC"},
			{ID: "e2", CreatedAt: at("2025-01-02T12:00:00Z"), Timezone: "UTC"},
			{ID: "e3", CreatedAt: at("2025-01-03T12:00:00Z"), Timezone: "UTC"},
		},
	}
	cfg := domain.StreakConfig{StreakKey: "daily", EventsRequiredPerDay: 1, FreezeBehavior: domain.NoFreezes}
	summary, err := streakorch.Run(context.Background(), repo, streakorch.Params{UserID: "u1", Config: cfg}, clockAt("2025-01-03T18:00:00Z"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.CurrentStreak != 3 {
		t.Errorf("current_streak = %d, want 3", summary.CurrentStreak)
	}
	if repo.summary.CurrentStreak != 3 {
		t.Error("summary was not upserted to the repo")
	}
}

func TestRun_AutoConsumeAppendsAndMarksFreeze(t *testing.T) {
	earned := at("2024-12-20T00:00:00Z")
	repo := &fakeRepo{
		events: []domain.StreakEvent{
			{ID: "e1", CreatedAt: at("2025-01-01T12:00:00Z"), Timezone: "UTC"},
			{ID: "e2", CreatedAt: at("2025-01-02T12:00:00Z"), Timezone: "UTC"},
		},
		freezes: []domain.Freeze{{ID: "f1", EarnedAt: &earned}},
	}
	cfg := domain.StreakConfig{StreakKey: "daily", EventsRequiredPerDay: 1, FreezeBehavior: domain.AutoConsume}
	summary, err := streakorch.Run(context.Background(), repo, streakorch.Params{UserID: "u1", Config: cfg}, clockAt("2025-01-04T12:00:00Z"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.CurrentStreak != 2 {
		t.Errorf("current_streak = %d, want 2", summary.CurrentStreak)
	}
	if repo.appendCalls != 1 {
		t.Errorf("expected exactly 1 freeze event appended, got %d", repo.appendCalls)
	}
	if repo.markUsedCalls != 1 {
		t.Errorf("expected exactly 1 mark-used call, got %d", repo.markUsedCalls)
	}
	if repo.freezes[0].UsedAt == nil {
		t.Error("expected the freeze to be marked used")
	}
}

// Property 4 — idempotence: running twice with the same now produces the
// same summary and no additional consumptions on the second run.
func TestRun_IdempotentOnRetry(t *testing.T) {
	earned := at("2024-12-20T00:00:00Z")
	repo := &fakeRepo{
		events: []domain.StreakEvent{
			{ID: "e1", CreatedAt: at("2025-01-01T12:00:00Z"), Timezone: "UTC"},
			{ID: "e2", CreatedAt: at("2025-01-02T12:00:00Z"), Timezone: "UTC"},
		},
		freezes: []domain.Freeze{{ID: "f1", EarnedAt: &earned}},
	}
	cfg := domain.StreakConfig{StreakKey: "daily", EventsRequiredPerDay: 1, FreezeBehavior: domain.AutoConsume}
	clock := clockAt("2025-01-04T12:00:00Z")

	first, err := streakorch.Run(context.Background(), repo, streakorch.Params{UserID: "u1", Config: cfg}, clock)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	appendsAfterFirst := repo.appendCalls

	second, err := streakorch.Run(context.Background(), repo, streakorch.Params{UserID: "u1", Config: cfg}, clock)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if second.CurrentStreak != first.CurrentStreak {
		t.Errorf("current_streak changed across retries: %d -> %d", first.CurrentStreak, second.CurrentStreak)
	}
	if repo.appendCalls != appendsAfterFirst {
		t.Errorf("expected no additional freeze events appended on retry, got %d more", repo.appendCalls-appendsAfterFirst)
	}
}

func TestRun_InvalidArgument_MissingUserID(t *testing.T) {
	repo := &fakeRepo{}
	cfg := domain.StreakConfig{StreakKey: "daily", EventsRequiredPerDay: 1, FreezeBehavior: domain.NoFreezes}
	_, err := streakorch.Run(context.Background(), repo, streakorch.Params{Config: cfg}, clockAt("2025-01-04T00:00:00Z"))
	if !isInvalidArgument(err) {
		t.Fatalf("expected invalid_argument fault, got %v", err)
	}
}

func TestRun_InvalidArgument_BadConfig(t *testing.T) {
	repo := &fakeRepo{}
	cfg := domain.StreakConfig{StreakKey: "daily", EventsRequiredPerDay: 0, FreezeBehavior: domain.NoFreezes}
	_, err := streakorch.Run(context.Background(), repo, streakorch.Params{UserID: "u1", Config: cfg}, clockAt("2025-01-04T00:00:00Z"))
	if !isInvalidArgument(err) {
		t.Fatalf("expected invalid_argument fault, got %v", err)
	}
}

func isInvalidArgument(err error) bool {
	f, ok := err.(*domain.Fault)
	return ok && f.Code == domain.CodeInvalidArgument
}
