package xporch_test

import (
	"context"
	"testing"
	"time"

	"github.com/loopstate/core/internal/app/xporch"
	"github.com/loopstate/core/internal/domain"
)

type fakeXPRepo struct {
	events  []domain.XPEvent
	summary domain.XPSummary
}

func (f *fakeXPRepo) ListEvents(ctx context.Context) ([]domain.XPEvent, error) {
	out := make([]domain.XPEvent, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeXPRepo) AppendEvent(ctx context.Context, event domain.XPEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeXPRepo) UpsertSummary(ctx context.Context, summary domain.XPSummary) error {
	f.summary = summary
	return nil
}

func (f *fakeXPRepo) StreamSummary(ctx context.Context) (<-chan domain.XPSummary, error) {
	ch := make(chan domain.XPSummary)
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

func TestRun_SumsAndUpserts(t *testing.T) {
	repo := &fakeXPRepo{
		events: []domain.XPEvent{
			{ID: "e1", CreatedAt: at("2025-01-15T10:00:00Z"), Points: 10},
			{ID: "e2", CreatedAt: at("2025-01-20T10:00:00Z"), Points: 5},
		},
	}
	cfg := domain.XPConfig{ExperienceKey: "xp"}
	now := at("2025-01-21T00:00:00Z")
	summary, err := xporch.Run(context.Background(), repo, xporch.Params{UserID: "u1", Config: cfg}, func() time.Time { return now })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.PointsAllTime != 15 {
		t.Errorf("points_all_time = %d, want 15", summary.PointsAllTime)
	}
	if repo.summary.PointsAllTime != 15 {
		t.Error("summary was not upserted to the repo")
	}
}

func TestRun_DefaultsZoneToUTC(t *testing.T) {
	repo := &fakeXPRepo{}
	cfg := domain.XPConfig{ExperienceKey: "xp"}
	now := at("2025-01-21T00:00:00Z")
	_, err := xporch.Run(context.Background(), repo, xporch.Params{UserID: "u1", Config: cfg}, func() time.Time { return now })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_InvalidArgument(t *testing.T) {
	repo := &fakeXPRepo{}
	cfg := domain.XPConfig{}
	now := at("2025-01-21T00:00:00Z")
	_, err := xporch.Run(context.Background(), repo, xporch.Params{UserID: "u1", Config: cfg}, func() time.Time { return now })
	f, ok := err.(*domain.Fault)
	if !ok || f.Code != domain.CodeInvalidArgument {
		t.Fatalf("expected invalid_argument fault, got %v", err)
	}
}
