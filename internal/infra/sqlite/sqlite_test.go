package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loopstate/core/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "state.db")); os.IsNotExist(err) {
		t.Error("state.db should exist")
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

func TestStreakStore_AppendAndListEvents(t *testing.T) {
	db := newTestDB(t)
	store := NewStreakStore(db, "u1", "daily")
	ctx := context.Background()

	e1 := domain.StreakEvent{
		ID:        "e1",
		CreatedAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Timezone:  "UTC",
		Metadata:  domain.Metadata{"note": domain.MetaStr("first")},
	}
	if err := store.AppendEvent(ctx, e1); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	events, err := store.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Metadata["note"].Str != "first" {
		t.Errorf("metadata round-trip failed: %+v", events[0].Metadata)
	}
}

func TestStreakStore_AppendEvent_IsIdempotentOnID(t *testing.T) {
	db := newTestDB(t)
	store := NewStreakStore(db, "u1", "daily")
	ctx := context.Background()

	e := domain.StreakEvent{ID: "e1", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Timezone: "UTC"}
	if err := store.AppendEvent(ctx, e); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := store.AppendEvent(ctx, e); err != nil {
		t.Fatalf("AppendEvent (retry): %v", err)
	}

	events, err := store.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected dedup on id, got %d events", len(events))
	}
}

func TestStreakStore_MarkFreezeUsed_ConflictOnSecondCall(t *testing.T) {
	db := newTestDB(t)
	store := NewStreakStore(db, "u1", "daily")
	ctx := context.Background()
	earned := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	_, err := db.db.ExecContext(ctx,
		`INSERT INTO streak_freezes (id, user_id, streak_key, earned_at) VALUES (?, ?, ?, ?)`,
		"f1", "u1", "daily", earned.Unix(),
	)
	if err != nil {
		t.Fatalf("seed freeze: %v", err)
	}

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := store.MarkFreezeUsed(ctx, "f1", at); err != nil {
		t.Fatalf("first MarkFreezeUsed: %v", err)
	}
	err = store.MarkFreezeUsed(ctx, "f1", at)
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict fault on second mark, got %v", err)
	}
}

func TestStreakStore_UpsertAndReadSummary(t *testing.T) {
	db := newTestDB(t)
	store := NewStreakStore(db, "u1", "daily")
	ctx := context.Background()

	now := time.Date(2025, 1, 3, 18, 0, 0, 0, time.UTC)
	summary := domain.StreakSummary{
		StreakKey:            "daily",
		UserID:               "u1",
		CurrentStreak:        3,
		LongestStreak:        3,
		TotalEvents:          3,
		FreezesAvailable:     []domain.Freeze{},
		EventsRequiredPerDay: 1,
		DateUpdated:          now,
	}
	if err := store.UpsertSummary(ctx, summary); err != nil {
		t.Fatalf("UpsertSummary: %v", err)
	}

	got, err := store.getSummary(ctx)
	if err != nil {
		t.Fatalf("getSummary: %v", err)
	}
	if got == nil || got.CurrentStreak != 3 {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestXPStore_AppendAndListEvents(t *testing.T) {
	db := newTestDB(t)
	store := NewXPStore(db, "u1", "xp")
	ctx := context.Background()

	e := domain.XPEvent{ID: "e1", CreatedAt: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC), Points: 10}
	if err := store.AppendEvent(ctx, e); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	events, err := store.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].Points != 10 {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestProgressStore_UpsertListDelete(t *testing.T) {
	db := newTestDB(t)
	store := NewProgressStore(db, "u1")
	ctx := context.Background()

	item := domain.ProgressItem{ID: "p1", Value: 1, Target: 10, UpdatedAt: time.Now().UTC()}
	if err := store.UpsertItem(ctx, item); err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}
	items, err := store.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if err := store.DeleteItem(ctx, "p1"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	items, err = store.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems after delete: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected 0 items after delete, got %d", len(items))
	}
}

func TestStreakStore_ListEvents_MultipleDays(t *testing.T) {
	db := newTestDB(t)
	store := NewStreakStore(db, "u1", "daily")
	ctx := context.Background()

	for i, day := range []string{"2025-01-01", "2025-01-02", "2025-01-03"} {
		ts, _ := time.Parse("2006-01-02", day)
		e := domain.StreakEvent{ID: "e" + string(rune('1'+i)), CreatedAt: ts.Add(12 * time.Hour), Timezone: "UTC"}
		if err := store.AppendEvent(ctx, e); err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}

	events, err := store.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
}
