package domain

import (
	"context"
	"time"
)

// ─── Repository Contracts (§6) ──────────────────────────────────────────────
// These interfaces define the boundary the calculators and orchestrators
// bind to. A store adapter (e.g. internal/infra/sqlite) implements them;
// the calculators never reach for a specific store.

// StreakRepository is scoped to a single (user_id, streak_key).
type StreakRepository interface {
	// ListEvents returns all events ascending by CreatedAt.
	ListEvents(ctx context.Context) ([]StreakEvent, error)
	// ListFreezes returns all freezes ascending by EarnedAt.
	ListFreezes(ctx context.Context) ([]Freeze, error)
	// AppendEvent upserts an event keyed by event.ID.
	AppendEvent(ctx context.Context, event StreakEvent) error
	// MarkFreezeUsed sets UsedAt on a freeze. Returns a Fault{Code: CodeConflict}
	// if the freeze was already used — the orchestrator treats that as benign.
	MarkFreezeUsed(ctx context.Context, freezeID string, at time.Time) error
	// UpsertSummary merges the summary into the stored document.
	UpsertSummary(ctx context.Context, summary StreakSummary) error
	// StreamSummary returns a restartable channel of every server-observed
	// change to the summary. The consumer cancels via ctx.
	StreamSummary(ctx context.Context) (<-chan StreakSummary, error)
}

// XPRepository is scoped to a single (user_id, experience_key).
type XPRepository interface {
	ListEvents(ctx context.Context) ([]XPEvent, error)
	AppendEvent(ctx context.Context, event XPEvent) error
	UpsertSummary(ctx context.Context, summary XPSummary) error
	StreamSummary(ctx context.Context) (<-chan XPSummary, error)
}

// ProgressRepository is consumed by the out-of-scope client manager; it is
// specified here only because orchestrators may share the same document
// store foundation (§6).
type ProgressRepository interface {
	ListItems(ctx context.Context) ([]ProgressItem, error)
	UpsertItem(ctx context.Context, item ProgressItem) error
	DeleteItem(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	StreamChanges(ctx context.Context) (<-chan ProgressChange, error)
}
