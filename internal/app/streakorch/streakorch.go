// Package streakorch implements the streak callable orchestrator (spec
// §4.5): the only component permitted to suspend for I/O. It binds the
// pure internal/streak calculator to a domain.StreakRepository, applying
// freeze consumptions durably and idempotently before upserting the
// final summary.
package streakorch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/loopstate/core/internal/domain"
	"github.com/loopstate/core/internal/infra/metrics"
	"github.com/loopstate/core/internal/streak"
)

// Params are the arguments to Run, mirroring the calculateStreak callable
// entry point's shape (§6) minus the transport-level fields.
type Params struct {
	UserID string
	Config domain.StreakConfig
	// Zone overrides the resolved timezone. Empty means "resolve per §4.5
	// step 2": the latest event's timezone, else UTC.
	Zone string
}

// Clock abstracts "now" so tests can pin the instant; production callers
// pass time.Now.
type Clock func() time.Time

// Run executes one full orchestration pass against repo, returning the
// final summary. Errors are domain.Fault values per §7.
func Run(ctx context.Context, repo domain.StreakRepository, params Params, now Clock) (domain.StreakSummary, error) {
	if params.UserID == "" {
		return domain.StreakSummary{}, domain.NewFault(domain.CodeInvalidArgument, "userId is required")
	}
	if err := params.Config.Validate(); err != nil {
		return domain.StreakSummary{}, err
	}

	out, err := runOnce(ctx, repo, params, now())
	if err != nil {
		return domain.StreakSummary{}, err
	}

	if len(out.Consumptions) > 0 {
		metrics.RecomputeTriggered.Inc()
		// Step 5 guarantees the second pass sees the newly-appended freeze
		// events on the gap days and therefore yields zero additional
		// consumptions; we still run the full pipeline rather than trust
		// that invariant blindly, since a concurrent writer could have
		// altered the log in between.
		out, err = runOnce(ctx, repo, params, now())
		if err != nil {
			return domain.StreakSummary{}, err
		}
	}

	if err := repo.UpsertSummary(ctx, out.Summary); err != nil {
		return domain.StreakSummary{}, domain.WrapFault(domain.CodeStoreUnavailable, "upsert streak summary", err)
	}
	metrics.FreezesAvailable.Observe(float64(out.Summary.FreezesAvailableCount))
	return out.Summary, nil
}

func runOnce(ctx context.Context, repo domain.StreakRepository, params Params, now time.Time) (streak.Output, error) {
	events, err := repo.ListEvents(ctx)
	if err != nil {
		return streak.Output{}, domain.WrapFault(domain.CodeStoreUnavailable, "list streak events", err)
	}
	freezes, err := repo.ListFreezes(ctx)
	if err != nil {
		return streak.Output{}, domain.WrapFault(domain.CodeStoreUnavailable, "list streak freezes", err)
	}

	zone := resolveZone(params.Zone, events)

	out, err := streak.Calculate(streak.Input{
		Events:  events,
		Freezes: freezes,
		Config:  params.Config,
		UserID:  params.UserID,
		Now:     now,
		Zone:    zone,
	})
	if err != nil {
		metrics.StreakCalculations.WithLabelValues("error").Inc()
		return streak.Output{}, domain.WrapFault(domain.CodeInvalidArgument, "calculate streak", err)
	}
	metrics.StreakCalculations.WithLabelValues("ok").Inc()

	lastZone := out.Summary.LastEventTimezone
	if lastZone == "" {
		lastZone = zone
	}

	for _, c := range out.Consumptions {
		event := domain.StreakEvent{
			ID:        deterministicFreezeEventID(params.UserID, params.Config.StreakKey, c.FreezeID, c.Day),
			CreatedAt: c.Day,
			Timezone:  lastZone,
			IsFreeze:  true,
			FreezeID:  c.FreezeID,
		}
		if err := repo.AppendEvent(ctx, event); err != nil {
			return streak.Output{}, domain.WrapFault(domain.CodeStoreUnavailable, "append freeze event", err)
		}
		if err := repo.MarkFreezeUsed(ctx, c.FreezeID, now); err != nil {
			if domain.IsConflict(err) {
				// Already used by a prior or concurrent run — benign,
				// the idempotent-retry case §7 calls out explicitly.
				continue
			}
			return streak.Output{}, domain.WrapFault(domain.CodeStoreUnavailable, "mark freeze used", err)
		}
		metrics.FreezesConsumed.Inc()
	}

	return out, nil
}

// resolveZone implements §4.5 step 2: caller-supplied zone, else the
// latest event's timezone, else UTC.
func resolveZone(callerZone string, events []domain.StreakEvent) string {
	if callerZone != "" {
		return callerZone
	}
	var latest *domain.StreakEvent
	for i := range events {
		e := &events[i]
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}
	if latest != nil && latest.Timezone != "" {
		return latest.Timezone
	}
	return "UTC"
}

// deterministicFreezeEventID makes freeze-event appends idempotent on
// retry: the same (user, streak, freeze, day) always produces the same
// event id, so a resumed orchestration after a crash converges on a
// "set" rather than creating a duplicate.
func deterministicFreezeEventID(userID, streakKey, freezeID string, day time.Time) string {
	ns := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%s/%s/%d", userID, streakKey, freezeID, day.Unix())))
	return ns.String()
}
