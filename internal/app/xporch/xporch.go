// Package xporch implements the XP callable orchestrator (spec §4.5):
// same shape as streakorch without the freeze-consumption steps. Zone
// defaults to UTC because XP events carry no timezone field.
package xporch

import (
	"context"
	"time"

	"github.com/loopstate/core/internal/domain"
	"github.com/loopstate/core/internal/infra/metrics"
	"github.com/loopstate/core/internal/xp"
)

// Params mirrors the calculateExperiencePoints callable entry point (§6).
type Params struct {
	UserID string
	Config domain.XPConfig
	Zone   string
}

// Clock abstracts "now" so tests can pin the instant.
type Clock func() time.Time

// Run loads the event log, calculates, and upserts the resulting summary.
func Run(ctx context.Context, repo domain.XPRepository, params Params, now Clock) (domain.XPSummary, error) {
	if params.UserID == "" {
		return domain.XPSummary{}, domain.NewFault(domain.CodeInvalidArgument, "userId is required")
	}
	if err := params.Config.Validate(); err != nil {
		return domain.XPSummary{}, err
	}

	zone := params.Zone
	if zone == "" {
		zone = "UTC"
	}

	events, err := repo.ListEvents(ctx)
	if err != nil {
		return domain.XPSummary{}, domain.WrapFault(domain.CodeStoreUnavailable, "list xp events", err)
	}

	summary := xp.Calculate(xp.Input{
		Events: events,
		Config: params.Config,
		UserID: params.UserID,
		Now:    now(),
		Zone:   zone,
	})
	metrics.XPCalculations.WithLabelValues("ok").Inc()

	if err := repo.UpsertSummary(ctx, summary); err != nil {
		return domain.XPSummary{}, domain.WrapFault(domain.CodeStoreUnavailable, "upsert xp summary", err)
	}
	return summary, nil
}
