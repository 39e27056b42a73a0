// Package freeze implements the freeze policy (spec §4.2): which freezes
// are currently available, their FIFO earn-date ordering, and selection of
// consumptions for a set of gap days.
package freeze

import (
	"sort"
	"time"

	"github.com/loopstate/core/internal/domain"
)

// Consumption pairs a freeze with the calendar day it was spent to fill.
type Consumption struct {
	FreezeID string
	Day      time.Time
}

// Available filters freezes to those usable at instant now, in FIFO order.
func Available(freezes []domain.Freeze, now time.Time) []domain.Freeze {
	var avail []domain.Freeze
	for _, f := range freezes {
		if f.Available(now) {
			avail = append(avail, f)
		}
	}
	return FIFO(avail)
}

// FIFO sorts freezes ascending by EarnedAt, with nil EarnedAt sorting
// before any real date, breaking ties by ID lexicographically so the
// ordering is total.
func FIFO(freezes []domain.Freeze) []domain.Freeze {
	out := make([]domain.Freeze, len(freezes))
	copy(out, freezes)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.EarnedAt == nil && b.EarnedAt == nil:
			return a.ID < b.ID
		case a.EarnedAt == nil:
			return true
		case b.EarnedAt == nil:
			return false
		case !a.EarnedAt.Equal(*b.EarnedAt):
			return a.EarnedAt.Before(*b.EarnedAt)
		default:
			return a.ID < b.ID
		}
	})
	return out
}

// SelectForDays pairs the first min(len(days), len(availableFreezes))
// freezes (FIFO) with the first min(...) days. The caller is responsible
// for the "don't consume if fewer freezes than days" rule (spec §4.2) —
// this function always pairs as many as it can; callers that need the
// all-or-nothing auto-consume rule check len(availableFreezes) >= len(days)
// before calling, exactly as internal/streak does.
func SelectForDays(days []time.Time, availableFreezes []domain.Freeze) []Consumption {
	ordered := FIFO(availableFreezes)
	n := len(days)
	if len(ordered) < n {
		n = len(ordered)
	}
	out := make([]Consumption, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Consumption{FreezeID: ordered[i].ID, Day: days[i]})
	}
	return out
}
