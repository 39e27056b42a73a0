// Package streak implements the streak calculator (spec §4.3): a pure
// function from an event/freeze history plus configuration to a summary
// and the list of freeze consumptions the caller (internal/app/streakorch)
// must durably apply.
package streak

import (
	"sort"
	"time"

	"github.com/loopstate/core/internal/calendar"
	"github.com/loopstate/core/internal/domain"
	"github.com/loopstate/core/internal/freeze"
)

// Input bundles everything the calculator reads. Now and Zone are supplied
// by the caller so the function stays a pure projection of its arguments.
type Input struct {
	Events  []domain.StreakEvent
	Freezes []domain.Freeze
	Config  domain.StreakConfig
	UserID  string
	Now     time.Time
	Zone    string
}

// Output is the calculator's result: the merged summary plus any freeze
// consumptions the orchestrator still has to apply and re-run against.
type Output struct {
	Summary      domain.StreakSummary
	Consumptions []freeze.Consumption
}

type dayBucket struct {
	day       time.Time
	hasReal   bool
	eventIDs  int
}

// Calculate runs the full §4.3 pipeline. The only error path is an
// unrecognized IANA zone, which the calculator surfaces rather than
// swallowing, since every step depends on start_of_day.
func Calculate(in Input) (Output, error) {
	avail := freeze.Available(in.Freezes, in.Now)

	if len(in.Events) == 0 {
		return Output{
			Summary: domain.StreakSummary{
				StreakKey:             in.Config.StreakKey,
				UserID:                in.UserID,
				CurrentStreak:         0,
				LongestStreak:         0,
				TotalEvents:           0,
				FreezesAvailable:      avail,
				FreezesAvailableCount: len(avail),
				EventsRequiredPerDay:  in.Config.EventsRequiredPerDay,
				DateUpdated:           in.Now,
			},
		}, nil
	}

	// Step 2 — bucket events by local day.
	buckets := map[int64]*dayBucket{}
	var dayKeys []int64
	for _, e := range in.Events {
		day, err := calendar.StartOfDay(e.CreatedAt, in.Zone)
		if err != nil {
			return Output{}, err
		}
		key := day.Unix()
		b, ok := buckets[key]
		if !ok {
			b = &dayBucket{day: day}
			buckets[key] = b
			dayKeys = append(dayKeys, key)
		}
		b.eventIDs++
		if !e.IsFreeze {
			b.hasReal = true
		}
	}

	// Step 3 — qualifying days, ascending.
	sort.Slice(dayKeys, func(i, j int) bool { return dayKeys[i] < dayKeys[j] })
	required := in.Config.EventsRequiredPerDay
	if required < 1 {
		required = 1
	}
	var qualDays []time.Time
	hasReal := map[int64]bool{}
	for _, k := range dayKeys {
		b := buckets[k]
		if b.eventIDs >= required {
			qualDays = append(qualDays, b.day)
			hasReal[k] = b.hasReal
		}
	}

	// Step 4 — expected day, leeway-shifted.
	expected, err := calendar.StartOfDay(in.Now, in.Zone)
	if err != nil {
		return Output{}, err
	}
	leewayExpected := expected
	if in.Config.LeewayHours > 0 && calendar.HoursBetween(expected, in.Now) <= in.Config.LeewayHours {
		leewayExpected = expected.AddDate(0, 0, -1)
	}

	// Step 5 — auto-consume freezes across the gap.
	var consumptions []freeze.Consumption
	workingAvail := avail
	if in.Config.FreezeBehavior == domain.AutoConsume && len(qualDays) > 0 {
		lastQual := qualDays[len(qualDays)-1]
		todayLocal, err := calendar.StartOfDay(in.Now, in.Zone)
		if err != nil {
			return Output{}, err
		}
		days, err := calendar.DaysBetween(lastQual, todayLocal, in.Zone)
		if err != nil {
			return Output{}, err
		}
		gap := days - 1
		if gap < 0 {
			gap = 0
		}
		if gap > 0 && len(workingAvail) >= gap {
			gapDays := make([]time.Time, 0, gap)
			for i := 1; i <= gap; i++ {
				gapDays = append(gapDays, lastQual.AddDate(0, 0, i))
			}
			consumptions = freeze.SelectForDays(gapDays, workingAvail)
			consumed := map[string]bool{}
			for _, c := range consumptions {
				consumed[c.FreezeID] = true
			}
			var remaining []domain.Freeze
			for _, f := range workingAvail {
				if !consumed[f.ID] {
					remaining = append(remaining, f)
				}
			}
			workingAvail = remaining

			// Freeze-filled gap days become freeze-only qualifying days for
			// the backward/forward walks in steps 6 and 7: they preserve
			// continuity without themselves counting as real effort.
			for _, c := range consumptions {
				key := c.Day.Unix()
				hasReal[key] = false
				qualDays = append(qualDays, c.Day)
			}
			sort.Slice(qualDays, func(i, j int) bool { return qualDays[i].Before(qualDays[j]) })
		}
	}

	// Step 6 — backward walk for current_streak.
	currentStreak := 0
	started := false
	exp := leewayExpected
	for i := len(qualDays) - 1; i >= 0; i-- {
		day := qualDays[i]
		key := day.Unix()
		switch {
		case day.After(exp) || day.Equal(exp):
			if hasReal[key] {
				currentStreak++
			}
			exp = day.AddDate(0, 0, -1)
			started = true
		default:
			d, derr := calendar.DaysBetween(day, exp, in.Zone)
			if derr != nil {
				return Output{}, derr
			}
			sameLocal, serr := calendar.SameDay(in.Now, exp, in.Zone)
			if serr != nil {
				return Output{}, serr
			}
			if !started && d == 1 && (sameLocal || in.Config.LeewayHours > 0) {
				if hasReal[key] {
					currentStreak++
				}
				exp = day.AddDate(0, 0, -1)
				started = true
			} else {
				i = -1 // stop the walk
			}
		}
	}

	// Step 7 — longest streak, ascending forward walk.
	longestRun := 0
	runningMax := 0
	var prevDay *time.Time
	for _, day := range qualDays {
		key := day.Unix()
		if prevDay == nil {
			if hasReal[key] {
				longestRun = 1
			} else {
				longestRun = 0
			}
		} else {
			gapDays, derr := calendar.DaysBetween(*prevDay, day, in.Zone)
			if derr != nil {
				return Output{}, derr
			}
			if gapDays == 1 {
				if hasReal[key] {
					longestRun++
				}
			} else {
				if longestRun > runningMax {
					runningMax = longestRun
				}
				if hasReal[key] {
					longestRun = 1
				} else {
					longestRun = 0
				}
			}
		}
		d := day
		prevDay = &d
	}
	if longestRun > runningMax {
		runningMax = longestRun
	}
	longestStreak := runningMax
	if currentStreak > longestStreak {
		longestStreak = currentStreak
	}

	// Step 8 — derived fields.
	todayLocal, err := calendar.StartOfDay(in.Now, in.Zone)
	if err != nil {
		return Output{}, err
	}
	todayEventCount := 0
	var dateLastEvent *time.Time
	lastEventZone := ""
	var dateCreated *time.Time
	for _, e := range in.Events {
		day, derr := calendar.StartOfDay(e.CreatedAt, in.Zone)
		if derr != nil {
			return Output{}, derr
		}
		if day.Equal(todayLocal) {
			todayEventCount++
		}
		if dateLastEvent == nil || e.CreatedAt.After(*dateLastEvent) {
			t := e.CreatedAt
			dateLastEvent = &t
			lastEventZone = e.Timezone
		}
		if dateCreated == nil || e.CreatedAt.Before(*dateCreated) {
			t := e.CreatedAt
			dateCreated = &t
		}
	}

	var dateStreakStart *time.Time
	if currentStreak > 0 {
		t := leewayExpected.AddDate(0, 0, -(currentStreak - 1))
		dateStreakStart = &t
	}

	recentEvents, err := recentEventsWithLeeway(in.Events, in.Now, in.Zone, in.Config.LeewayHours)
	if err != nil {
		return Output{}, err
	}

	summary := domain.StreakSummary{
		StreakKey:             in.Config.StreakKey,
		UserID:                in.UserID,
		CurrentStreak:         currentStreak,
		LongestStreak:         longestStreak,
		DateLastEvent:         dateLastEvent,
		LastEventTimezone:     lastEventZone,
		DateStreakStart:       dateStreakStart,
		TotalEvents:           len(in.Events),
		FreezesAvailable:      workingAvail,
		FreezesAvailableCount: len(workingAvail),
		DateCreated:           dateCreated,
		DateUpdated:           in.Now,
		EventsRequiredPerDay:  in.Config.EventsRequiredPerDay,
		TodayEventCount:       todayEventCount,
		RecentEvents:          recentEvents,
	}

	return Output{Summary: summary, Consumptions: consumptions}, nil
}

// recentEventsWithLeeway implements the 60-day recent-events rule: events
// are remapped to the previous local day when they fall within the leeway
// window after midnight, distinct mapped days are collected, the last 60
// kept, and the matching events emitted ascending with their original
// (unmapped) created_at values.
func recentEventsWithLeeway(events []domain.StreakEvent, now time.Time, zone string, leewayHours int) ([]domain.StreakEvent, error) {
	type mapped struct {
		event domain.StreakEvent
		day   int64
	}
	ms := make([]mapped, 0, len(events))
	dayset := map[int64]bool{}
	for _, e := range events {
		day, err := calendar.StartOfDay(e.CreatedAt, zone)
		if err != nil {
			return nil, err
		}
		if leewayHours > 0 && calendar.HoursBetween(day, e.CreatedAt) <= leewayHours {
			day = day.AddDate(0, 0, -1)
		}
		key := day.Unix()
		ms = append(ms, mapped{event: e, day: key})
		dayset[key] = true
	}

	var days []int64
	for k := range dayset {
		days = append(days, k)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	if len(days) > 60 {
		days = days[len(days)-60:]
	}
	keep := map[int64]bool{}
	for _, d := range days {
		keep[d] = true
	}

	var out []domain.StreakEvent
	for _, m := range ms {
		if keep[m.day] {
			out = append(out, m.event)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
