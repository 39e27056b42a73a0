// Package xp implements the experience-points calculator (spec §4.4): a
// pure summation over an append-only points log, windowed both by
// calendar-aligned intervals (today/week/month/year) and by rolling,
// zone-independent durations (last 7/30 days, last 12 months).
package xp

import (
	"sort"
	"time"

	"github.com/loopstate/core/internal/calendar"
	"github.com/loopstate/core/internal/domain"
)

// Input bundles the calculator's arguments.
type Input struct {
	Events []domain.XPEvent
	Config domain.XPConfig
	UserID string
	Now    time.Time
	Zone   string
}

// Calculate sums the event log into a full XPSummary. It never errors: an
// unrecognized zone only degrades the calendar-aligned windows to 0, per
// spec §4.4 ("If the interval is unavailable... the value is 0"); the
// rolling windows never consult zone at all.
func Calculate(in Input) domain.XPSummary {
	if len(in.Events) == 0 {
		return domain.XPSummary{
			ExperienceKey: in.Config.ExperienceKey,
			UserID:        in.UserID,
			DateUpdated:   in.Now,
		}
	}

	ordered := make([]domain.XPEvent, len(in.Events))
	copy(ordered, in.Events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	weekIv, weekOK := calendar.WeekInterval(in.Now, in.Zone)
	monthIv, monthOK := calendar.MonthInterval(in.Now, in.Zone)
	yearIv, yearOK := calendar.YearInterval(in.Now, in.Zone)

	var (
		allTime      int64
		today        int64
		todayCount   int
		thisWeek     int64
		thisMonth    int64
		thisYear     int64
		last7Days    int64
		last30Days   int64
		last12Months int64
	)
	sevenDaysAgo := in.Now.AddDate(0, 0, -7)
	thirtyDaysAgo := in.Now.AddDate(0, 0, -30)
	twelveMonthsAgo := in.Now.AddDate(-1, 0, 0)

	var dateLastEvent *time.Time
	dateCreated := ordered[0].CreatedAt

	for _, e := range ordered {
		allTime += e.Points

		if same, err := calendar.SameDay(e.CreatedAt, in.Now, in.Zone); err == nil && same {
			today += e.Points
			todayCount++
		}
		if weekOK && weekIv.Contains(e.CreatedAt) && !e.CreatedAt.After(in.Now) {
			thisWeek += e.Points
		}
		if monthOK && monthIv.Contains(e.CreatedAt) && !e.CreatedAt.After(in.Now) {
			thisMonth += e.Points
		}
		if yearOK && yearIv.Contains(e.CreatedAt) && !e.CreatedAt.After(in.Now) {
			thisYear += e.Points
		}
		if !e.CreatedAt.Before(sevenDaysAgo) {
			last7Days += e.Points
		}
		if !e.CreatedAt.Before(thirtyDaysAgo) {
			last30Days += e.Points
		}
		if !e.CreatedAt.Before(twelveMonthsAgo) {
			last12Months += e.Points
		}

		if dateLastEvent == nil || e.CreatedAt.After(*dateLastEvent) {
			t := e.CreatedAt
			dateLastEvent = &t
		}
	}

	return domain.XPSummary{
		ExperienceKey:      in.Config.ExperienceKey,
		UserID:             in.UserID,
		PointsAllTime:      allTime,
		PointsToday:        today,
		EventsTodayCount:   todayCount,
		PointsThisWeek:     thisWeek,
		PointsLast7Days:    last7Days,
		PointsThisMonth:    thisMonth,
		PointsLast30Days:   last30Days,
		PointsThisYear:     thisYear,
		PointsLast12Months: last12Months,
		DateLastEvent:      dateLastEvent,
		DateCreated:        &dateCreated,
		DateUpdated:        in.Now,
		RecentEvents:       recentEvents(ordered, in.Zone),
	}
}

// recentEvents implements the 60-day recent-events rule without leeway
// adjustment: group by the literal local day, keep the last 60 distinct
// days, and emit their events ascending by created_at.
func recentEvents(ordered []domain.XPEvent, zone string) []domain.XPEvent {
	type mapped struct {
		event domain.XPEvent
		day   int64
	}
	ms := make([]mapped, 0, len(ordered))
	dayset := map[int64]bool{}
	for _, e := range ordered {
		day, err := calendar.StartOfDay(e.CreatedAt, zone)
		if err != nil {
			// Unknown zone: fall back to UTC bucketing so recent_events
			// degrades gracefully rather than disappearing entirely.
			day, _ = calendar.StartOfDay(e.CreatedAt, "UTC")
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

	var out []domain.XPEvent
	for _, m := range ms {
		if keep[m.day] {
			out = append(out, m.event)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
