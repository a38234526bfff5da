package agenda

import (
	"time"

	"github.com/alignwork/agenda/internal/platform/tz"
)

// Counts is a badge tally. Total is Confirmed+Pending; other statuses are
// not counted.
type Counts struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Pending   int `json:"pending"`
}

func (c *Counts) add(s Status) {
	switch s {
	case StatusConfirmed:
		c.Confirmed++
	case StatusPending:
		c.Pending++
	default:
		return
	}
	c.Total++
}

// IndexByDay groups appointments by their display-zone date key.
func IndexByDay(zone *tz.Zone, appts []*Appointment) map[string]Counts {
	out := make(map[string]Counts)
	for _, a := range appts {
		if !a.Status.Active() {
			continue
		}
		key := zone.DateKey(a.StartsAt)
		c := out[key]
		c.add(a.Status)
		out[key] = c
	}
	return out
}

// CountByStatus tallies a flat list.
func CountByStatus(appts []*Appointment) Counts {
	var c Counts
	for _, a := range appts {
		c.add(a.Status)
	}
	return c
}

// PeriodStats are the dashboard aggregates.
type PeriodStats struct {
	Today     Counts `json:"today"`
	Week      Counts `json:"week"`
	Month     Counts `json:"month"`
	NextMonth Counts `json:"nextMonth"`
}

// ComputePeriodStats buckets appointments into the current day, the
// Monday-start week, the calendar month and the following month.
func ComputePeriodStats(zone *tz.Zone, now time.Time, appts []*Appointment) PeriodStats {
	today := zone.Today(now)
	weekFrom, weekTo, _ := zone.WeekRange(today)
	local := now.In(zone.Location())
	monthFrom, monthTo := zone.MonthRange(local.Year(), local.Month())
	nextFrom, nextTo := zone.MonthRange(local.Year(), local.Month()+1)

	var s PeriodStats
	for _, a := range appts {
		t := a.StartsAt
		if zone.DateKey(t) == today {
			s.Today.add(a.Status)
		}
		if within(t, weekFrom, weekTo) {
			s.Week.add(a.Status)
		}
		if within(t, monthFrom, monthTo) {
			s.Month.add(a.Status)
		}
		if within(t, nextFrom, nextTo) {
			s.NextMonth.add(a.Status)
		}
	}
	return s
}

// Summary is the today/tomorrow dashboard card.
type Summary struct {
	Today    Counts `json:"today"`
	Tomorrow Counts `json:"tomorrow"`
}

// ComputeSummary tallies today and tomorrow in the display zone.
func ComputeSummary(zone *tz.Zone, now time.Time, appts []*Appointment) Summary {
	today := zone.Today(now)
	tomorrow, _ := tz.AddDays(today, 1)

	var s Summary
	for _, a := range appts {
		switch zone.DateKey(a.StartsAt) {
		case today:
			s.Today.add(a.Status)
		case tomorrow:
			s.Tomorrow.add(a.Status)
		}
	}
	return s
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
