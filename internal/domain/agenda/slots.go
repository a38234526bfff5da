package agenda

import (
	"fmt"
	"time"

	"github.com/alignwork/agenda/internal/platform/tz"
)

const (
	SlotDayStart = 8 * time.Hour
	SlotDayEnd   = 18 * time.Hour
	SlotStep     = 30 * time.Minute
)

// Slot is one bookable half hour on the grid.
type Slot struct {
	Time      string    `json:"time"`
	StartsAt  time.Time `json:"starts_at"`
	Available bool      `json:"available"`
}

// AvailabilityPolicy decides whether a slot starting at start (UTC) is
// blocked by any of the appointments. Only active appointments on the
// target date are passed in.
type AvailabilityPolicy interface {
	Name() string
	Blocked(start time.Time, step time.Duration, appts []*Appointment) bool
}

// PointMatch blocks a slot only when an appointment starts exactly at the
// slot start. Duration is ignored, so a 90 minute visit at 09:00 leaves
// 09:30 free.
type PointMatch struct{}

func (PointMatch) Name() string { return "point-match" }

func (PointMatch) Blocked(start time.Time, _ time.Duration, appts []*Appointment) bool {
	for _, a := range appts {
		if a.StartsAt.Truncate(time.Minute).Equal(start) {
			return true
		}
	}
	return false
}

// OverlapAware blocks a slot when any appointment interval intersects it.
type OverlapAware struct{}

func (OverlapAware) Name() string { return "overlap" }

func (OverlapAware) Blocked(start time.Time, step time.Duration, appts []*Appointment) bool {
	end := start.Add(step)
	for _, a := range appts {
		aEnd := a.End()
		if a.DurationMin <= 0 {
			aEnd = a.StartsAt.Add(time.Minute)
		}
		if a.StartsAt.Before(end) && aEnd.After(start) {
			return true
		}
	}
	return false
}

// PolicyByName resolves a configured policy name. Unknown names fall back
// to PointMatch.
func PolicyByName(name string) AvailabilityPolicy {
	if name == (OverlapAware{}).Name() {
		return OverlapAware{}
	}
	return PointMatch{}
}

// GenerateSlots lays out the 08:00-18:00 grid for dateKey. Appointments on
// other dates and inactive appointments never block. A nil policy means
// PointMatch.
func GenerateSlots(zone *tz.Zone, dateKey string, appts []*Appointment, policy AvailabilityPolicy) ([]Slot, error) {
	dayStart, err := zone.StartOfDay(dateKey)
	if err != nil {
		return nil, fmt.Errorf("generate slots: %w", err)
	}
	if policy == nil {
		policy = PointMatch{}
	}

	relevant := make([]*Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Status.Active() && zone.DateKey(a.StartsAt) == dateKey {
			relevant = append(relevant, a)
		}
	}

	slots := make([]Slot, 0, int((SlotDayEnd-SlotDayStart)/SlotStep))
	for off := SlotDayStart; off < SlotDayEnd; off += SlotStep {
		start := dayStart.Add(off)
		slots = append(slots, Slot{
			Time:      zone.Clock(start),
			StartsAt:  start,
			Available: !policy.Blocked(start, SlotStep, relevant),
		})
	}
	return slots, nil
}
