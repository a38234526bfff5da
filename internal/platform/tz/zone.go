package tz

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultZoneName is the display timezone for every appointment timestamp.
	DefaultZoneName = "America/Recife"

	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
	LocalLayout = "2006-01-02 15:04"
	WireLayout  = "2006-01-02T15:04:05Z"
)

var (
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidClock = errors.New("invalid time, expected HH:mm")
	ErrInvalidTime  = errors.New("invalid instant")
)

// Recife is the default display zone. America/Recife has had a fixed UTC-3
// offset since 2000; when the tz database is unavailable the fixed offset is used.
var Recife = mustLoad(DefaultZoneName)

// Zone converts between wall-clock values in a fixed display location and UTC.
type Zone struct {
	loc *time.Location
}

// Load returns the zone for an IANA location name.
func Load(name string) (*Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}
	return &Zone{loc: loc}, nil
}

func mustLoad(name string) *Zone {
	z, err := Load(name)
	if err != nil {
		return &Zone{loc: time.FixedZone(name, -3*60*60)}
	}
	return z
}

// Name returns the IANA name of the zone.
func (z *Zone) Name() string { return z.loc.String() }

// Location exposes the underlying location.
func (z *Zone) Location() *time.Location { return z.loc }

// WallClock is a display-zone date and time pair.
type WallClock struct {
	Date  string `json:"date"`
	Clock string `json:"time"`
}

// ToUTC converts a display-zone date ("YYYY-MM-DD") and clock ("HH:mm") to a UTC instant.
func (z *Zone) ToUTC(dateKey, clock string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(dateKey), z.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, dateKey)
	}
	c, err := time.Parse(ClockLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	local := time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, z.loc)
	return local.UTC(), nil
}

// ParseLocal converts "YYYY-MM-DD HH:mm" in the display zone to UTC.
func (z *Zone) ParseLocal(s string) (time.Time, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return z.ToUTC(parts[0], parts[1])
}

// Split returns the display-zone date key and clock of an instant.
func (z *Zone) Split(t time.Time) WallClock {
	local := t.In(z.loc)
	return WallClock{Date: local.Format(DateLayout), Clock: local.Format(ClockLayout)}
}

// DateKey returns the display-zone "YYYY-MM-DD" of an instant.
func (z *Zone) DateKey(t time.Time) string { return t.In(z.loc).Format(DateLayout) }

// Clock returns the display-zone "HH:mm" of an instant.
func (z *Zone) Clock(t time.Time) string { return t.In(z.loc).Format(ClockLayout) }

// Today is the display-zone date key of now.
func (z *Zone) Today(now time.Time) string { return z.DateKey(now) }

// StartOfDay returns the UTC instant of local midnight for dateKey.
func (z *Zone) StartOfDay(dateKey string) (time.Time, error) {
	return z.ToUTC(dateKey, "00:00")
}

// DayRange returns the half-open UTC range [from, to) covering dateKey.
func (z *Zone) DayRange(dateKey string) (time.Time, time.Time, error) {
	from, err := z.StartOfDay(dateKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	next, err := AddDays(dateKey, 1)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, _ := z.StartOfDay(next)
	return from, to, nil
}

// MonthRange returns the half-open UTC range covering a display-zone month.
// Month values outside 1..12 are normalised, so (2024, 13) is January 2025.
func (z *Zone) MonthRange(year int, month time.Month) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, z.loc)
	to := from.AddDate(0, 1, 0)
	return from.UTC(), to.UTC()
}

// WeekRange returns the Monday-start week containing dateKey as a UTC range.
func (z *Zone) WeekRange(dateKey string) (time.Time, time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, dateKey, z.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, dateKey)
	}
	offset := (int(d.Weekday()) + 6) % 7
	from := d.AddDate(0, 0, -offset)
	return from.UTC(), from.AddDate(0, 0, 7).UTC(), nil
}

// AddDays shifts a date key by n calendar days.
func AddDays(dateKey string, n int) (string, error) {
	d, err := time.Parse(DateLayout, dateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, dateKey)
	}
	return d.AddDate(0, 0, n).Format(DateLayout), nil
}

// ValidDateKey reports whether s is a well-formed "YYYY-MM-DD".
func ValidDateKey(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// FormatUTC renders an instant in the wire format.
func FormatUTC(t time.Time) string { return t.UTC().Format(WireLayout) }

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseInstant parses a server timestamp. Values without an offset are UTC.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}
