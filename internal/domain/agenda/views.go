package agenda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/alignwork/agenda/internal/platform/apiclient"
	"github.com/alignwork/agenda/internal/platform/querycache"
	"github.com/alignwork/agenda/internal/platform/tz"
)

// Cache key roots. Every key is <root>/<tenant>/...
const (
	keySummary   = "dashboardSummary"
	keyMegaStats = "dashboardMegaStats"
	keyDay       = "appointmentsByDay"
	keyMonth     = "calendarMonth"
	keyPatients  = "patients"
)

func SummaryKey(tenant string) string   { return querycache.Key(keySummary, tenant) }
func MegaStatsKey(tenant string) string { return querycache.Key(keyMegaStats, tenant) }
func DayKey(tenant, dateKey string) string {
	return querycache.Key(keyDay, tenant, dateKey)
}
func MonthKey(tenant string, year int, month time.Month) string {
	return querycache.Key(keyMonth, tenant, fmt.Sprintf("%04d-%02d", year, int(month)))
}
func patientsKey(tenant, search string) string {
	return querycache.Key(keyPatients, tenant, search)
}

// Options tune the read side.
type Options struct {
	Zone   *tz.Zone
	Policy AvailabilityPolicy
	Now    func() time.Time
	Logger zerolog.Logger
}

func (o *Options) defaults() {
	if o.Zone == nil {
		o.Zone = tz.Recife
	}
	if o.Policy == nil {
		o.Policy = PointMatch{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Views serves the dashboard reads. Fetched records are merged into the
// tenant's store so local writes and server data are read from one place;
// the query cache only decides when to go back to the backend.
type Views struct {
	backend Backend
	stores  *Stores
	cache   *querycache.Cache
	opts    Options
	logger  zerolog.Logger
}

func NewViews(backend Backend, stores *Stores, cache *querycache.Cache, opts Options) *Views {
	opts.defaults()
	return &Views{
		backend: backend,
		stores:  stores,
		cache:   cache,
		opts:    opts,
		logger:  opts.Logger.With().Str("component", "agenda.views").Logger(),
	}
}

// Zone returns the display zone.
func (v *Views) Zone() *tz.Zone { return v.opts.Zone }

// Now returns the current instant from the configured clock.
func (v *Views) Now() time.Time { return v.opts.Now() }

// Policy returns the slot availability policy in use.
func (v *Views) Policy() AvailabilityPolicy { return v.opts.Policy }

// Store returns the tenant's local store.
func (v *Views) Store(tenant string) *Store { return v.stores.For(tenant) }

func (v *Views) loadRange(tenant string, from, to time.Time) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		appts, err := v.backend.ListAppointments(ctx, tenant, from, to)
		if err != nil {
			return 0, err
		}
		v.stores.For(tenant).MergeServer(appts)
		return len(appts), nil
	}
}

// MonthView is the calendar for one display-zone month.
type MonthView struct {
	Year   int               `json:"year"`
	Month  int               `json:"month"`
	Badges map[string]Counts `json:"badges"`
}

// Month loads the month (cached) and returns the per-day badges.
func (v *Views) Month(ctx context.Context, tenant string, year int, month time.Month) (*MonthView, error) {
	from, to := v.opts.Zone.MonthRange(year, month)
	if _, err := querycache.Fetch(ctx, v.cache, MonthKey(tenant, year, month), 0, v.loadRange(tenant, from, to)); err != nil {
		return nil, fmt.Errorf("loading month %04d-%02d: %w", year, int(month), err)
	}
	appts := v.stores.For(tenant).Between(from, to)
	return &MonthView{Year: year, Month: int(month), Badges: IndexByDay(v.opts.Zone, appts)}, nil
}

// DayView is the list for one display date.
type DayView struct {
	Date         string         `json:"date"`
	Counts       Counts         `json:"counts"`
	Appointments []*Appointment `json:"appointments"`
}

// Day loads the date (cached) and returns its appointments by start time.
func (v *Views) Day(ctx context.Context, tenant, dateKey string) (*DayView, error) {
	from, to, err := v.opts.Zone.DayRange(dateKey)
	if err != nil {
		return nil, err
	}
	if _, err := querycache.Fetch(ctx, v.cache, DayKey(tenant, dateKey), 0, v.loadRange(tenant, from, to)); err != nil {
		return nil, fmt.Errorf("loading day %s: %w", dateKey, err)
	}
	appts := v.stores.For(tenant).ByDate(dateKey)
	return &DayView{Date: dateKey, Counts: CountByStatus(appts), Appointments: appts}, nil
}

// Slots returns the availability grid for a date.
func (v *Views) Slots(ctx context.Context, tenant, dateKey string) ([]Slot, error) {
	day, err := v.Day(ctx, tenant, dateKey)
	if err != nil {
		return nil, err
	}
	return GenerateSlots(v.opts.Zone, dateKey, day.Appointments, v.opts.Policy)
}

// Upcoming loads the current and next month and returns the upcoming list.
func (v *Views) Upcoming(ctx context.Context, tenant string) ([]*Appointment, error) {
	now := v.opts.Now()
	local := now.In(v.opts.Zone.Location())
	for i := 0; i < 2; i++ {
		first := time.Date(local.Year(), local.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		if _, err := v.Month(ctx, tenant, first.Year(), first.Month()); err != nil {
			return nil, err
		}
	}
	return v.stores.For(tenant).Upcoming(now), nil
}

// Summary returns the today/tomorrow card.
func (v *Views) Summary(ctx context.Context, tenant string) (*Summary, error) {
	return querycache.Fetch(ctx, v.cache, SummaryKey(tenant), 0, func(ctx context.Context) (*Summary, error) {
		today := v.opts.Zone.Today(v.opts.Now())
		from, _, err := v.opts.Zone.DayRange(today)
		if err != nil {
			return nil, err
		}
		return v.backend.Summary(ctx, tenant, from, from.Add(48*time.Hour))
	})
}

// PeriodStats returns the today/week/month/next-month aggregates. When the
// backend has no aggregate endpoint they are computed from the records.
func (v *Views) PeriodStats(ctx context.Context, tenant string) (*PeriodStats, error) {
	return querycache.Fetch(ctx, v.cache, MegaStatsKey(tenant), 0, func(ctx context.Context) (*PeriodStats, error) {
		stats, err := v.backend.PeriodStats(ctx, tenant)
		if err == nil {
			return stats, nil
		}
		if !apiclient.IsNotFound(err) {
			return nil, err
		}
		v.logger.Debug().Str("tenant", tenant).Msg("mega-stats endpoint missing, computing locally")
		return v.computePeriodStats(ctx, tenant)
	})
}

func (v *Views) computePeriodStats(ctx context.Context, tenant string) (*PeriodStats, error) {
	now := v.opts.Now()
	zone := v.opts.Zone
	weekFrom, weekTo, err := zone.WeekRange(zone.Today(now))
	if err != nil {
		return nil, err
	}
	local := now.In(zone.Location())
	monthFrom, _ := zone.MonthRange(local.Year(), local.Month())
	_, nextTo := zone.MonthRange(local.Year(), local.Month()+1)

	from, to := earliest(weekFrom, monthFrom), latest(weekTo, nextTo)
	if _, err := v.loadRange(tenant, from, to)(ctx); err != nil {
		return nil, err
	}
	stats := ComputePeriodStats(zone, now, v.stores.For(tenant).Between(from, to))
	return &stats, nil
}

// Patients searches the backend (cached per term) and merges the result.
func (v *Views) Patients(ctx context.Context, tenant, search string) ([]*Patient, error) {
	_, err := querycache.Fetch(ctx, v.cache, patientsKey(tenant, search), 0, func(ctx context.Context) (int, error) {
		list, err := v.backend.ListPatients(ctx, tenant, search)
		if err != nil {
			return 0, err
		}
		st := v.stores.For(tenant)
		for _, p := range list {
			st.UpsertPatient(p)
		}
		return len(list), nil
	})
	if err != nil {
		return nil, err
	}
	return v.stores.For(tenant).SearchPatients(search), nil
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// PatientHistory is a patient with every known appointment, newest first.
type PatientHistory struct {
	Patient      *Patient       `json:"patient"`
	Appointments []*Appointment `json:"appointments"`
}

// History loads the patient list if needed and returns the patient's
// appointments from the local store.
func (v *Views) History(ctx context.Context, tenant, patientID string) (*PatientHistory, error) {
	st := v.stores.For(tenant)
	p, err := st.Patient(patientID)
	if errors.Is(err, ErrPatientNotFound) {
		if _, lerr := v.Patients(ctx, tenant, ""); lerr != nil {
			return nil, lerr
		}
		p, err = st.Patient(patientID)
	}
	if err != nil {
		return nil, err
	}
	return &PatientHistory{Patient: p, Appointments: st.History(patientID)}, nil
}
