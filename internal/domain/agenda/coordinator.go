package agenda

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alignwork/agenda/internal/platform/querycache"
	"github.com/alignwork/agenda/internal/platform/tz"
)

// CreateRequest is the new-appointment form. Date and Time are wall-clock
// values in the display zone.
type CreateRequest struct {
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`
	Kind        Kind   `json:"kind"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	DurationMin int    `json:"duration_min"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

// Validate checks the form locally and builds the appointment to send.
func (r CreateRequest) Validate(zone *tz.Zone) (*Appointment, error) {
	var verr ValidationError
	if strings.TrimSpace(r.PatientID) == "" {
		verr.add("patient_id", "Selecione um paciente")
	}

	var startsAt time.Time
	switch {
	case strings.TrimSpace(r.Date) == "":
		verr.add("date", "Data é obrigatória")
	case strings.TrimSpace(r.Time) == "":
		verr.add("time", "Horário é obrigatório")
	default:
		t, err := zone.ToUTC(r.Date, r.Time)
		switch {
		case errors.Is(err, tz.ErrInvalidDate):
			verr.add("date", "Data inválida")
		case err != nil:
			verr.add("time", "Horário inválido")
		default:
			startsAt = t
		}
	}

	duration := r.DurationMin
	if duration == 0 {
		duration = DefaultDurationMin
	}
	if duration < MinDurationMin || duration > MaxDurationMin {
		verr.add("duration_min", fmt.Sprintf("Duração deve estar entre %d e %d minutos", MinDurationMin, MaxDurationMin))
	}

	status := StatusPending
	if strings.TrimSpace(r.Status) != "" {
		s, err := ParseStatus(r.Status)
		if err != nil || !s.Active() {
			verr.add("status", "Status deve ser pendente ou confirmado")
		} else {
			status = s
		}
	}

	kind := r.Kind
	if kind == "" {
		kind = KindConsulta
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return &Appointment{
		PatientID:   strings.TrimSpace(r.PatientID),
		PatientName: strings.TrimSpace(r.PatientName),
		Kind:        kind,
		StartsAt:    startsAt,
		DurationMin: duration,
		Status:      status,
		Notes:       strings.TrimSpace(r.Notes),
	}, nil
}

// Coordinator owns every appointment write. A write goes to the backend
// first; the local store and cached views follow the server's answer.
type Coordinator struct {
	backend Backend
	stores  *Stores
	cache   *querycache.Cache
	zone    *tz.Zone
	logger  zerolog.Logger
}

func NewCoordinator(backend Backend, stores *Stores, cache *querycache.Cache, zone *tz.Zone, logger zerolog.Logger) *Coordinator {
	if zone == nil {
		zone = tz.Recife
	}
	return &Coordinator{
		backend: backend,
		stores:  stores,
		cache:   cache,
		zone:    zone,
		logger:  logger.With().Str("component", "agenda.coordinator").Logger(),
	}
}

// CreateAppointment validates, inserts an optimistic record, creates the
// appointment remotely and swaps the optimistic record for the server one.
// On failure the optimistic record is removed and nothing else changes.
func (c *Coordinator) CreateAppointment(ctx context.Context, tenant string, req CreateRequest) (*Appointment, error) {
	appt, err := req.Validate(c.zone)
	if err != nil {
		return nil, err
	}
	appt.TenantID = tenant

	st := c.stores.For(tenant)
	temp := st.AddOptimistic(appt)

	server, err := c.backend.CreateAppointment(ctx, tenant, temp)
	if err != nil {
		st.Discard(temp.ID)
		c.logger.Warn().Err(err).Str("tenant", tenant).Str("patient_id", appt.PatientID).Msg("create appointment failed")
		return nil, fmt.Errorf("creating appointment: %w", err)
	}
	if server.ID == "" {
		// Keep the transient id until a refetch brings the real one.
		c.logger.Warn().Str("tenant", tenant).Msg("backend returned appointment without id")
		server.ID = temp.ID
	}

	final, err := st.Reconcile(temp.ID, server)
	if err != nil {
		final = st.UpsertAppointment(server)
	}

	c.logger.Info().
		Str("tenant", tenant).
		Str("appointment_id", final.ID).
		Str("starts_at", tz.FormatUTC(final.StartsAt)).
		Msg("appointment created")

	c.refresh(ctx, tenant, final.StartsAt)
	return final, nil
}

// UpdateStatus changes the status remotely, then locally, then refreshes
// the views of the appointment's date and month. A date change reported by
// the backend refreshes both the old and the new date.
func (c *Coordinator) UpdateStatus(ctx context.Context, tenant, id string, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "Status inválido"}}
	}

	st := c.stores.For(tenant)
	prev, prevErr := st.Appointment(id)
	if prevErr == nil && prev.PendingConfirmation {
		return nil, fmt.Errorf("appointment %s is still being created: %w", id, ErrNotOptimistic)
	}

	server, err := c.backend.UpdateAppointmentStatus(ctx, tenant, id, status)
	if err != nil {
		c.logger.Warn().Err(err).Str("tenant", tenant).Str("appointment_id", id).Msg("status update failed")
		return nil, fmt.Errorf("updating appointment %s: %w", id, err)
	}
	if server.Status == "" {
		server.Status = status
	}

	updated, err := st.SetStatus(id, server.Status)
	if err != nil {
		if server.ID == "" {
			server.ID = id
		}
		updated = st.UpsertAppointment(server)
	}

	when := server.StartsAt
	if when.IsZero() {
		when = updated.StartsAt
	}
	c.refresh(ctx, tenant, when)
	if prevErr == nil && !prev.StartsAt.IsZero() && c.zone.DateKey(prev.StartsAt) != c.zone.DateKey(when) {
		c.refresh(ctx, tenant, prev.StartsAt)
	}
	return updated, nil
}

func (c *Coordinator) Confirm(ctx context.Context, tenant, id string) (*Appointment, error) {
	return c.UpdateStatus(ctx, tenant, id, StatusConfirmed)
}

func (c *Coordinator) Cancel(ctx context.Context, tenant, id string) (*Appointment, error) {
	return c.UpdateStatus(ctx, tenant, id, StatusCancelled)
}

func (c *Coordinator) Complete(ctx context.Context, tenant, id string) (*Appointment, error) {
	return c.UpdateStatus(ctx, tenant, id, StatusCompleted)
}

// SaveConsultation stores notes and prescriptions. They live only in the
// local store; the backend has no field for them.
func (c *Coordinator) SaveConsultation(_ context.Context, tenant, id, notes string, rx []Prescription) (*Appointment, error) {
	return c.stores.For(tenant).SaveConsultation(id, notes, rx)
}

// CompleteConsultation marks the appointment completed remotely and then
// stores the consultation.
func (c *Coordinator) CompleteConsultation(ctx context.Context, tenant, id, notes string, rx []Prescription) (*Appointment, error) {
	if _, err := c.Complete(ctx, tenant, id); err != nil {
		return nil, err
	}
	return c.stores.For(tenant).CompleteConsultation(id, notes, rx)
}

// CreatePatient validates and registers a patient, then caches it locally.
func (c *Coordinator) CreatePatient(ctx context.Context, tenant string, in PatientInput) (*Patient, error) {
	p, err := in.Validate()
	if err != nil {
		return nil, err
	}
	p.TenantID = tenant
	server, err := c.backend.CreatePatient(ctx, tenant, p)
	if err != nil {
		return nil, fmt.Errorf("creating patient: %w", err)
	}
	c.cache.Invalidate(querycache.Key(keyPatients, tenant))
	return c.stores.For(tenant).UpsertPatient(server), nil
}

// refresh invalidates and eagerly reloads the aggregates and the day and
// month containing at. Reload failures are logged only; the write already
// succeeded.
func (c *Coordinator) refresh(ctx context.Context, tenant string, at time.Time) {
	local := at.In(c.zone.Location())
	prefixes := []string{
		SummaryKey(tenant),
		MegaStatsKey(tenant),
		DayKey(tenant, c.zone.DateKey(at)),
		MonthKey(tenant, local.Year(), local.Month()),
	}
	if err := c.cache.Refetch(ctx, prefixes...); err != nil {
		c.logger.Warn().Err(err).Str("tenant", tenant).Msg("refetch after mutation failed")
	}
}
