package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/alignwork/agenda/internal/platform/apiclient"
	"github.com/alignwork/agenda/internal/platform/tz"
)

// Backend is the remote system of record for appointments and patients.
type Backend interface {
	CreateAppointment(ctx context.Context, tenant string, a *Appointment) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, tenant, id string, status Status) (*Appointment, error)
	ListAppointments(ctx context.Context, tenant string, from, to time.Time) ([]*Appointment, error)
	Summary(ctx context.Context, tenant string, from, to time.Time) (*Summary, error)
	PeriodStats(ctx context.Context, tenant string) (*PeriodStats, error)
	CreatePatient(ctx context.Context, tenant string, p *Patient) (*Patient, error)
	ListPatients(ctx context.Context, tenant, search string) ([]*Patient, error)
}

// RemoteBackend adapts the first-party REST client.
type RemoteBackend struct {
	client *apiclient.Client
	zone   *tz.Zone
}

func NewRemoteBackend(client *apiclient.Client, zone *tz.Zone) *RemoteBackend {
	return &RemoteBackend{client: client, zone: zone}
}

func (b *RemoteBackend) CreateAppointment(ctx context.Context, tenant string, a *Appointment) (*Appointment, error) {
	out, err := b.client.CreateAppointment(ctx, apiclient.AppointmentCreate{
		TenantID:    tenant,
		PatientID:   a.PatientID,
		StartsAt:    tz.FormatUTC(a.StartsAt),
		DurationMin: a.DurationMin,
		Status:      string(a.Status),
	})
	if err != nil {
		return nil, err
	}
	return fromWire(out)
}

func (b *RemoteBackend) UpdateAppointmentStatus(ctx context.Context, _ string, id string, status Status) (*Appointment, error) {
	out, err := b.client.UpdateAppointmentStatus(ctx, id, string(status))
	if err != nil {
		return nil, err
	}
	return fromWire(out)
}

func (b *RemoteBackend) ListAppointments(ctx context.Context, tenant string, from, to time.Time) ([]*Appointment, error) {
	rows, err := b.client.ListAllAppointments(ctx, apiclient.AppointmentQuery{TenantID: tenant, From: from, To: to})
	if err != nil {
		return nil, err
	}
	out := make([]*Appointment, 0, len(rows))
	for i := range rows {
		a, err := fromWire(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (b *RemoteBackend) Summary(ctx context.Context, tenant string, from, to time.Time) (*Summary, error) {
	s, err := b.client.AppointmentSummary(ctx, tenant, from, to, b.zone.Name())
	if err != nil {
		return nil, err
	}
	return &Summary{Today: Counts(s.Today), Tomorrow: Counts(s.Tomorrow)}, nil
}

func (b *RemoteBackend) PeriodStats(ctx context.Context, tenant string) (*PeriodStats, error) {
	s, err := b.client.AppointmentMegaStats(ctx, tenant, b.zone.Name())
	if err != nil {
		return nil, err
	}
	return &PeriodStats{
		Today:     Counts(s.Today),
		Week:      Counts(s.Week),
		Month:     Counts(s.Month),
		NextMonth: Counts(s.NextMonth),
	}, nil
}

func (b *RemoteBackend) CreatePatient(ctx context.Context, tenant string, p *Patient) (*Patient, error) {
	out, err := b.client.CreatePatient(ctx, apiclient.PatientCreate{
		TenantID: tenant,
		Name:     p.Name,
		CPF:      p.CPF,
		Phone:    p.Phone,
		Email:    p.Email,
		Address:  p.Address,
		Notes:    p.Notes,
	})
	if err != nil {
		return nil, err
	}
	return patientFromWire(out), nil
}

// ListPatients walks every page of the listing.
func (b *RemoteBackend) ListPatients(ctx context.Context, tenant, search string) ([]*Patient, error) {
	var out []*Patient
	for page := 1; ; page++ {
		res, err := b.client.ListPatients(ctx, apiclient.PatientQuery{
			TenantID: tenant,
			Search:   search,
			Page:     page,
			PageSize: apiclient.MaxPageSize,
		})
		if err != nil {
			return nil, err
		}
		for i := range res.Data {
			out = append(out, patientFromWire(&res.Data[i]))
		}
		if page >= res.TotalPages || len(res.Data) == 0 {
			return out, nil
		}
	}
}

func fromWire(w *apiclient.Appointment) (*Appointment, error) {
	startsAt, err := tz.ParseInstant(w.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", w.ID, err)
	}
	status, err := ParseStatus(w.Status)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", w.ID, err)
	}
	a := &Appointment{
		ID:          w.ID.String(),
		TenantID:    w.TenantID,
		PatientID:   w.PatientID,
		StartsAt:    startsAt,
		DurationMin: w.DurationMin,
		Status:      status,
	}
	if t, err := tz.ParseInstant(w.CreatedAt); err == nil {
		a.CreatedAt = t
	}
	if t, err := tz.ParseInstant(w.UpdatedAt); err == nil {
		a.UpdatedAt = t
	}
	return a, nil
}

func patientFromWire(w *apiclient.Patient) *Patient {
	p := &Patient{
		ID:       w.ID.String(),
		TenantID: w.TenantID,
		Name:     w.Name,
		Phone:    w.Phone,
		CPF:      w.CPF,
		Address:  w.Address,
		Email:    w.Email,
		Notes:    w.Notes,
	}
	if t, err := tz.ParseInstant(w.CreatedAt); err == nil {
		p.RegisteredAt = t
	}
	return p
}
