package agenda

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/alignwork/agenda/internal/platform/apiclient"
)

// mockBackend keeps appointments and patients in maps, the way the backend
// would, and counts list calls.
type mockBackend struct {
	mu           sync.Mutex
	appointments map[string]*Appointment
	patients     map[string]*Patient
	nextID       int

	listCalls     int
	summaryCalls  int
	createErr     error
	updateErr     error
	listErr       error
	periodErr     error
	patientCreate []*Patient
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		appointments: make(map[string]*Appointment),
		patients:     make(map[string]*Patient),
		nextID:       100,
	}
}

func (m *mockBackend) seed(a *Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.appointments[a.ID] = &cp
}

func (m *mockBackend) CreateAppointment(_ context.Context, tenant string, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	out := &Appointment{
		ID:          strconv.Itoa(m.nextID),
		TenantID:    tenant,
		PatientID:   a.PatientID,
		StartsAt:    a.StartsAt,
		DurationMin: a.DurationMin,
		Status:      a.Status,
	}
	cp := *out
	m.appointments[out.ID] = &cp
	return out, nil
}

func (m *mockBackend) UpdateAppointmentStatus(_ context.Context, _ string, id string, status Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	a, ok := m.appointments[id]
	if !ok {
		return nil, &apiclient.APIError{Status: 404, Message: "Appointment not found"}
	}
	a.Status = status
	cp := *a
	return &cp, nil
}

func (m *mockBackend) ListAppointments(_ context.Context, tenant string, from, to time.Time) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*Appointment
	for _, a := range m.appointments {
		if a.TenantID == tenant && !a.StartsAt.Before(from) && a.StartsAt.Before(to) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockBackend) Summary(_ context.Context, tenant string, from, to time.Time) (*Summary, error) {
	m.mu.Lock()
	m.summaryCalls++
	m.mu.Unlock()
	return &Summary{Today: Counts{Total: 1, Pending: 1}}, nil
}

func (m *mockBackend) PeriodStats(context.Context, string) (*PeriodStats, error) {
	if m.periodErr != nil {
		return nil, m.periodErr
	}
	return &PeriodStats{Today: Counts{Total: 9, Confirmed: 9}}, nil
}

func (m *mockBackend) CreatePatient(_ context.Context, tenant string, p *Patient) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *p
	cp.ID = strconv.Itoa(m.nextID)
	cp.TenantID = tenant
	m.patients[cp.ID] = &cp
	m.patientCreate = append(m.patientCreate, &cp)
	out := cp
	return &out, nil
}

func (m *mockBackend) ListPatients(_ context.Context, tenant, _ string) ([]*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Patient
	for _, p := range m.patients {
		if p.TenantID == tenant {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}
