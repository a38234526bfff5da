package agenda

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the local classification of an appointment. The backend does not
// store it.
type Kind string

const (
	KindConsulta     Kind = "Consulta"
	KindTratamento   Kind = "Tratamento"
	KindRetorno      Kind = "Retorno"
	KindProcedimento Kind = "Procedimento"
)

// Appointment is a scheduled visit. StartsAt is always UTC.
type Appointment struct {
	ID                  string         `json:"id"`
	TenantID            string         `json:"tenant_id"`
	PatientID           string         `json:"patient_id"`
	PatientName         string         `json:"patient_name,omitempty"`
	Kind                Kind           `json:"kind,omitempty"`
	StartsAt            time.Time      `json:"starts_at"`
	DurationMin         int            `json:"duration_min"`
	Status              Status         `json:"status"`
	Notes               string         `json:"notes,omitempty"`
	ConsultationNotes   string         `json:"consultation_notes,omitempty"`
	Prescriptions       []Prescription `json:"prescriptions,omitempty"`
	CreatedAt           time.Time      `json:"created_at,omitempty"`
	UpdatedAt           time.Time      `json:"updated_at,omitempty"`
	PendingConfirmation bool           `json:"pending_confirmation,omitempty"`
}

// End is the instant the appointment finishes.
func (a *Appointment) End() time.Time {
	return a.StartsAt.Add(time.Duration(a.DurationMin) * time.Minute)
}

func (a *Appointment) clone() *Appointment {
	cp := *a
	if a.Prescriptions != nil {
		cp.Prescriptions = append([]Prescription(nil), a.Prescriptions...)
	}
	return &cp
}

// Patient is a clinic patient.
type Patient struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	CPF          string    `json:"cpf"`
	Address      string    `json:"address"`
	Email        string    `json:"email,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Prescription is a medication line attached to a consultation.
type Prescription struct {
	ID       string `json:"id"`
	Drug     string `json:"drug"`
	Quantity string `json:"quantity"`
	Interval string `json:"interval"`
	Duration string `json:"duration"`
	Schedule string `json:"schedule"`
}

// NewPrescription assigns an id and derives the dosing schedule text.
func NewPrescription(drug, quantity, interval, duration string) Prescription {
	p := Prescription{
		ID:       uuid.New().String(),
		Drug:     strings.TrimSpace(drug),
		Quantity: strings.TrimSpace(quantity),
		Interval: strings.TrimSpace(interval),
		Duration: strings.TrimSpace(duration),
	}
	p.Schedule = ScheduleText(p.Quantity, p.Interval, p.Duration)
	return p
}

// ScheduleText joins the non-empty dosing parts with " • ".
func ScheduleText(quantity, interval, duration string) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{quantity, interval, duration} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " • ")
}

// normalizePrescriptions fills missing ids and schedules.
func normalizePrescriptions(in []Prescription) []Prescription {
	if len(in) == 0 {
		return nil
	}
	out := make([]Prescription, 0, len(in))
	for _, p := range in {
		if strings.TrimSpace(p.Drug) == "" {
			continue
		}
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.Schedule == "" {
			p.Schedule = ScheduleText(p.Quantity, p.Interval, p.Duration)
		}
		out = append(out, p)
	}
	return out
}

// digits strips everything but 0-9.
func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
