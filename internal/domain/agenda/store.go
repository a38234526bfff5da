package agenda

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alignwork/agenda/internal/platform/tz"
)

// DefaultUpcomingLimit caps the upcoming list.
const DefaultUpcomingLimit = 15

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrNotOptimistic       = errors.New("appointment is not pending confirmation")
)

// Store holds the appointments and patients of one tenant in memory.
// Records keep their insertion order; upserts replace in place.
type Store struct {
	mu            sync.RWMutex
	zone          *tz.Zone
	upcomingLimit int

	appointments []*Appointment
	apptIdx      map[string]int
	patients     []*Patient
	patientIdx   map[string]int
}

// NewStore creates an empty store. A limit <= 0 uses DefaultUpcomingLimit.
func NewStore(zone *tz.Zone, upcomingLimit int) *Store {
	if upcomingLimit <= 0 {
		upcomingLimit = DefaultUpcomingLimit
	}
	return &Store{
		zone:          zone,
		upcomingLimit: upcomingLimit,
		apptIdx:       make(map[string]int),
		patientIdx:    make(map[string]int),
	}
}

// Len returns the number of appointments held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.appointments)
}

// UpsertAppointment replaces the record with the same id or appends it.
func (s *Store) UpsertAppointment(a *Appointment) *Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(a.clone(), false).clone()
}

// MergeServer upserts a fetched batch. Fields the backend does not store
// (name, kind, notes, consultation) survive from the local copy.
func (s *Store) MergeServer(appts []*Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range appts {
		s.upsertLocked(a.clone(), true)
	}
}

func (s *Store) upsertLocked(a *Appointment, keepLocal bool) *Appointment {
	if i, ok := s.apptIdx[a.ID]; ok {
		if keepLocal {
			keepLocalFields(a, s.appointments[i])
		}
		s.appointments[i] = a
		return a
	}
	s.apptIdx[a.ID] = len(s.appointments)
	s.appointments = append(s.appointments, a)
	return a
}

// keepLocalFields carries over what the backend does not store.
func keepLocalFields(dst, prev *Appointment) {
	if dst.PatientName == "" {
		dst.PatientName = prev.PatientName
	}
	if dst.Kind == "" {
		dst.Kind = prev.Kind
	}
	if dst.Notes == "" {
		dst.Notes = prev.Notes
	}
	if dst.ConsultationNotes == "" {
		dst.ConsultationNotes = prev.ConsultationNotes
	}
	if dst.Prescriptions == nil {
		dst.Prescriptions = prev.Prescriptions
	}
}

func (s *Store) removeLocked(id string) {
	i, ok := s.apptIdx[id]
	if !ok {
		return
	}
	s.appointments = append(s.appointments[:i], s.appointments[i+1:]...)
	delete(s.apptIdx, id)
	for j := i; j < len(s.appointments); j++ {
		s.apptIdx[s.appointments[j].ID] = j
	}
}

// AddOptimistic inserts a record under a transient id, tagged as pending
// confirmation. The returned copy carries the transient id.
func (s *Store) AddOptimistic(a *Appointment) *Appointment {
	cp := a.clone()
	cp.ID = uuid.New().String()
	cp.PendingConfirmation = true

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(cp, false).clone()
}

// Reconcile swaps the optimistic record tempID for the server record. When
// the server id already arrived through a refetch, that entry is updated
// and the optimistic one dropped.
func (s *Store) Reconcile(tempID string, server *Appointment) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.apptIdx[tempID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	temp := s.appointments[i]
	if !temp.PendingConfirmation {
		return nil, ErrNotOptimistic
	}

	final := server.clone()
	final.PendingConfirmation = false
	keepLocalFields(final, temp)

	if _, exists := s.apptIdx[final.ID]; exists && final.ID != tempID {
		s.removeLocked(tempID)
		return s.upsertLocked(final, true).clone(), nil
	}
	delete(s.apptIdx, tempID)
	s.appointments[i] = final
	s.apptIdx[final.ID] = i
	return final.clone(), nil
}

// Discard drops an optimistic record after a failed create. Confirmed
// records are left alone.
func (s *Store) Discard(tempID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.apptIdx[tempID]
	if !ok || !s.appointments[i].PendingConfirmation {
		return false
	}
	s.removeLocked(tempID)
	return true
}

// Appointment returns a copy of one record.
func (s *Store) Appointment(id string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.apptIdx[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return s.appointments[i].clone(), nil
}

// All returns a copy of every appointment in insertion order.
func (s *Store) All() []*Appointment {
	return s.filter(func(*Appointment) bool { return true })
}

// ByDate returns the appointments whose display date is dateKey, by start.
func (s *Store) ByDate(dateKey string) []*Appointment {
	out := s.filter(func(a *Appointment) bool { return s.zone.DateKey(a.StartsAt) == dateKey })
	sortByStart(out)
	return out
}

// Between returns appointments starting in [from, to).
func (s *Store) Between(from, to time.Time) []*Appointment {
	return s.filter(func(a *Appointment) bool { return within(a.StartsAt, from, to) })
}

// ByPatient returns a patient's appointments in insertion order.
func (s *Store) ByPatient(patientID string) []*Appointment {
	return s.filter(func(a *Appointment) bool { return a.PatientID == patientID })
}

// History returns a patient's appointments newest first.
func (s *Store) History(patientID string) []*Appointment {
	out := s.ByPatient(patientID)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	return out
}

// Upcoming returns appointments from today (display zone) onwards, by date
// then start time, capped at the store limit.
func (s *Store) Upcoming(now time.Time) []*Appointment {
	today := s.zone.Today(now)
	out := s.filter(func(a *Appointment) bool { return s.zone.DateKey(a.StartsAt) >= today })
	sortByStart(out)
	if len(out) > s.upcomingLimit {
		out = out[:s.upcomingLimit]
	}
	return out
}

func (s *Store) filter(keep func(*Appointment) bool) []*Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Appointment, 0)
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, a.clone())
		}
	}
	return out
}

func sortByStart(appts []*Appointment) {
	sort.SliceStable(appts, func(i, j int) bool { return appts[i].StartsAt.Before(appts[j].StartsAt) })
}

// SetStatus changes only the status of a record.
func (s *Store) SetStatus(id string, status Status) (*Appointment, error) {
	return s.mutate(id, func(a *Appointment) { a.Status = status })
}

func (s *Store) Confirm(id string) (*Appointment, error)  { return s.SetStatus(id, StatusConfirmed) }
func (s *Store) Complete(id string) (*Appointment, error) { return s.SetStatus(id, StatusCompleted) }
func (s *Store) Cancel(id string) (*Appointment, error)   { return s.SetStatus(id, StatusCancelled) }

// SaveConsultation stores the consultation notes and prescriptions.
func (s *Store) SaveConsultation(id, notes string, prescriptions []Prescription) (*Appointment, error) {
	rx := normalizePrescriptions(prescriptions)
	return s.mutate(id, func(a *Appointment) {
		a.ConsultationNotes = notes
		a.Prescriptions = rx
	})
}

// CompleteConsultation saves the consultation and marks it completed.
func (s *Store) CompleteConsultation(id, notes string, prescriptions []Prescription) (*Appointment, error) {
	rx := normalizePrescriptions(prescriptions)
	return s.mutate(id, func(a *Appointment) {
		a.ConsultationNotes = notes
		a.Prescriptions = rx
		a.Status = StatusCompleted
	})
}

func (s *Store) mutate(id string, fn func(*Appointment)) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.apptIdx[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	fn(s.appointments[i])
	return s.appointments[i].clone(), nil
}

// -- Patients --

// UpsertPatient replaces the patient with the same id or appends it.
func (s *Store) UpsertPatient(p *Patient) *Patient {
	cp := *p
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.patientIdx[cp.ID]; ok {
		s.patients[i] = &cp
	} else {
		s.patientIdx[cp.ID] = len(s.patients)
		s.patients = append(s.patients, &cp)
	}
	out := cp
	return &out
}

// Patient returns a copy of one patient.
func (s *Store) Patient(id string) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.patientIdx[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *s.patients[i]
	return &cp, nil
}

// SearchPatients matches a case-insensitive name substring or, when the
// term contains digits, a CPF substring. An empty term returns everyone.
func (s *Store) SearchPatients(term string) []*Patient {
	term = strings.ToLower(strings.TrimSpace(term))
	termDigits := digits(term)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Patient, 0)
	for _, p := range s.patients {
		match := term == "" ||
			strings.Contains(strings.ToLower(p.Name), term) ||
			(termDigits != "" && strings.Contains(digits(p.CPF), termDigits))
		if match {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

// Stores partitions stores by tenant.
type Stores struct {
	mu            sync.Mutex
	zone          *tz.Zone
	upcomingLimit int
	byTenant      map[string]*Store
}

func NewStores(zone *tz.Zone, upcomingLimit int) *Stores {
	return &Stores{zone: zone, upcomingLimit: upcomingLimit, byTenant: make(map[string]*Store)}
}

// For returns the tenant's store, creating it on first use.
func (s *Stores) For(tenant string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.byTenant[tenant]
	if !ok {
		st = NewStore(s.zone, s.upcomingLimit)
		s.byTenant[tenant] = st
	}
	return st
}
