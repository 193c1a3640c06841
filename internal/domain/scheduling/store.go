package scheduling

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store holds the authoritative in-memory set of appointments. It owns no
// business rules; all mutation goes through the facade. Lookups by doctor
// are served from a per-doctor list kept ordered by window start, since
// conflict checks and layout both run per-write and per-render.
type Store struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*Appointment
	byDoctor map[uuid.UUID][]*Appointment
}

func NewStore() *Store {
	return &Store{
		byID:     make(map[uuid.UUID]*Appointment),
		byDoctor: make(map[uuid.UUID][]*Appointment),
	}
}

// Insert adds a new appointment. The id must not already exist.
func (s *Store) Insert(a Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[a.ID]; ok {
		return &ValidationError{Field: "id", Reason: "already exists"}
	}
	rec := a.Clone()
	s.byID[a.ID] = &rec
	s.indexDoctor(&rec)
	return nil
}

// Replace swaps the stored record for an existing id, reindexing when the
// doctor changed.
func (s *Store) Replace(a Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[a.ID]
	if !ok {
		return ErrNotFound
	}
	s.unindexDoctor(old)
	rec := a.Clone()
	s.byID[a.ID] = &rec
	s.indexDoctor(&rec)
	return nil
}

// Remove deletes the record outright. The engine itself never removes
// appointments (cancellation is a status); this exists so the persistence
// glue can roll back an insert whose save failed.
func (s *Store) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.unindexDoctor(rec)
	delete(s.byID, id)
	return nil
}

// Get returns a copy of the appointment with the given id.
func (s *Store) Get(id uuid.UUID) (Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return Appointment{}, false
	}
	return rec.Clone(), true
}

// ByDoctorDay returns the doctor's appointments whose window touches the
// calendar day containing day, ordered by window start then id.
func (s *Store) ByDoctorDay(doctorID uuid.UUID, day TimeRange) []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Appointment
	for _, rec := range s.byDoctor[doctorID] {
		if rec.Window.Overlaps(day) {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// ByDoctor returns every appointment for the doctor, ordered by start.
func (s *Store) ByDoctor(doctorID uuid.UUID) []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Appointment, 0, len(s.byDoctor[doctorID]))
	for _, rec := range s.byDoctor[doctorID] {
		out = append(out, rec.Clone())
	}
	return out
}

// ByPatient returns every appointment for the patient, ordered by start.
func (s *Store) ByPatient(patientID uuid.UUID) []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Appointment
	for _, rec := range s.byID {
		if rec.PatientID == patientID {
			out = append(out, rec.Clone())
		}
	}
	sortAppointments(out)
	return out
}

// ByWindow returns every appointment whose window overlaps the view window,
// ordered by start then id.
func (s *Store) ByWindow(view TimeRange) []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Appointment
	for _, rec := range s.byID {
		if rec.Window.Overlaps(view) {
			out = append(out, rec.Clone())
		}
	}
	sortAppointments(out)
	return out
}

// All returns every appointment, ordered by start then id.
func (s *Store) All() []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Appointment, 0, len(s.byID))
	for _, rec := range s.byID {
		out = append(out, rec.Clone())
	}
	sortAppointments(out)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// indexDoctor inserts rec into the doctor's ordered list. Callers hold the
// write lock.
func (s *Store) indexDoctor(rec *Appointment) {
	list := s.byDoctor[rec.DoctorID]
	i := sort.Search(len(list), func(i int) bool {
		if list[i].Window.Start.Equal(rec.Window.Start) {
			return list[i].ID.String() >= rec.ID.String()
		}
		return list[i].Window.Start.After(rec.Window.Start)
	})
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = rec
	s.byDoctor[rec.DoctorID] = list
}

func (s *Store) unindexDoctor(rec *Appointment) {
	list := s.byDoctor[rec.DoctorID]
	for i, r := range list {
		if r.ID == rec.ID {
			s.byDoctor[rec.DoctorID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func sortAppointments(list []Appointment) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Window.Start.Equal(list[j].Window.Start) {
			return list[i].ID.String() < list[j].ID.String()
		}
		return list[i].Window.Start.Before(list[j].Window.Start)
	})
}
