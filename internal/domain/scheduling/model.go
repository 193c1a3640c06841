package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusCheckedIn  AppointmentStatus = "checked-in"
	StatusInProgress AppointmentStatus = "in-progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no-show"
)

// Terminal reports whether no further transition is legal from s.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s AppointmentStatus) bool {
	switch s {
	case StatusScheduled, StatusCheckedIn, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// HistoryEntry records one status transition. The history slice on an
// appointment is append-only and ordered by At.
type HistoryEntry struct {
	Status AppointmentStatus `json:"status"`
	At     time.Time         `json:"at"`
	Actor  string            `json:"actor"`
}

// Appointment is a booked visit for one patient with one doctor.
// Patients, doctors and billable services live outside this package; only
// their ids are carried here.
type Appointment struct {
	ID        uuid.UUID         `json:"id"`
	PatientID uuid.UUID         `json:"patient_id"`
	DoctorID  uuid.UUID         `json:"doctor_id"`
	ServiceID *uuid.UUID        `json:"service_id,omitempty"`
	Window    TimeRange         `json:"window"`
	Status    AppointmentStatus `json:"status"`
	Type      string            `json:"type,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	History   []HistoryEntry    `json:"history"`
}

// Clone returns a deep copy so callers can never alias the store's canonical
// record or its history slice.
func (a *Appointment) Clone() Appointment {
	out := *a
	if a.ServiceID != nil {
		sid := *a.ServiceID
		out.ServiceID = &sid
	}
	out.History = make([]HistoryEntry, len(a.History))
	copy(out.History, a.History)
	return out
}
