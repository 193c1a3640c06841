package scheduling

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Facade is the only surface external collaborators call. It composes the
// store, conflict validator, status machine and layout engine; it performs
// no I/O of its own. Reads are safe to call repeatedly; writes are
// serialized so the per-doctor conflict invariant cannot be raced away.
type Facade struct {
	mu       sync.Mutex
	store    *Store
	conflict *ConflictValidator
	layout   *LayoutEngine
	now      func() time.Time
}

func NewFacade(store *Store, grid GridConfig) *Facade {
	return &Facade{
		store:    store,
		conflict: NewConflictValidator(store),
		layout:   NewLayoutEngine(grid),
		now:      time.Now,
	}
}

// CreateInput is the plain record a UI screen submits to book a visit.
// Engine-managed fields (id, status, timestamps, history) are absent.
type CreateInput struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	ServiceID *uuid.UUID
	Window    TimeRange
	Type      string
	Notes     string
}

// Patch carries the fields an edit wants to change; nil means "leave as is".
type Patch struct {
	Window    *TimeRange
	DoctorID  *uuid.UUID
	ServiceID *uuid.UUID
	Type      *string
	Notes     *string
}

// Create validates and books a new appointment with status Scheduled.
func (f *Facade) Create(in CreateInput, id Identity) (Appointment, error) {
	if !CanCreate(id) {
		return Appointment{}, ErrForbidden
	}
	if err := validateInput(in); err != nil {
		return Appointment{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.conflict.Check(in.Window, in.DoctorID, uuid.Nil); err != nil {
		return Appointment{}, err
	}

	now := f.now()
	a := Appointment{
		ID:        uuid.New(),
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		ServiceID: in.ServiceID,
		Window:    in.Window,
		Status:    StatusScheduled,
		Type:      in.Type,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
		History:   []HistoryEntry{{Status: StatusScheduled, At: now, Actor: id.UserID}},
	}
	if err := f.store.Insert(a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// Edit applies a patch to an existing appointment. The conflict check runs
// only when the window or doctor changed; a notes-only edit never fails
// with Conflict. Terminal appointments accept nothing but notes.
func (f *Facade) Edit(apptID uuid.UUID, patch Patch, expectedUpdatedAt time.Time, id Identity) (Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.store.Get(apptID)
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if !CanMutate(id, &a) {
		return Appointment{}, ErrForbidden
	}
	if !a.UpdatedAt.Equal(expectedUpdatedAt) {
		return Appointment{}, ErrStaleAppointment
	}
	if a.Status.Terminal() && touchesSchedule(patch) {
		return Appointment{}, ErrTerminal
	}

	window := a.Window
	doctorID := a.DoctorID
	if patch.Window != nil {
		window = *patch.Window
		if !window.Valid() {
			return Appointment{}, &ValidationError{Field: "window", Reason: "end must be after start"}
		}
		if window.DurationMinutes() < 1 {
			return Appointment{}, &ValidationError{Field: "window", Reason: "must last at least one minute"}
		}
	}
	if patch.DoctorID != nil {
		if *patch.DoctorID == uuid.Nil {
			return Appointment{}, &ValidationError{Field: "doctor_id", Reason: "required"}
		}
		doctorID = *patch.DoctorID
	}

	scheduleChanged := !window.Start.Equal(a.Window.Start) ||
		!window.End.Equal(a.Window.End) || doctorID != a.DoctorID
	if scheduleChanged {
		if err := f.conflict.Check(window, doctorID, a.ID); err != nil {
			return Appointment{}, err
		}
	}

	a.Window = window
	a.DoctorID = doctorID
	if patch.ServiceID != nil {
		sid := *patch.ServiceID
		a.ServiceID = &sid
	}
	if patch.Type != nil {
		a.Type = *patch.Type
	}
	if patch.Notes != nil {
		a.Notes = *patch.Notes
	}
	a.UpdatedAt = f.now()

	if err := f.store.Replace(a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// Transition moves an appointment through the status machine. The actor
// recorded in history is the calling identity's user id.
func (f *Facade) Transition(apptID uuid.UUID, target AppointmentStatus, expectedUpdatedAt time.Time, id Identity) (Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.store.Get(apptID)
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if !CanMutate(id, &a) {
		return Appointment{}, ErrForbidden
	}
	if !ValidStatus(target) {
		return Appointment{}, &TransitionError{From: a.Status, To: target}
	}
	if err := TransitionAppointment(&a, target, id.UserID, f.now(), expectedUpdatedAt); err != nil {
		return Appointment{}, err
	}
	if err := f.store.Replace(a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// Get returns one appointment if the identity may see it.
func (f *Facade) Get(apptID uuid.UUID, id Identity) (Appointment, error) {
	a, ok := f.store.Get(apptID)
	if !ok {
		return Appointment{}, ErrNotFound
	}
	visible := VisibleTo(id, []Appointment{a})
	if len(visible) == 0 {
		// Report not-found rather than forbidden so a doctor cannot probe
		// for the existence of another clinician's bookings.
		return Appointment{}, ErrNotFound
	}
	return visible[0], nil
}

// ListByDoctor returns the doctor's appointments visible to the identity.
func (f *Facade) ListByDoctor(doctorID uuid.UUID, id Identity) []Appointment {
	return VisibleTo(id, f.store.ByDoctor(doctorID))
}

// ListByPatient returns the patient's appointments visible to the identity.
func (f *Facade) ListByPatient(patientID uuid.UUID, id Identity) []Appointment {
	return VisibleTo(id, f.store.ByPatient(patientID))
}

// ListByWindow returns the appointments overlapping the window, filtered by
// role visibility.
func (f *Facade) ListByWindow(view TimeRange, id Identity) []Appointment {
	return VisibleTo(id, f.store.ByWindow(view))
}

// Layout renders the identity's visible schedule for the view window. It is
// pure and read-only: calling it twice against an unchanged store produces
// identical slots.
func (f *Facade) Layout(view TimeRange, id Identity) []ViewSlot {
	return f.layout.Layout(view, VisibleTo(id, f.store.ByWindow(view)))
}

func validateInput(in CreateInput) error {
	if in.PatientID == uuid.Nil {
		return &ValidationError{Field: "patient_id", Reason: "required"}
	}
	if in.DoctorID == uuid.Nil {
		return &ValidationError{Field: "doctor_id", Reason: "required"}
	}
	if !in.Window.Valid() {
		return &ValidationError{Field: "window", Reason: "end must be after start"}
	}
	if in.Window.DurationMinutes() < 1 {
		return &ValidationError{Field: "window", Reason: "must last at least one minute"}
	}
	return nil
}

// touchesSchedule reports whether the patch changes anything other than
// notes. Terminal appointments keep accepting note edits only.
func touchesSchedule(p Patch) bool {
	return p.Window != nil || p.DoctorID != nil || p.ServiceID != nil || p.Type != nil
}
