package scheduling

import "github.com/google/uuid"

// ConflictValidator decides whether a candidate window may be booked for a
// doctor. Cancelled and no-show appointments never block a slot.
type ConflictValidator struct {
	store *Store
}

func NewConflictValidator(store *Store) *ConflictValidator {
	return &ConflictValidator{store: store}
}

// Check scans the doctor's active appointments on every calendar day the
// candidate window touches (two days for a window crossing midnight, which
// the UI disallows but is still handled here) and returns a ConflictError
// naming the first clash in start order. excludeID skips one appointment so
// an edit can be re-validated against itself; pass uuid.Nil on create.
func (v *ConflictValidator) Check(candidate TimeRange, doctorID uuid.UUID, excludeID uuid.UUID) error {
	seen := make(map[uuid.UUID]bool)
	for _, day := range candidate.Days() {
		dayRange := TimeRange{Start: day, End: day.AddDate(0, 0, 1)}
		for _, a := range v.store.ByDoctorDay(doctorID, dayRange) {
			if a.ID == excludeID || seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			if a.Status == StatusCancelled || a.Status == StatusNoShow {
				continue
			}
			if a.Window.Overlaps(candidate) {
				return &ConflictError{WithAppointmentID: a.ID}
			}
		}
	}
	return nil
}
