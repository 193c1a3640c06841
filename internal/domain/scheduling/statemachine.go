package scheduling

import "time"

// statusTransitions is the complete set of legal status edges. Anything not
// listed, including self-transitions and moves out of terminal states, is
// rejected.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusNoShow:     {},
}

// CanTransition reports whether the from -> to edge is legal.
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the legal targets from the given status.
func NextStatuses(from AppointmentStatus) []AppointmentStatus {
	out := make([]AppointmentStatus, len(statusTransitions[from]))
	copy(out, statusTransitions[from])
	return out
}

// TransitionAppointment moves a to the target status, appending a history
// entry and stamping UpdatedAt. The expectedUpdatedAt optimistic check
// protects against two front-desk operators acting on the same appointment:
// the second of two racing edits fails with ErrStaleAppointment instead of
// silently winning. No field other than status, history and UpdatedAt
// changes.
func TransitionAppointment(a *Appointment, target AppointmentStatus, actor string, now, expectedUpdatedAt time.Time) error {
	if !a.UpdatedAt.Equal(expectedUpdatedAt) {
		return ErrStaleAppointment
	}
	if !CanTransition(a.Status, target) {
		return &TransitionError{From: a.Status, To: target}
	}
	a.Status = target
	a.History = append(a.History, HistoryEntry{Status: target, At: now, Actor: actor})
	a.UpdatedAt = now
	return nil
}
