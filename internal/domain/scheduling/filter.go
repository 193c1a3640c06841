package scheduling

import "github.com/google/uuid"

// Role is the caller's role as asserted by the auth layer. The engine never
// fetches or caches identity; it is passed in on every call.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleFrontDesk Role = "frontdesk"
	RoleDoctor    Role = "doctor"
	RolePatient   Role = "patient"
)

// Identity is who is calling. DoctorID/PatientID are only meaningful for
// the matching role.
type Identity struct {
	UserID    string
	Role      Role
	DoctorID  uuid.UUID
	PatientID uuid.UUID
}

// VisibleTo projects appointments down to the subset the identity may see.
// Admin and front-desk see everything; a doctor sees only their own
// schedule; a patient only their own appointments. Unknown roles fail
// closed and see nothing — leaking another clinician's schedule is the
// worse failure mode.
func VisibleTo(id Identity, appts []Appointment) []Appointment {
	switch id.Role {
	case RoleAdmin, RoleFrontDesk:
		out := make([]Appointment, len(appts))
		copy(out, appts)
		return out
	case RoleDoctor:
		out := []Appointment{}
		for _, a := range appts {
			if a.DoctorID == id.DoctorID {
				out = append(out, a)
			}
		}
		return out
	case RolePatient:
		out := []Appointment{}
		for _, a := range appts {
			if a.PatientID == id.PatientID {
				out = append(out, a)
			}
		}
		return out
	}
	return []Appointment{}
}

// CanMutate is the capability check the facade runs before any write.
// Visibility and edit permission are separate: front-desk sees all and may
// edit all, a doctor may only touch their own appointments, and patients
// go through the front desk for changes.
func CanMutate(id Identity, a *Appointment) bool {
	switch id.Role {
	case RoleAdmin, RoleFrontDesk:
		return true
	case RoleDoctor:
		return a.DoctorID == id.DoctorID
	}
	return false
}

// CanCreate reports whether the identity may book new appointments at all.
func CanCreate(id Identity) bool {
	switch id.Role {
	case RoleAdmin, RoleFrontDesk, RoleDoctor:
		return true
	}
	return false
}
