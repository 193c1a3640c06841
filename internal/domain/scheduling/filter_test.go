package scheduling

import (
	"testing"

	"github.com/google/uuid"
)

func TestVisibleTo(t *testing.T) {
	docA := uuid.New()
	docB := uuid.New()
	patX := uuid.New()

	apptA := newAppt(t, docA, "2026-03-02", "09:00", "10:00")
	apptA.PatientID = patX
	apptB := newAppt(t, docB, "2026-03-02", "11:00", "12:00")
	all := []Appointment{apptA, apptB}

	tests := []struct {
		name string
		id   Identity
		want []uuid.UUID
	}{
		{"admin sees all", Identity{UserID: "u1", Role: RoleAdmin}, []uuid.UUID{apptA.ID, apptB.ID}},
		{"frontdesk sees all", Identity{UserID: "u2", Role: RoleFrontDesk}, []uuid.UUID{apptA.ID, apptB.ID}},
		{"doctor sees own", Identity{UserID: "u3", Role: RoleDoctor, DoctorID: docA}, []uuid.UUID{apptA.ID}},
		{"other doctor sees other", Identity{UserID: "u4", Role: RoleDoctor, DoctorID: docB}, []uuid.UUID{apptB.ID}},
		{"patient sees own", Identity{UserID: "u5", Role: RolePatient, PatientID: patX}, []uuid.UUID{apptA.ID}},
		{"stranger patient sees none", Identity{UserID: "u6", Role: RolePatient, PatientID: uuid.New()}, nil},
		{"unknown role sees none", Identity{UserID: "u7", Role: "auditor"}, nil},
		{"empty role sees none", Identity{UserID: "u8"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VisibleTo(tt.id, all)
			if got == nil {
				t.Fatal("VisibleTo returned nil, want a non-nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d appointments, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("result[%d] = %v, want %v", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestVisibleTo_DoesNotAliasInput(t *testing.T) {
	a := newAppt(t, uuid.New(), "2026-03-02", "09:00", "10:00")
	in := []Appointment{a}
	out := VisibleTo(Identity{Role: RoleAdmin}, in)
	out[0].Notes = "mutated"
	if in[0].Notes == "mutated" {
		t.Error("VisibleTo result aliases the input slice")
	}
}

func TestCanMutate(t *testing.T) {
	doc := uuid.New()
	a := newAppt(t, doc, "2026-03-02", "09:00", "10:00")

	tests := []struct {
		name string
		id   Identity
		want bool
	}{
		{"admin", Identity{Role: RoleAdmin}, true},
		{"frontdesk", Identity{Role: RoleFrontDesk}, true},
		{"owning doctor", Identity{Role: RoleDoctor, DoctorID: doc}, true},
		{"other doctor", Identity{Role: RoleDoctor, DoctorID: uuid.New()}, false},
		{"patient", Identity{Role: RolePatient, PatientID: a.PatientID}, false},
		{"unknown role", Identity{Role: "auditor"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMutate(tt.id, &a); got != tt.want {
				t.Errorf("CanMutate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanCreate(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleFrontDesk, true},
		{RoleDoctor, true},
		{RolePatient, false},
		{"auditor", false},
	}
	for _, tt := range tests {
		if got := CanCreate(Identity{Role: tt.role}); got != tt.want {
			t.Errorf("CanCreate(%s) = %v, want %v", tt.role, got, tt.want)
		}
	}
}
