package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func mustUUID(s string) uuid.UUID {
	return uuid.MustParse(s)
}

func newAppt(t *testing.T, doctorID uuid.UUID, day, startHM, endHM string) Appointment {
	t.Helper()
	return Appointment{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		DoctorID:  doctorID,
		Window:    mkRange(t, day, startHM, endHM),
		Status:    StatusScheduled,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	s := NewStore()
	a := newAppt(t, uuid.New(), "2026-03-02", "09:00", "10:00")

	if err := s.Insert(a); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}

	got, ok := s.Get(a.ID)
	if !ok {
		t.Fatal("Get returned false for inserted appointment")
	}
	if got.ID != a.ID || got.DoctorID != a.DoctorID {
		t.Errorf("Get returned wrong record: %+v", got)
	}

	if _, ok := s.Get(uuid.New()); ok {
		t.Error("Get returned true for unknown id")
	}
}

func TestStore_InsertDuplicate(t *testing.T) {
	s := NewStore()
	a := newAppt(t, uuid.New(), "2026-03-02", "09:00", "10:00")
	if err := s.Insert(a); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	err := s.Insert(a)
	if err == nil {
		t.Fatal("expected error on duplicate insert")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Field != "id" {
		t.Errorf("Field = %q, want %q", verr.Field, "id")
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore()
	a := newAppt(t, uuid.New(), "2026-03-02", "09:00", "10:00")
	a.History = []HistoryEntry{{Status: StatusScheduled, At: time.Now(), Actor: "front-1"}}
	if err := s.Insert(a); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, _ := s.Get(a.ID)
	got.Notes = "mutated"
	got.History[0].Actor = "tampered"

	again, _ := s.Get(a.ID)
	if again.Notes == "mutated" {
		t.Error("caller mutation leaked into the store")
	}
	if again.History[0].Actor == "tampered" {
		t.Error("caller mutation of history leaked into the store")
	}
}

func TestStore_Replace(t *testing.T) {
	s := NewStore()
	doc1 := uuid.New()
	doc2 := uuid.New()
	a := newAppt(t, doc1, "2026-03-02", "09:00", "10:00")
	if err := s.Insert(a); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	moved := a
	moved.DoctorID = doc2
	moved.Window = mkRange(t, "2026-03-02", "11:00", "12:00")
	if err := s.Replace(moved); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if got := s.ByDoctor(doc1); len(got) != 0 {
		t.Errorf("old doctor still has %d appointments", len(got))
	}
	got := s.ByDoctor(doc2)
	if len(got) != 1 {
		t.Fatalf("new doctor has %d appointments, want 1", len(got))
	}
	if !got[0].Window.Start.Equal(moved.Window.Start) {
		t.Errorf("window not updated: %v", got[0].Window)
	}

	if err := s.Replace(newAppt(t, doc1, "2026-03-02", "09:00", "10:00")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Replace unknown id = %v, want ErrNotFound", err)
	}
}

func TestStore_Remove(t *testing.T) {
	s := NewStore()
	doc := uuid.New()
	a := newAppt(t, doc, "2026-03-02", "09:00", "10:00")
	if err := s.Insert(a); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := s.Remove(a.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after remove, want 0", s.Len())
	}
	if got := s.ByDoctor(doc); len(got) != 0 {
		t.Errorf("doctor index still has %d entries", len(got))
	}
	if err := s.Remove(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove = %v, want ErrNotFound", err)
	}
}

func TestStore_ByDoctorOrdered(t *testing.T) {
	s := NewStore()
	doc := uuid.New()
	// Insert out of order; the index keeps them sorted by start.
	late := newAppt(t, doc, "2026-03-02", "14:00", "15:00")
	early := newAppt(t, doc, "2026-03-02", "09:00", "10:00")
	mid := newAppt(t, doc, "2026-03-02", "11:00", "12:00")
	for _, a := range []Appointment{late, early, mid} {
		if err := s.Insert(a); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got := s.ByDoctor(doc)
	if len(got) != 3 {
		t.Fatalf("ByDoctor returned %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Window.Start.Before(got[i-1].Window.Start) {
			t.Fatalf("results not ordered by start: %v before %v",
				got[i].Window.Start, got[i-1].Window.Start)
		}
	}
}

func TestStore_ByDoctorDay(t *testing.T) {
	s := NewStore()
	doc := uuid.New()
	monday := newAppt(t, doc, "2026-03-02", "09:00", "10:00")
	tuesday := newAppt(t, doc, "2026-03-03", "09:00", "10:00")
	for _, a := range []Appointment{monday, tuesday} {
		if err := s.Insert(a); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	day := mkRange(t, "2026-03-02", "00:00", "23:59")
	got := s.ByDoctorDay(doc, day)
	if len(got) != 1 {
		t.Fatalf("ByDoctorDay returned %d, want 1", len(got))
	}
	if got[0].ID != monday.ID {
		t.Errorf("wrong appointment returned: %v", got[0].ID)
	}
}

func TestStore_ByPatientAndByWindow(t *testing.T) {
	s := NewStore()
	patient := uuid.New()
	a := newAppt(t, uuid.New(), "2026-03-02", "09:00", "10:00")
	a.PatientID = patient
	b := newAppt(t, uuid.New(), "2026-03-03", "09:00", "10:00")
	b.PatientID = patient
	other := newAppt(t, uuid.New(), "2026-03-02", "09:00", "10:00")
	for _, x := range []Appointment{b, a, other} {
		if err := s.Insert(x); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	byPatient := s.ByPatient(patient)
	if len(byPatient) != 2 {
		t.Fatalf("ByPatient returned %d, want 2", len(byPatient))
	}
	if byPatient[0].ID != a.ID {
		t.Errorf("ByPatient not ordered by start")
	}

	view := mkRange(t, "2026-03-02", "00:00", "23:59")
	byWindow := s.ByWindow(view)
	if len(byWindow) != 2 {
		t.Fatalf("ByWindow returned %d, want 2", len(byWindow))
	}
	for _, x := range byWindow {
		if x.ID == b.ID {
			t.Error("ByWindow returned appointment outside the view")
		}
	}
}
