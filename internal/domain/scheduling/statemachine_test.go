package scheduling

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	allowed := map[AppointmentStatus][]AppointmentStatus{
		StatusScheduled:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
		StatusCheckedIn:  {StatusInProgress, StatusCancelled},
		StatusInProgress: {StatusCompleted, StatusCancelled},
	}
	all := []AppointmentStatus{
		StatusScheduled, StatusCheckedIn, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow,
	}

	// Exhaustive check of every edge in the full status graph, legal or not.
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransition_RejectsSelfAndTerminal(t *testing.T) {
	if CanTransition(StatusScheduled, StatusScheduled) {
		t.Error("self-transition should be rejected")
	}
	for _, terminal := range []AppointmentStatus{StatusCompleted, StatusCancelled, StatusNoShow} {
		if !terminal.Terminal() {
			t.Errorf("%s should be terminal", terminal)
		}
		if CanTransition(terminal, StatusScheduled) {
			t.Errorf("transition out of terminal %s should be rejected", terminal)
		}
	}
}

func TestNextStatuses(t *testing.T) {
	got := NextStatuses(StatusScheduled)
	if len(got) != 3 {
		t.Fatalf("NextStatuses(scheduled) = %v, want 3 targets", got)
	}
	if got := NextStatuses(StatusCompleted); len(got) != 0 {
		t.Errorf("NextStatuses(completed) = %v, want none", got)
	}

	// Mutating the returned slice must not corrupt the transition table.
	got[0] = StatusCompleted
	if CanTransition(StatusScheduled, StatusCompleted) {
		t.Error("mutation of NextStatuses result leaked into the transition table")
	}
}

func TestTransitionAppointment(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC)
	a := newAppt(t, mustUUID("11111111-1111-1111-1111-111111111111"), "2026-03-02", "09:00", "10:00")
	a.UpdatedAt = now.Add(-time.Hour)
	a.History = []HistoryEntry{{Status: StatusScheduled, At: a.UpdatedAt, Actor: "front-1"}}

	if err := TransitionAppointment(&a, StatusCheckedIn, "front-2", now, a.UpdatedAt); err != nil {
		t.Fatalf("TransitionAppointment: %v", err)
	}
	if a.Status != StatusCheckedIn {
		t.Errorf("Status = %s, want checked-in", a.Status)
	}
	if !a.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt not stamped: %v", a.UpdatedAt)
	}
	if len(a.History) != 2 {
		t.Fatalf("History has %d entries, want 2", len(a.History))
	}
	last := a.History[1]
	if last.Status != StatusCheckedIn || last.Actor != "front-2" || !last.At.Equal(now) {
		t.Errorf("history entry = %+v", last)
	}
}

func TestTransitionAppointment_Stale(t *testing.T) {
	now := time.Now()
	a := newAppt(t, mustUUID("11111111-1111-1111-1111-111111111111"), "2026-03-02", "09:00", "10:00")
	a.UpdatedAt = now

	err := TransitionAppointment(&a, StatusCheckedIn, "front-1", now, now.Add(-time.Minute))
	if !errors.Is(err, ErrStaleAppointment) {
		t.Fatalf("err = %v, want ErrStaleAppointment", err)
	}
	if a.Status != StatusScheduled || len(a.History) != 0 {
		t.Error("stale transition must not mutate the appointment")
	}
}

func TestTransitionAppointment_IllegalEdge(t *testing.T) {
	now := time.Now()
	a := newAppt(t, mustUUID("11111111-1111-1111-1111-111111111111"), "2026-03-02", "09:00", "10:00")
	a.UpdatedAt = now

	err := TransitionAppointment(&a, StatusCompleted, "front-1", now, now)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	var terr *TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransitionError, got %T", err)
	}
	if terr.From != StatusScheduled || terr.To != StatusCompleted {
		t.Errorf("TransitionError = %+v", terr)
	}
	if a.Status != StatusScheduled {
		t.Error("illegal transition must not mutate the appointment")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []AppointmentStatus{
		StatusScheduled, StatusCheckedIn, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow,
	} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false", s)
		}
	}
	if ValidStatus("rescheduled") {
		t.Error("ValidStatus accepted an unknown status")
	}
}
