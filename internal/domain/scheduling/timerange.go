package scheduling

import "time"

// TimeRange is the half-open interval [Start, End) an appointment occupies.
// It is also used for calendar view windows (a day or a week).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether End is strictly after Start.
func (r TimeRange) Valid() bool {
	return r.End.After(r.Start)
}

// Overlaps reports whether two ranges share any instant. Ranges that only
// touch at an endpoint do not overlap, which is what allows back-to-back
// bookings (9:00-10:00 followed by 10:00-11:00) for the same doctor.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Contains reports whether t falls inside the range. The end boundary is
// exclusive, consistent with Overlaps.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// DurationMinutes returns the length of the range in whole minutes.
func (r TimeRange) DurationMinutes() int {
	return int(r.End.Sub(r.Start) / time.Minute)
}

// ClampTo trims the range to the given bounds. A range entirely outside the
// bounds collapses to a zero-length range pinned to the nearest bound.
func (r TimeRange) ClampTo(bounds TimeRange) TimeRange {
	out := r
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	if out.End.Before(out.Start) {
		if r.End.Before(bounds.Start) {
			return TimeRange{Start: bounds.Start, End: bounds.Start}
		}
		return TimeRange{Start: bounds.End, End: bounds.End}
	}
	return out
}

// Days returns the midnight of every calendar day the range touches, in the
// range's own location. A range ending exactly at midnight does not touch
// the following day.
func (r TimeRange) Days() []time.Time {
	if !r.Valid() {
		return nil
	}
	var days []time.Time
	day := startOfDay(r.Start)
	for day.Before(r.End) {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
