package scheduling

import (
	"container/heap"
	"sort"
	"time"

	"github.com/google/uuid"
)

// GridConfig bounds the rendered calendar grid. DayStartHour/DayEndHour are
// clock hours (e.g. 8 and 18 for an 08:00-18:00 grid); WeekStartsOn is used
// by callers building week view windows.
type GridConfig struct {
	DayStartHour int
	DayEndHour   int
	WeekStartsOn time.Weekday
}

// DefaultGrid is a standard clinic day, Monday-first weeks.
var DefaultGrid = GridConfig{DayStartHour: 8, DayEndHour: 18, WeekStartsOn: time.Monday}

// GridMinutes is the height of one rendered day in minutes.
func (g GridConfig) GridMinutes() int {
	return (g.DayEndHour - g.DayStartHour) * 60
}

// ViewSlot is the layout output for one appointment: which overlap lane it
// renders in, how many lanes its day uses, and its vertical extent in
// minutes from the top of the grid. Slots are recomputed on every layout
// request and discarded after rendering.
type ViewSlot struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Lane          int       `json:"lane"`
	LaneCount     int       `json:"lane_count"`
	Top           int       `json:"top"`
	Height        int       `json:"height"`
	DayIndex      int       `json:"day_index"`
}

// LayoutEngine converts a filtered set of appointments for a view window
// into a collision-free visual layout. It holds no mutable state, so
// repeated calls over an unchanged store yield identical output.
type LayoutEngine struct {
	grid GridConfig
}

func NewLayoutEngine(grid GridConfig) *LayoutEngine {
	return &LayoutEngine{grid: grid}
}

// Layout lays out the appointments that fall inside the view window, one
// ViewSlot per appointment. Cancelled appointments occupy no visual slot.
// Each calendar day is laid out independently; lane assignment is greedy
// interval coloring over a min-heap of lane end times, and every slot in a
// day reports that day's full lane count so side-by-side columns render at
// an even width.
func (e *LayoutEngine) Layout(view TimeRange, appts []Appointment) []ViewSlot {
	if !view.Valid() {
		return []ViewSlot{}
	}
	viewStart := startOfDay(view.Start)

	byDay := make(map[int][]Appointment)
	for _, a := range appts {
		if a.Status == StatusCancelled {
			continue
		}
		if !a.Window.Overlaps(view) {
			continue
		}
		idx := daysBetween(viewStart, startOfDay(a.Window.Start))
		if idx < 0 {
			// Window began before the view (only possible for a booking
			// crossing midnight); render it on the view's first day,
			// clamped to that day's grid.
			idx = 0
		}
		byDay[idx] = append(byDay[idx], a)
	}

	dayIndexes := make([]int, 0, len(byDay))
	for idx := range byDay {
		dayIndexes = append(dayIndexes, idx)
	}
	sort.Ints(dayIndexes)

	slots := []ViewSlot{}
	for _, idx := range dayIndexes {
		slots = append(slots, e.layoutDay(viewStart.AddDate(0, 0, idx), idx, byDay[idx])...)
	}
	return slots
}

// layoutDay assigns lanes and the vertical transform for one calendar day.
func (e *LayoutEngine) layoutDay(day time.Time, dayIndex int, appts []Appointment) []ViewSlot {
	sortAppointments(appts)

	gridStart := day.Add(time.Duration(e.grid.DayStartHour) * time.Hour)
	gridEnd := day.Add(time.Duration(e.grid.DayEndHour) * time.Hour)
	gridBounds := TimeRange{Start: gridStart, End: gridEnd}

	lanes := &laneHeap{}
	heap.Init(lanes)
	nextLane := 0

	slots := make([]ViewSlot, 0, len(appts))
	for _, a := range appts {
		var lane int
		if lanes.Len() > 0 && !(*lanes)[0].end.After(a.Window.Start) {
			reused := heap.Pop(lanes).(laneEnd)
			lane = reused.lane
		} else {
			lane = nextLane
			nextLane++
		}
		heap.Push(lanes, laneEnd{end: a.Window.End, lane: lane})

		clamped := a.Window.ClampTo(gridBounds)
		top := int(clamped.Start.Sub(gridStart) / time.Minute)
		slots = append(slots, ViewSlot{
			AppointmentID: a.ID,
			Lane:          lane,
			Top:           top,
			Height:        clamped.DurationMinutes(),
			DayIndex:      dayIndex,
		})
	}

	// Lane width is uniform across the whole day, not per overlap cluster:
	// an appointment that overlaps nothing still reports the day's lane
	// count, so columns never change width partway down the grid.
	for i := range slots {
		slots[i].LaneCount = nextLane
	}
	return slots
}

// daysBetween counts calendar days from a to b; both must be midnights.
func daysBetween(a, b time.Time) int {
	days := 0
	for t := a; t.Before(b); t = t.AddDate(0, 0, 1) {
		days++
	}
	for t := a; t.After(b); t = t.AddDate(0, 0, -1) {
		days--
	}
	return days
}

// laneHeap is a min-heap of lane end times; the root is the lane that frees
// up earliest. Ties prefer the lowest lane number for determinism.
type laneEnd struct {
	end  time.Time
	lane int
}

type laneHeap []laneEnd

func (h laneHeap) Len() int { return len(h) }
func (h laneHeap) Less(i, j int) bool {
	if h[i].end.Equal(h[j].end) {
		return h[i].lane < h[j].lane
	}
	return h[i].end.Before(h[j].end)
}
func (h laneHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *laneHeap) Push(x interface{}) { *h = append(*h, x.(laneEnd)) }
func (h *laneHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
