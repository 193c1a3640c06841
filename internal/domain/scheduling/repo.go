package scheduling

import "context"

// Saver persists appointment state changes produced by the facade. The
// in-memory store stays the source of truth for reads; a Saver only has to
// make writes durable so the schedule survives a restart.
type Saver interface {
	// Save upserts one appointment, history included.
	Save(ctx context.Context, a *Appointment) error
	// Delete removes an appointment. Used to roll back a create whose
	// save never happened, and by administrative cleanup.
	Delete(ctx context.Context, id string) error
	// LoadAll returns every stored appointment, used to warm the store
	// at startup.
	LoadAll(ctx context.Context) ([]Appointment, error)
}
