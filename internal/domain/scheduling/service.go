package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LayoutCache is an optional read-through cache for rendered layouts. A
// single version counter, bumped on every write, keeps stale layouts from
// ever being served without the cache having to enumerate its keys.
type LayoutCache interface {
	Version(ctx context.Context) (int64, error)
	Bump(ctx context.Context) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// Service wraps the pure facade with persistence and caching. Every write
// goes facade-first, then to the Saver; if the save fails the in-memory
// change is rolled back so the two never drift apart.
type Service struct {
	mu     sync.Mutex
	facade *Facade
	store  *Store
	saver  Saver
	cache  LayoutCache
	log    zerolog.Logger
}

func NewService(facade *Facade, store *Store, saver Saver, cache LayoutCache, log zerolog.Logger) *Service {
	return &Service{
		facade: facade,
		store:  store,
		saver:  saver,
		cache:  cache,
		log:    log.With().Str("component", "scheduling").Logger(),
	}
}

// WarmStore loads every persisted appointment into the in-memory store.
// Called once at startup, before the service takes traffic.
func (s *Service) WarmStore(ctx context.Context) (int, error) {
	if s.saver == nil {
		return 0, nil
	}
	appts, err := s.saver.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load appointments: %w", err)
	}
	for i := range appts {
		if err := s.store.Insert(appts[i]); err != nil {
			return 0, fmt.Errorf("index appointment %s: %w", appts[i].ID, err)
		}
	}
	return len(appts), nil
}

func (s *Service) Create(ctx context.Context, in CreateInput, id Identity) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.facade.Create(in, id)
	if err != nil {
		return Appointment{}, err
	}
	if err := s.save(ctx, &a); err != nil {
		// The booking never became durable; take it back out so a retry
		// does not conflict with a ghost of itself. Delete is best-effort
		// cleanup in case the save half-landed.
		s.store.Remove(a.ID)
		if dErr := s.saver.Delete(ctx, a.ID.String()); dErr != nil {
			s.log.Warn().Err(dErr).Stringer("appointment_id", a.ID).Msg("cleanup after failed save")
		}
		return Appointment{}, err
	}
	s.bumpCache(ctx)
	return a, nil
}

func (s *Service) Edit(ctx context.Context, apptID uuid.UUID, patch Patch, expectedUpdatedAt time.Time, id Identity) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.store.Get(apptID)
	if !ok {
		return Appointment{}, ErrNotFound
	}
	a, err := s.facade.Edit(apptID, patch, expectedUpdatedAt, id)
	if err != nil {
		return Appointment{}, err
	}
	if err := s.save(ctx, &a); err != nil {
		if rbErr := s.store.Replace(prev); rbErr != nil {
			s.log.Error().Err(rbErr).Stringer("appointment_id", apptID).Msg("rollback after failed save")
		}
		return Appointment{}, err
	}
	s.bumpCache(ctx)
	return a, nil
}

func (s *Service) Transition(ctx context.Context, apptID uuid.UUID, target AppointmentStatus, expectedUpdatedAt time.Time, id Identity) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.store.Get(apptID)
	if !ok {
		return Appointment{}, ErrNotFound
	}
	a, err := s.facade.Transition(apptID, target, expectedUpdatedAt, id)
	if err != nil {
		return Appointment{}, err
	}
	if err := s.save(ctx, &a); err != nil {
		if rbErr := s.store.Replace(prev); rbErr != nil {
			s.log.Error().Err(rbErr).Stringer("appointment_id", apptID).Msg("rollback after failed save")
		}
		return Appointment{}, err
	}
	s.bumpCache(ctx)
	return a, nil
}

func (s *Service) Get(apptID uuid.UUID, id Identity) (Appointment, error) {
	return s.facade.Get(apptID, id)
}

func (s *Service) ListByDoctor(doctorID uuid.UUID, id Identity) []Appointment {
	return s.facade.ListByDoctor(doctorID, id)
}

func (s *Service) ListByPatient(patientID uuid.UUID, id Identity) []Appointment {
	return s.facade.ListByPatient(patientID, id)
}

func (s *Service) ListByWindow(view TimeRange, id Identity) []Appointment {
	return s.facade.ListByWindow(view, id)
}

// Layout renders the visible schedule, consulting the cache first. Cache
// failures degrade to a plain compute; the layout itself never errors.
func (s *Service) Layout(ctx context.Context, view TimeRange, id Identity) []ViewSlot {
	if s.cache == nil {
		return s.facade.Layout(view, id)
	}

	ver, err := s.cache.Version(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("layout cache unavailable")
		return s.facade.Layout(view, id)
	}
	key := layoutKey(ver, view, id)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var slots []ViewSlot
		if json.Unmarshal(raw, &slots) == nil {
			return slots
		}
	}

	slots := s.facade.Layout(view, id)
	if raw, err := json.Marshal(slots); err == nil {
		if err := s.cache.Set(ctx, key, raw, 5*time.Minute); err != nil {
			s.log.Warn().Err(err).Msg("layout cache write")
		}
	}
	return slots
}

func (s *Service) save(ctx context.Context, a *Appointment) error {
	if s.saver == nil {
		return nil
	}
	if err := s.saver.Save(ctx, a); err != nil {
		s.log.Error().Err(err).Stringer("appointment_id", a.ID).Msg("save appointment")
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.log.Warn().Err(err).Msg("bump layout cache version")
	}
}

// layoutKey scopes a cached layout to a cache version, the view window and
// the caller's visibility (role plus own-record ids).
func layoutKey(ver int64, view TimeRange, id Identity) string {
	return fmt.Sprintf("schedule:layout:%d:%d:%d:%s:%s:%s",
		ver, view.Start.Unix(), view.End.Unix(), id.Role, id.DoctorID, id.PatientID)
}
