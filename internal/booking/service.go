package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"reservation-backend/internal/model"
	"reservation-backend/internal/parse"
	"reservation-backend/internal/store"
)

// Service is the only legal mutation path for tables, reservations, the
// waiting list and the shop configuration. Every read-decide-write sequence
// runs under a mutex within the process. Across processes sharing a store,
// a write is rejected when another commit landed after the read, and the
// whole sequence is redone, so two bookings can never both observe the same
// table as free.
type Service struct {
	mu       sync.Mutex
	store    store.Store
	clock    Clock
	ids      IDGenerator
	notifier Notifier
	defaults model.ShopConfig
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

// WithNotifier registers the receiver of change signals.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService creates a service over st. defaults is the configuration used
// while no configuration has been stored.
func NewService(st store.Store, defaults model.ShopConfig, opts ...Option) *Service {
	s := &Service{
		store:    st,
		clock:    SystemClock{},
		ids:      UUIDGenerator{},
		notifier: noopNotifier{},
		defaults: defaults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// maxCommitAttempts bounds how often one operation starts over after another
// process committed between its read and its write.
const maxCommitAttempts = 5

// withRetry runs fn, a complete load-decide-commit sequence, again whenever
// its commit lost the race against another writer of the store. The decision
// is remade from fresh data each time.
func withRetry[T any](op string, fn func() (T, error)) (T, error) {
	for attempt := 1; ; attempt++ {
		out, err := fn()
		if !errors.Is(err, store.ErrConflict) || attempt == maxCommitAttempts {
			return out, err
		}
		log.Printf("%s: store changed by another writer, retrying (attempt %d/%d)", op, attempt+1, maxCommitAttempts)
	}
}

func (s *Service) retry(op string, fn func() error) error {
	_, err := withRetry(op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// load reads the named collections plus the configuration. Callers must hold s.mu.
func (s *Service) load(ctx context.Context, cols ...store.Collection) (*store.Snapshot, model.ShopConfig, error) {
	snap, err := s.store.Read(ctx, append(cols, store.CollectionConfig)...)
	if err != nil {
		return nil, model.ShopConfig{}, storeErr("read", err)
	}
	cfg := s.defaults
	if snap.Config != nil {
		cfg = *snap.Config
	}
	return snap, cfg, nil
}

// commit writes the named collections and signals subscribers. Callers must hold s.mu.
func (s *Service) commit(ctx context.Context, snap *store.Snapshot, cols ...store.Collection) error {
	if err := s.store.Write(ctx, snap, cols...); err != nil {
		return storeErr("write", err)
	}
	s.notifier.Changed()
	return nil
}

// Version returns the version of the stored data. It changes with every
// commit made by any process sharing the store.
func (s *Service) Version(ctx context.Context) (uint64, error) {
	v, err := s.store.Version(ctx)
	if err != nil {
		return 0, storeErr("version", err)
	}
	return v, nil
}

func availabilityOf(snap *store.Snapshot, cfg model.ShopConfig) Availability {
	return Availability{
		Reservations:          snap.Reservations,
		CleaningBufferMinutes: cfg.CleaningBufferMinutes,
	}
}

// --- Configuration ---

// GetConfig returns the stored configuration, or the defaults when none is stored.
func (s *Service) GetConfig(ctx context.Context) (model.ShopConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, cfg, err := s.load(ctx)
	return cfg, err
}

// UpdateConfig validates and stores a new configuration.
func (s *Service) UpdateConfig(ctx context.Context, cfg model.ShopConfig) (model.ShopConfig, error) {
	if err := ValidateConfig(cfg); err != nil {
		return model.ShopConfig{}, err
	}
	cfg.ID = model.ShopConfigID

	s.mu.Lock()
	defer s.mu.Unlock()

	return withRetry("update config", func() (model.ShopConfig, error) {
		snap, _, err := s.load(ctx)
		if err != nil {
			return model.ShopConfig{}, err
		}
		snap.Config = &cfg
		if err := s.commit(ctx, snap, store.CollectionConfig); err != nil {
			return model.ShopConfig{}, err
		}
		log.Printf("Shop config updated: %s-%s, slot %dm, grace %dm, buffer %dm, max %dm",
			cfg.OpenTime, cfg.CloseTime, cfg.SlotDurationMinutes, cfg.GracePeriodMinutes,
			cfg.CleaningBufferMinutes, cfg.MaxSessionDurationMinutes)
		return cfg, nil
	})
}

// ValidateConfig checks a configuration for internal consistency.
func ValidateConfig(cfg model.ShopConfig) error {
	open, err := parse.ParseClock(cfg.OpenTime)
	if err != nil {
		return invalid("openTime", err.Error())
	}
	closing, err := parse.ParseClock(cfg.CloseTime)
	if err != nil {
		return invalid("closeTime", err.Error())
	}
	if open >= closing {
		return invalid("closeTime", "must be after openTime")
	}
	if cfg.SlotDurationMinutes <= 0 {
		return invalid("slotDurationMinutes", "must be positive")
	}
	if cfg.GracePeriodMinutes < 0 {
		return invalid("gracePeriodMinutes", "must not be negative")
	}
	if cfg.CleaningBufferMinutes < 0 {
		return invalid("cleaningBufferMinutes", "must not be negative")
	}
	if cfg.MaxSessionDurationMinutes < cfg.SlotDurationMinutes {
		return invalid("maxSessionDurationMinutes", "must be at least slotDurationMinutes")
	}
	return nil
}

// --- Tables ---

// TableUpdate carries the fields to change on a table; nil fields are kept.
type TableUpdate struct {
	Name     *string           `json:"name"`
	Capacity *int              `json:"capacity"`
	State    *model.TableState `json:"state"`
}

// DefaultTables is the inventory seeded into an empty venue.
func DefaultTables() []model.Table {
	capacities := []int{2, 2, 2, 4, 4, 4, 6, 6, 8}
	tables := make([]model.Table, len(capacities))
	for i, c := range capacities {
		tables[i] = model.Table{
			ID:       fmt.Sprintf("t%d", i+1),
			Name:     fmt.Sprintf("T%d", i+1),
			Capacity: c,
			State:    model.TableAvailable,
		}
	}
	return tables
}

// SeedTables stores tables when the table collection is empty. It reports
// whether anything was written.
func (s *Service) SeedTables(ctx context.Context, tables []model.Table) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return withRetry("seed tables", func() (bool, error) {
		snap, _, err := s.load(ctx, store.CollectionTables)
		if err != nil {
			return false, err
		}
		if len(snap.Tables) > 0 || len(tables) == 0 {
			return false, nil
		}
		now := s.clock.Now()
		seeded := make([]model.Table, len(tables))
		for i, t := range tables {
			if t.CreatedAt.IsZero() {
				t.CreatedAt = now
			}
			seeded[i] = t
		}
		snap.Tables = seeded
		if err := s.commit(ctx, snap, store.CollectionTables); err != nil {
			return false, err
		}
		log.Printf("Seeded %d default tables", len(seeded))
		return true, nil
	})
}

// ListTables returns the table inventory in creation order.
func (s *Service) ListTables(ctx context.Context) ([]model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, _, err := s.load(ctx, store.CollectionTables)
	if err != nil {
		return nil, err
	}
	return snap.Tables, nil
}

// AddTable creates a new available table.
func (s *Service) AddTable(ctx context.Context, name string, capacity int) (model.Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Table{}, invalid("name", "must not be empty")
	}
	if capacity < 1 {
		return model.Table{}, invalid("capacity", "must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return withRetry("add table", func() (model.Table, error) {
		snap, _, err := s.load(ctx, store.CollectionTables)
		if err != nil {
			return model.Table{}, err
		}
		table := model.Table{
			ID:        s.ids.NewID(),
			Name:      name,
			Capacity:  capacity,
			State:     model.TableAvailable,
			CreatedAt: s.clock.Now(),
		}
		snap.Tables = append(snap.Tables, table)
		if err := s.commit(ctx, snap, store.CollectionTables); err != nil {
			return model.Table{}, err
		}
		return table, nil
	})
}

// UpdateTable applies a partial update to a table.
func (s *Service) UpdateTable(ctx context.Context, id string, upd TableUpdate) (model.Table, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return model.Table{}, invalid("name", "must not be empty")
	}
	if upd.Capacity != nil && *upd.Capacity < 1 {
		return model.Table{}, invalid("capacity", "must be at least 1")
	}
	if upd.State != nil && !upd.State.Valid() {
		return model.Table{}, invalid("state", fmt.Sprintf("unknown table state %q", *upd.State))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return withRetry("update table", func() (model.Table, error) {
		snap, _, err := s.load(ctx, store.CollectionTables)
		if err != nil {
			return model.Table{}, err
		}
		idx := indexOfTable(snap.Tables, id)
		if idx < 0 {
			return model.Table{}, fmt.Errorf("%w: %s", ErrTableNotFound, id)
		}
		t := &snap.Tables[idx]
		if upd.Name != nil {
			t.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Capacity != nil {
			t.Capacity = *upd.Capacity
		}
		if upd.State != nil {
			t.State = *upd.State
		}
		if err := s.commit(ctx, snap, store.CollectionTables); err != nil {
			return model.Table{}, err
		}
		return *t, nil
	})
}

// DeleteTable removes a table. Reservations that reference it are left as they are.
func (s *Service) DeleteTable(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retry("delete table", func() error {
		snap, _, err := s.load(ctx, store.CollectionTables)
		if err != nil {
			return err
		}
		idx := indexOfTable(snap.Tables, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrTableNotFound, id)
		}
		snap.Tables = append(snap.Tables[:idx], snap.Tables[idx+1:]...)
		return s.commit(ctx, snap, store.CollectionTables)
	})
}

func indexOfTable(tables []model.Table, id string) int {
	for i := range tables {
		if tables[i].ID == id {
			return i
		}
	}
	return -1
}

// --- Slots ---

// PlanSlots returns the day's bookable start times for a party of guests.
func (s *Service) PlanSlots(ctx context.Context, date string, guests int) ([]model.TimeSlot, error) {
	if _, err := parse.ParseDate(date); err != nil {
		return nil, invalid("date", err.Error())
	}
	if guests < 1 {
		return nil, invalid("guests", "must be at least 1")
	}

	s.mu.Lock()
	snap, cfg, err := s.load(ctx, store.CollectionTables, store.CollectionReservations)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return PlanSlots(cfg, snap.Tables, availabilityOf(snap, cfg), date, guests)
}
