package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"reservation-backend/internal/model"
	"reservation-backend/internal/store"
)

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// seqIDs hands out id-1, id-2, ...
type seqIDs struct {
	prefix string
	n      atomic.Int64
}

func (g *seqIDs) NewID() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}

// countingNotifier counts change signals.
type countingNotifier struct {
	n atomic.Int64
}

func (c *countingNotifier) Changed() { c.n.Add(1) }

func (c *countingNotifier) Count() int { return int(c.n.Load()) }

// flakyStore wraps a store and fails writes while failWrites is set. While
// conflictWrites is set every write reports a concurrent commit.
// beforeNextWrite, when set, runs once ahead of the next write.
type flakyStore struct {
	store.Store
	failWrites      atomic.Bool
	conflictWrites  atomic.Bool
	writes          atomic.Int64
	beforeNextWrite func()
}

var errDiskFull = errors.New("disk full")

func (f *flakyStore) Write(ctx context.Context, snap *store.Snapshot, cols ...store.Collection) error {
	f.writes.Add(1)
	if hook := f.beforeNextWrite; hook != nil {
		f.beforeNextWrite = nil
		hook()
	}
	if f.failWrites.Load() {
		return errDiskFull
	}
	if f.conflictWrites.Load() {
		return store.ErrConflict
	}
	return f.Store.Write(ctx, snap, cols...)
}

// barrierStore holds back the first n reads until all n have happened, so
// n services make their decision on the same store version.
type barrierStore struct {
	store.Store
	mu      sync.Mutex
	pending int
	release chan struct{}
}

func newBarrierStore(inner store.Store, n int) *barrierStore {
	return &barrierStore{Store: inner, pending: n, release: make(chan struct{})}
}

func (b *barrierStore) Read(ctx context.Context, cols ...store.Collection) (*store.Snapshot, error) {
	snap, err := b.Store.Read(ctx, cols...)
	b.mu.Lock()
	if b.pending == 0 {
		b.mu.Unlock()
		return snap, err
	}
	b.pending--
	if b.pending == 0 {
		close(b.release)
	}
	b.mu.Unlock()

	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return snap, err
}

func testConfig() model.ShopConfig {
	return model.ShopConfig{
		OpenTime:                  "04:00",
		CloseTime:                 "24:00",
		SlotDurationMinutes:       60,
		GracePeriodMinutes:        15,
		CleaningBufferMinutes:     5,
		MaxSessionDurationMinutes: 120,
	}
}

var day = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

const date = "2025-06-01"

type fixture struct {
	svc      *Service
	store    *flakyStore
	clock    *fakeClock
	notifier *countingNotifier
}

// newFixture builds a service over an in-memory store seeded with tables.
func newFixture(tables ...model.Table) *fixture {
	fs := &flakyStore{Store: store.NewMemoryStore()}
	if len(tables) > 0 {
		if err := fs.Write(context.Background(), &store.Snapshot{Tables: tables}, store.CollectionTables); err != nil {
			panic(err)
		}
	}
	clock := newFakeClock(day)
	notifier := &countingNotifier{}
	svc := NewService(fs, testConfig(),
		WithClock(clock),
		WithIDGenerator(&seqIDs{prefix: "id"}),
		WithNotifier(notifier),
	)
	return &fixture{svc: svc, store: fs, clock: clock, notifier: notifier}
}

func (f *fixture) putReservations(rs ...model.Reservation) {
	ctx := context.Background()
	snap, err := f.store.Read(ctx, store.CollectionReservations)
	if err != nil {
		panic(err)
	}
	snap.Reservations = rs
	if err := f.store.Write(ctx, snap, store.CollectionReservations); err != nil {
		panic(err)
	}
}

func (f *fixture) reservations() []model.Reservation {
	snap, err := f.store.Read(context.Background(), store.CollectionReservations)
	if err != nil {
		panic(err)
	}
	return snap.Reservations
}

func (f *fixture) waitingList() []model.WaitingListEntry {
	snap, err := f.store.Read(context.Background(), store.CollectionWaitingList)
	if err != nil {
		panic(err)
	}
	return snap.WaitingList
}

func table(id, name string, capacity int) model.Table {
	return model.Table{ID: id, Name: name, Capacity: capacity, State: model.TableAvailable}
}

func reservation(id, tableID, start, end string, status model.ReservationStatus) model.Reservation {
	return model.Reservation{
		ID: id, CustomerName: "Guest " + id, Phone: "555", Guests: 2,
		Date: date, StartTime: start, EndTime: end, TableID: tableID, Status: status,
	}
}
