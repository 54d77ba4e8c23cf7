package store

import (
	"context"
	"fmt"
	"sync"
)

// memoryStore keeps every collection in process memory.
type memoryStore struct {
	mu   sync.RWMutex
	data Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Read(ctx context.Context, cols ...Collection) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.data.Clone()
	snap := &Snapshot{Version: all.Version}
	for _, col := range collectionsOrAll(cols) {
		switch col {
		case CollectionTables:
			snap.Tables = nonNil(all.Tables)
		case CollectionReservations:
			snap.Reservations = nonNil(all.Reservations)
		case CollectionWaitingList:
			snap.WaitingList = nonNil(all.WaitingList)
		case CollectionConfig:
			snap.Config = all.Config
		default:
			return nil, fmt.Errorf("unknown collection %q", col)
		}
	}
	return snap, nil
}

func (s *memoryStore) Write(ctx context.Context, snap *Snapshot, cols ...Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cols = collectionsOrAll(cols)
	for _, col := range cols {
		switch col {
		case CollectionTables, CollectionReservations, CollectionWaitingList, CollectionConfig:
		default:
			return fmt.Errorf("unknown collection %q", col)
		}
	}

	incoming := snap.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.Version != snap.Version {
		return ErrConflict
	}
	for _, col := range cols {
		switch col {
		case CollectionTables:
			s.data.Tables = incoming.Tables
		case CollectionReservations:
			s.data.Reservations = incoming.Reservations
		case CollectionWaitingList:
			s.data.WaitingList = incoming.WaitingList
		case CollectionConfig:
			s.data.Config = incoming.Config
		}
	}
	s.data.Version++
	snap.Version = s.data.Version
	return nil
}

func (s *memoryStore) Version(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Version, nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
