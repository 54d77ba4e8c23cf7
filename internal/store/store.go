package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"reservation-backend/internal/model"
)

// ErrConflict is returned by Write when the store was changed after snap was
// read. The caller should read again and redo its decision.
var ErrConflict = errors.New("store changed since it was read")

// Store defines the entity store: whole-collection reads and writes.
type Store interface {
	// Read loads the named collections (all of them when none are named).
	Read(ctx context.Context, cols ...Collection) (*Snapshot, error)
	// Write replaces each named collection with its contents in snap. All
	// named collections are replaced atomically or not at all, and only if
	// the store is still at snap.Version. On success snap.Version is set to
	// the new store version.
	Write(ctx context.Context, snap *Snapshot, cols ...Collection) error
	// Version returns the current store version.
	Version(ctx context.Context) (uint64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Read loads the requested collections ordered by their stored position.
func (s *gormStore) Read(ctx context.Context, cols ...Collection) (*Snapshot, error) {
	db := s.db.WithContext(ctx)
	version, err := readVersion(db)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Version: version}
	for _, col := range collectionsOrAll(cols) {
		switch col {
		case CollectionTables:
			tables := []model.Table{}
			if err := db.Order("position").Find(&tables).Error; err != nil {
				return nil, fmt.Errorf("failed to read tables: %w", err)
			}
			snap.Tables = tables
		case CollectionReservations:
			reservations := []model.Reservation{}
			if err := db.Order("position").Find(&reservations).Error; err != nil {
				return nil, fmt.Errorf("failed to read reservations: %w", err)
			}
			snap.Reservations = reservations
		case CollectionWaitingList:
			entries := []model.WaitingListEntry{}
			if err := db.Order("position").Find(&entries).Error; err != nil {
				return nil, fmt.Errorf("failed to read waiting list: %w", err)
			}
			snap.WaitingList = entries
		case CollectionConfig:
			var cfg model.ShopConfig
			err := db.First(&cfg, model.ShopConfigID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			snap.Config = &cfg
		default:
			return nil, fmt.Errorf("unknown collection %q", col)
		}
	}
	return snap, nil
}

func (s *gormStore) Version(ctx context.Context) (uint64, error) {
	return readVersion(s.db.WithContext(ctx))
}

func readVersion(db *gorm.DB) (uint64, error) {
	var row model.StoreVersion
	err := db.First(&row, model.StoreVersionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read store version: %w", err)
	}
	return row.Version, nil
}

// Write replaces the requested collections inside a single transaction. The
// version row is bumped first with a compare-and-set, so a concurrent writer
// holding the same version blocks on the row and then finds it changed.
func (s *gormStore) Write(ctx context.Context, snap *Snapshot, cols ...Collection) error {
	next := snap.Version + 1
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, snap.Version); err != nil {
			return err
		}
		for _, col := range collectionsOrAll(cols) {
			if err := replaceCollection(tx, snap, col); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	snap.Version = next
	return nil
}

func bumpVersion(tx *gorm.DB, expected uint64) error {
	res := tx.Model(&model.StoreVersion{}).
		Where("id = ? AND version = ?", model.StoreVersionID, expected).
		Update("version", expected+1)
	if res.Error != nil {
		return fmt.Errorf("failed to bump store version: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if expected != 0 {
		return ErrConflict
	}

	// A store that was never migrated through db.Migrate has no version row.
	var count int64
	if err := tx.Model(&model.StoreVersion{}).Where("id = ?", model.StoreVersionID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to read store version: %w", err)
	}
	if count > 0 {
		return ErrConflict
	}
	if err := tx.Create(&model.StoreVersion{ID: model.StoreVersionID, Version: 1}).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return nil
}

func replaceCollection(tx *gorm.DB, snap *Snapshot, col Collection) error {
	wipe := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	switch col {
	case CollectionTables:
		if err := wipe.Delete(&model.Table{}).Error; err != nil {
			return fmt.Errorf("failed to clear tables: %w", err)
		}
		if len(snap.Tables) == 0 {
			return nil
		}
		rows := make([]model.Table, len(snap.Tables))
		for i, t := range snap.Tables {
			t.Position = i
			rows[i] = t
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to write tables: %w", err)
		}
	case CollectionReservations:
		if err := wipe.Delete(&model.Reservation{}).Error; err != nil {
			return fmt.Errorf("failed to clear reservations: %w", err)
		}
		if len(snap.Reservations) == 0 {
			return nil
		}
		rows := make([]model.Reservation, len(snap.Reservations))
		for i, r := range snap.Reservations {
			r.Position = i
			rows[i] = r
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to write reservations: %w", err)
		}
	case CollectionWaitingList:
		if err := wipe.Delete(&model.WaitingListEntry{}).Error; err != nil {
			return fmt.Errorf("failed to clear waiting list: %w", err)
		}
		if len(snap.WaitingList) == 0 {
			return nil
		}
		rows := make([]model.WaitingListEntry, len(snap.WaitingList))
		for i, w := range snap.WaitingList {
			w.Position = i
			rows[i] = w
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to write waiting list: %w", err)
		}
	case CollectionConfig:
		if snap.Config == nil {
			if err := wipe.Delete(&model.ShopConfig{}).Error; err != nil {
				return fmt.Errorf("failed to clear config: %w", err)
			}
			return nil
		}
		cfg := *snap.Config
		cfg.ID = model.ShopConfigID
		if err := tx.Save(&cfg).Error; err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	default:
		return fmt.Errorf("unknown collection %q", col)
	}
	return nil
}
