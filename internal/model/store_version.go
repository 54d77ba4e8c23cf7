package model

// StoreVersionID is the primary key of the single StoreVersion row.
const StoreVersionID = 1

// StoreVersion is bumped by every committed write. Writers compare it with
// the version they read to detect a concurrent commit by another process.
type StoreVersion struct {
	ID      uint   `gorm:"primaryKey"`
	Version uint64 `gorm:"not null"`
}
