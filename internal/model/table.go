package model

import "time"

// TableState is an advisory tag describing a table's physical condition.
type TableState string

const (
	TableAvailable    TableState = "AVAILABLE"
	TableReserved     TableState = "RESERVED"
	TableOccupied     TableState = "OCCUPIED"
	TableCleaning     TableState = "CLEANING"
	TableOutOfService TableState = "OUT_OF_SERVICE"
)

// Valid reports whether s is one of the known table states.
func (s TableState) Valid() bool {
	switch s {
	case TableAvailable, TableReserved, TableOccupied, TableCleaning, TableOutOfService:
		return true
	}
	return false
}

// Table represents a physical seating unit.
type Table struct {
	ID        string     `gorm:"primaryKey;size:64" json:"id"`
	Name      string     `gorm:"size:128;not null" json:"name"`
	Capacity  int        `gorm:"not null" json:"capacity"`
	State     TableState `gorm:"size:32;not null" json:"state"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
	Position  int        `gorm:"not null;index" json:"-"`
}
