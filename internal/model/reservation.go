package model

import "time"

// ReservationStatus is the lifecycle state of a Reservation.
type ReservationStatus string

const (
	StatusPending     ReservationStatus = "PENDING"
	StatusConfirmed   ReservationStatus = "CONFIRMED"
	StatusOccupied    ReservationStatus = "OCCUPIED"
	StatusCompleted   ReservationStatus = "COMPLETED"
	StatusCancelled   ReservationStatus = "CANCELLED"
	StatusNoShow      ReservationStatus = "NOSHOW"
	StatusWaitingList ReservationStatus = "WAITING_LIST"
)

// HoldsTable reports whether a reservation in this status occupies its table
// for conflict purposes.
func (s ReservationStatus) HoldsTable() bool {
	switch s {
	case StatusCancelled, StatusNoShow, StatusWaitingList:
		return false
	}
	return true
}

// Reservation is a confirmed or historical booking bound to one table and
// one contiguous interval on one date.
type Reservation struct {
	ID           string            `gorm:"primaryKey;size:64" json:"id"`
	CustomerName string            `gorm:"size:256;not null" json:"customerName"`
	Phone        string            `gorm:"size:64;not null" json:"phone"`
	Guests       int               `gorm:"not null" json:"guests"`
	Date         string            `gorm:"size:10;not null;index" json:"date"`
	StartTime    string            `gorm:"size:5;not null" json:"startTime"`
	EndTime      string            `gorm:"size:5;not null" json:"endTime"`
	TableID      string            `gorm:"size:64;index" json:"tableId,omitempty"`
	Note         string            `gorm:"size:1024" json:"note,omitempty"`
	Status       ReservationStatus `gorm:"size:32;not null;index" json:"status"`
	CreatedAt    time.Time         `gorm:"not null" json:"createdAt"`
	CheckedInAt  *time.Time        `json:"checkedInAt,omitempty"`
	Notified     bool              `gorm:"not null;default:false" json:"notified"`
	Position     int               `gorm:"not null;index" json:"-"`
}
