package model

import "time"

// WaitingListEntry is a desired booking that could not be matched to a table.
type WaitingListEntry struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	CustomerName string    `gorm:"size:256;not null" json:"customerName"`
	Phone        string    `gorm:"size:64;not null" json:"phone"`
	Guests       int       `gorm:"not null" json:"guests"`
	Date         string    `gorm:"size:10;not null;index" json:"date"`
	StartTime    string    `gorm:"size:5;not null" json:"startTime"`
	EndTime      string    `gorm:"size:5;not null" json:"endTime"`
	Note         string    `gorm:"size:1024" json:"note,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	Position     int       `gorm:"not null;index" json:"-"`
}
