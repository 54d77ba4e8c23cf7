package model

// ShopConfigID is the primary key of the single persisted ShopConfig row.
const ShopConfigID = 1

// ShopConfig holds the venue's operating parameters.
type ShopConfig struct {
	ID                        uint   `gorm:"primaryKey" json:"-"`
	OpenTime                  string `gorm:"size:5;not null" json:"openTime"`
	CloseTime                 string `gorm:"size:5;not null" json:"closeTime"`
	SlotDurationMinutes       int    `gorm:"not null" json:"slotDurationMinutes"`
	GracePeriodMinutes        int    `gorm:"not null" json:"gracePeriodMinutes"`
	CleaningBufferMinutes     int    `gorm:"not null" json:"cleaningBufferMinutes"`
	MaxSessionDurationMinutes int    `gorm:"not null" json:"maxSessionDurationMinutes"`
}

// TimeSlot is a read-only projection of a bookable start time.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}
