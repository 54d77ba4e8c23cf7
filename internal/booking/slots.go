package booking

import (
	"fmt"

	"reservation-backend/internal/model"
	"reservation-backend/internal/parse"
)

// PlanSlots lists every bookable start time from the opening time (inclusive)
// to the closing time (exclusive), spaced by the slot duration. A slot is
// available when at least one table could take guests for the whole slot.
func PlanSlots(cfg model.ShopConfig, tables []model.Table, avail Availability, date string, guests int) ([]model.TimeSlot, error) {
	open, err := parse.ParseClock(cfg.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("config open time: %w", err)
	}
	closing, err := parse.ParseClock(cfg.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("config close time: %w", err)
	}
	if cfg.SlotDurationMinutes <= 0 {
		return nil, fmt.Errorf("config slot duration must be positive, got %d", cfg.SlotDurationMinutes)
	}

	slots := []model.TimeSlot{}
	for current := open; current < closing; current += cfg.SlotDurationMinutes {
		end := current + cfg.SlotDurationMinutes
		// A booking may not run past the end of the day.
		available := end <= parse.MinutesPerDay &&
			FindBestTable(tables, avail, date, current, end, guests) != nil
		slots = append(slots, model.TimeSlot{
			Time:      parse.FormatClock(current),
			Available: available,
		})
	}
	return slots, nil
}
