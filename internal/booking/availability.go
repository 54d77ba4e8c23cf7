package booking

import (
	"reservation-backend/internal/model"
	"reservation-backend/internal/parse"
)

// Availability answers table conflict questions against one consistent view
// of the reservation collection.
type Availability struct {
	Reservations          []model.Reservation
	CleaningBufferMinutes int
}

// IsFree reports whether tableID is free on date for [start, end). A
// reservation blocks its own interval plus the cleaning buffer after its end;
// PENDING reservations block without the buffer. The requested interval is a
// firm booking, so its own buffer must also clear the start of any later
// reservation. Touching intervals do not conflict when the buffer is zero.
// Reservations that do not hold a table (cancelled, no-show, waiting list)
// and excludeID are ignored.
func (a Availability) IsFree(tableID, date string, start, end int, excludeID string) bool {
	for _, r := range a.Reservations {
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if r.TableID != tableID || r.Date != date || !r.Status.HoldsTable() {
			continue
		}
		blockedStart, blockedEnd, ok := a.blocked(r)
		if !ok {
			// A stored interval we cannot read is treated as blocking the whole day.
			return false
		}
		if start < blockedEnd && end+a.CleaningBufferMinutes > blockedStart {
			return false
		}
	}
	return true
}

func (a Availability) blocked(r model.Reservation) (int, int, bool) {
	start, err := parse.ParseClock(r.StartTime)
	if err != nil {
		return 0, 0, false
	}
	end, err := parse.ParseClock(r.EndTime)
	if err != nil {
		return 0, 0, false
	}
	if r.Status != model.StatusPending {
		end += a.CleaningBufferMinutes
	}
	return start, end, true
}
