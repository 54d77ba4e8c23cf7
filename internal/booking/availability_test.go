package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reservation-backend/internal/model"
)

func TestAvailability_IsFree(t *testing.T) {
	const h = 60
	testCases := []struct {
		name       string
		existing   []model.Reservation
		buffer     int
		tableID    string
		date       string
		start, end int
		exclude    string
		expected   bool
	}{
		{
			name:     "No reservations",
			tableID:  "t1",
			date:     date,
			start:    18 * h,
			end:      19 * h,
			buffer:   5,
			expected: true,
		},
		{
			name:     "Adjacent after confirmed is inside the buffer",
			existing: []model.Reservation{reservation("r", "t1", "18:00", "19:00", model.StatusConfirmed)},
			buffer:   5,
			tableID:  "t1",
			date:     date,
			start:    19 * h,
			end:      20 * h,
			expected: false,
		},
		{
			name:     "After buffer has elapsed",
			existing: []model.Reservation{reservation("r", "t1", "18:00", "19:00", model.StatusConfirmed)},
			buffer:   5,
			tableID:  "t1",
			date:     date,
			start:    19*h + 5,
			end:      20 * h,
			expected: true,
		},
		{
			name:     "Pending reservation carries no buffer",
			existing: []model.Reservation{reservation("r", "t1", "18:00", "19:00", model.StatusPending)},
			buffer:   5,
			tableID:  "t1",
			date:     date,
			start:    19 * h,
			end:      20 * h,
			expected: true,
		},
		{
			name:     "Completed reservation still blocks with buffer",
			existing: []model.Reservation{reservation("r", "t1", "18:00", "19:00", model.StatusCompleted)},
			buffer:   5,
			tableID:  "t1",
			date:     date,
			start:    19 * h,
			end:      20 * h,
			expected: false,
		},
		{
			name:     "Touching intervals without buffer do not conflict",
			existing: []model.Reservation{reservation("r", "t1", "18:00", "19:00", model.StatusOccupied)},
			buffer:   0,
			tableID:  "t1",
			date:     date,
			start:    19 * h,
			end:      20 * h,
			expected: true,
		},
		{
			name:     "Overlap",
			existing: []model.Reservation{reservation("r", "t1", "18:00", "19:00", model.StatusOccupied)},
			tableID:  "t1",
			date:     date,
			start:    18*h + 30,
			end:      19*h + 30,
			expected: false,
		},
		{
			name:     "Requested booking must clear the next start by its own buffer",
			existing: []model.Reservation{reservation("r", "t1", "19:00", "20:00", model.StatusConfirmed)},
			buffer:   5,
			tableID:  "t1",
			date:     date,
			start:    18 * h,
			end:      19 * h,
			expected: false,
		},
		{
			name:     "Cancelled, no-show and waiting list do not block",
			existing: []model.Reservation{
				reservation("a", "t1", "18:00", "19:00", model.StatusCancelled),
				reservation("b", "t1", "18:00", "19:00", model.StatusNoShow),
				reservation("c", "t1", "18:00", "19:00", model.StatusWaitingList),
			},
			buffer:   5,
			tableID:  "t1",
			date:     date,
			start:    18 * h,
			end:      19 * h,
			expected: true,
		},
		{
			name:     "Other table",
			existing: []model.Reservation{reservation("r", "t2", "18:00", "19:00", model.StatusConfirmed)},
			tableID:  "t1",
			date:     date,
			start:    18 * h,
			end:      19 * h,
			expected: true,
		},
		{
			name:     "Other date",
			existing: []model.Reservation{reservation("r", "t1", "18:00", "19:00", model.StatusConfirmed)},
			tableID:  "t1",
			date:     "2025-06-02",
			start:    18 * h,
			end:      19 * h,
			expected: true,
		},
		{
			name:     "Excluded reservation is ignored",
			existing: []model.Reservation{reservation("self", "t1", "18:00", "19:00", model.StatusOccupied)},
			buffer:   5,
			tableID:  "t1",
			date:     date,
			start:    19 * h,
			end:      20 * h,
			exclude:  "self",
			expected: true,
		},
		{
			name:     "Unreadable stored interval blocks",
			existing: []model.Reservation{reservation("r", "t1", "bad", "19:00", model.StatusConfirmed)},
			tableID:  "t1",
			date:     date,
			start:    8 * h,
			end:      9 * h,
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := Availability{Reservations: tc.existing, CleaningBufferMinutes: tc.buffer}
			assert.Equal(t, tc.expected, a.IsFree(tc.tableID, tc.date, tc.start, tc.end, tc.exclude))
		})
	}
}
