package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservation-backend/internal/model"
)

func TestFindBestTable(t *testing.T) {
	tables := []model.Table{
		table("t9", "T9", 8),
		table("t5", "T5", 4),
		table("t4", "T4", 4),
		table("t1", "T1", 2),
	}
	none := Availability{CleaningBufferMinutes: 5}

	t.Run("smallest sufficient capacity wins", func(t *testing.T) {
		best := FindBestTable(tables, none, date, 18*60, 19*60, 3)
		require.NotNil(t, best)
		assert.Equal(t, "t4", best.ID, "T4 beats T5 on name")
	})

	t.Run("exact fit", func(t *testing.T) {
		best := FindBestTable(tables, none, date, 18*60, 19*60, 2)
		require.NotNil(t, best)
		assert.Equal(t, "t1", best.ID)
	})

	t.Run("busy tables are skipped", func(t *testing.T) {
		busy := Availability{
			CleaningBufferMinutes: 5,
			Reservations: []model.Reservation{
				reservation("a", "t4", "18:00", "19:00", model.StatusConfirmed),
				reservation("b", "t5", "18:30", "19:30", model.StatusOccupied),
			},
		}
		best := FindBestTable(tables, busy, date, 18*60, 19*60, 3)
		require.NotNil(t, best)
		assert.Equal(t, "t9", best.ID)
	})

	t.Run("out of service tables are never chosen", func(t *testing.T) {
		oos := []model.Table{
			{ID: "t1", Name: "T1", Capacity: 2, State: model.TableOutOfService},
			{ID: "t2", Name: "T2", Capacity: 6, State: model.TableCleaning},
		}
		best := FindBestTable(oos, none, date, 18*60, 19*60, 2)
		require.NotNil(t, best)
		assert.Equal(t, "t2", best.ID, "advisory states other than out of service do not filter")
	})

	t.Run("party too large", func(t *testing.T) {
		assert.Nil(t, FindBestTable(tables, none, date, 18*60, 19*60, 9))
	})

	t.Run("deterministic regardless of inventory order", func(t *testing.T) {
		reversed := []model.Table{tables[3], tables[2], tables[1], tables[0]}
		for i := 0; i < 5; i++ {
			a := FindBestTable(tables, none, date, 10*60, 11*60, 4)
			b := FindBestTable(reversed, none, date, 10*60, 11*60, 4)
			require.NotNil(t, a)
			require.NotNil(t, b)
			assert.Equal(t, a.ID, b.ID)
		}
	})
}
