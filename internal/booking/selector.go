package booking

import (
	"sort"
	"strings"

	"reservation-backend/internal/model"
)

// FindBestTable picks the smallest in-service table that seats guests and is
// free for [start, end) on date. Ties on capacity go to the lexically smaller
// name. It returns nil when nothing fits.
func FindBestTable(tables []model.Table, avail Availability, date string, start, end, guests int) *model.Table {
	var candidates []model.Table
	for _, t := range tables {
		if t.State == model.TableOutOfService || t.Capacity < guests {
			continue
		}
		if !avail.IsFree(t.ID, date, start, end, "") {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Capacity != candidates[j].Capacity {
			return candidates[i].Capacity < candidates[j].Capacity
		}
		return strings.Compare(candidates[i].Name, candidates[j].Name) < 0
	})
	best := candidates[0]
	return &best
}
