package store

import "reservation-backend/internal/model"

// Collection names one of the persisted entity collections.
type Collection string

const (
	CollectionTables       Collection = "tables"
	CollectionReservations Collection = "reservations"
	CollectionWaitingList  Collection = "waiting_list"
	CollectionConfig       Collection = "config"
)

// AllCollections lists every collection in a fixed order.
var AllCollections = []Collection{
	CollectionTables,
	CollectionReservations,
	CollectionWaitingList,
	CollectionConfig,
}

// Snapshot holds the contents of one or more collections. Collections that
// were not read are left nil. A nil Config means no configuration is stored.
// Version is the store version the snapshot was read at.
type Snapshot struct {
	Version      uint64
	Tables       []model.Table
	Reservations []model.Reservation
	WaitingList  []model.WaitingListEntry
	Config       *model.ShopConfig
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{Version: s.Version}
	if s.Tables != nil {
		out.Tables = append([]model.Table(nil), s.Tables...)
	}
	if s.Reservations != nil {
		out.Reservations = make([]model.Reservation, len(s.Reservations))
		for i, r := range s.Reservations {
			if r.CheckedInAt != nil {
				at := *r.CheckedInAt
				r.CheckedInAt = &at
			}
			out.Reservations[i] = r
		}
	}
	if s.WaitingList != nil {
		out.WaitingList = append([]model.WaitingListEntry(nil), s.WaitingList...)
	}
	if s.Config != nil {
		cfg := *s.Config
		out.Config = &cfg
	}
	return out
}

func collectionsOrAll(cols []Collection) []Collection {
	if len(cols) == 0 {
		return AllCollections
	}
	return cols
}
