package booking

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"reservation-backend/internal/model"
	"reservation-backend/internal/parse"
	"reservation-backend/internal/store"
)

// Outcome is the result kind of a booking request.
type Outcome string

const (
	OutcomeConfirmed   Outcome = "CONFIRMED"
	OutcomeWaitingList Outcome = "WAITING_LIST"
)

// CreateRequest holds the details of a booking request.
type CreateRequest struct {
	CustomerName  string
	Phone         string
	Guests        int
	Date          string
	Time          string
	Note          string
	ForceWaitlist bool
}

// CreateResult is either a confirmed reservation or a waiting list entry
// together with its position among that date's waiting entries.
type CreateResult struct {
	Outcome       Outcome                 `json:"status"`
	Reservation   *model.Reservation      `json:"reservation,omitempty"`
	WaitingEntry  *model.WaitingListEntry `json:"waitingEntry,omitempty"`
	QueuePosition int                     `json:"position,omitempty"`
}

// ExtendFailure explains why a session could not be extended.
type ExtendFailure string

const (
	ReasonNotActive         ExtendFailure = "not active"
	ReasonTableBooked       ExtendFailure = "table booked for next slot"
	ReasonExceedsMaxSession ExtendFailure = "exceeds maximum session limit"
	ReasonPastEndOfDay      ExtendFailure = "extends past end of day"
)

// ExtendResult reports the outcome of ExtendSession.
type ExtendResult struct {
	Success     bool               `json:"success"`
	Reason      ExtendFailure      `json:"reason,omitempty"`
	Reservation *model.Reservation `json:"reservation,omitempty"`
}

// PromoteResult reports the reservation created from a waiting list entry.
// OverridesConflict is set when the operator-chosen table was not free for
// the interval: promotion is an administrative override and is not blocked.
type PromoteResult struct {
	Reservation       model.Reservation `json:"reservation"`
	OverridesConflict bool              `json:"overridesConflict"`
}

func (r CreateRequest) validate() (int, error) {
	if strings.TrimSpace(r.CustomerName) == "" {
		return 0, invalid("customerName", "must not be empty")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return 0, invalid("phone", "must not be empty")
	}
	if r.Guests < 1 {
		return 0, invalid("guests", "must be at least 1")
	}
	if _, err := parse.ParseDate(r.Date); err != nil {
		return 0, invalid("date", err.Error())
	}
	start, err := parse.ParseClock(r.Time)
	if err != nil {
		return 0, invalid("time", err.Error())
	}
	if start >= parse.MinutesPerDay {
		return 0, invalid("time", "must be before 24:00")
	}
	return start, nil
}

// CreateReservation books the best-fitting free table for the request, or
// queues it on the waiting list when nothing fits or ForceWaitlist is set.
func (s *Service) CreateReservation(ctx context.Context, req CreateRequest) (CreateResult, error) {
	start, err := req.validate()
	if err != nil {
		return CreateResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return withRetry("create reservation", func() (CreateResult, error) {
		snap, cfg, err := s.load(ctx, store.CollectionTables, store.CollectionReservations, store.CollectionWaitingList)
		if err != nil {
			return CreateResult{}, err
		}
		end := start + cfg.SlotDurationMinutes
		if end > parse.MinutesPerDay {
			return CreateResult{}, invalid("time", "booking would run past 24:00")
		}

		var table *model.Table
		if !req.ForceWaitlist {
			table = FindBestTable(snap.Tables, availabilityOf(snap, cfg), req.Date, start, end, req.Guests)
		}

		now := s.clock.Now()
		if table != nil {
			res := model.Reservation{
				ID:           s.ids.NewID(),
				CustomerName: strings.TrimSpace(req.CustomerName),
				Phone:        strings.TrimSpace(req.Phone),
				Guests:       req.Guests,
				Date:         req.Date,
				StartTime:    parse.FormatClock(start),
				EndTime:      parse.FormatEnd(end),
				TableID:      table.ID,
				Note:         req.Note,
				Status:       model.StatusConfirmed,
				CreatedAt:    now,
			}
			snap.Reservations = append(snap.Reservations, res)
			if err := s.commit(ctx, snap, store.CollectionReservations); err != nil {
				return CreateResult{}, err
			}
			log.Printf("Reservation %s confirmed on table %s (%s %s-%s, %d guests)",
				res.ID, table.Name, res.Date, res.StartTime, res.EndTime, res.Guests)
			return CreateResult{Outcome: OutcomeConfirmed, Reservation: &res}, nil
		}

		entry := model.WaitingListEntry{
			ID:           s.ids.NewID(),
			CustomerName: strings.TrimSpace(req.CustomerName),
			Phone:        strings.TrimSpace(req.Phone),
			Guests:       req.Guests,
			Date:         req.Date,
			StartTime:    parse.FormatClock(start),
			EndTime:      parse.FormatEnd(end),
			Note:         req.Note,
			CreatedAt:    now,
		}
		snap.WaitingList = append(snap.WaitingList, entry)
		if err := s.commit(ctx, snap, store.CollectionWaitingList); err != nil {
			return CreateResult{}, err
		}

		// Position counts every waiting entry for the date, not only this time window.
		position := 0
		for _, w := range snap.WaitingList {
			if w.Date == req.Date {
				position++
			}
		}
		log.Printf("Waiting list entry %s queued for %s %s (position %d)", entry.ID, entry.Date, entry.StartTime, position)
		return CreateResult{Outcome: OutcomeWaitingList, WaitingEntry: &entry, QueuePosition: position}, nil
	})
}

// CheckIn marks a confirmed reservation as occupied. It returns false without
// changing anything when the reservation is not currently eligible.
func (s *Service) CheckIn(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return withRetry("check in", func() (bool, error) {
		snap, _, err := s.load(ctx, store.CollectionReservations)
		if err != nil {
			return false, err
		}
		res, err := findReservation(snap.Reservations, id)
		if err != nil {
			return false, err
		}
		next, ok := Transition(res.Status, OpCheckIn)
		if !ok {
			return false, nil
		}
		now := s.clock.Now()
		res.Status = next
		res.CheckedInAt = &now
		if err := s.commit(ctx, snap, store.CollectionReservations); err != nil {
			return false, err
		}
		return true, nil
	})
}

// ExtendSession pushes an occupied reservation's end time back by
// additionalMinutes when the table stays free and the session stays within
// the configured maximum. The reservation is untouched on failure.
func (s *Service) ExtendSession(ctx context.Context, id string, additionalMinutes int) (ExtendResult, error) {
	if additionalMinutes <= 0 {
		return ExtendResult{}, invalid("additionalMinutes", "must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return withRetry("extend session", func() (ExtendResult, error) {
		snap, cfg, err := s.load(ctx, store.CollectionReservations)
		if err != nil {
			return ExtendResult{}, err
		}
		res, err := findReservation(snap.Reservations, id)
		if err != nil {
			return ExtendResult{}, err
		}
		if _, ok := Transition(res.Status, OpExtend); !ok {
			return ExtendResult{Reason: ReasonNotActive}, nil
		}

		start, err := parse.ParseClock(res.StartTime)
		if err != nil {
			return ExtendResult{}, fmt.Errorf("reservation %s start time: %w", res.ID, err)
		}
		currentEnd, err := parse.ParseClock(res.EndTime)
		if err != nil {
			return ExtendResult{}, fmt.Errorf("reservation %s end time: %w", res.ID, err)
		}
		newEnd := currentEnd + additionalMinutes

		avail := availabilityOf(snap, cfg)
		if res.TableID == "" || !avail.IsFree(res.TableID, res.Date, currentEnd, newEnd, res.ID) {
			return ExtendResult{Reason: ReasonTableBooked}, nil
		}
		if newEnd-start > cfg.MaxSessionDurationMinutes {
			return ExtendResult{Reason: ReasonExceedsMaxSession}, nil
		}
		if newEnd > parse.MinutesPerDay {
			return ExtendResult{Reason: ReasonPastEndOfDay}, nil
		}

		res.EndTime = parse.FormatEnd(newEnd)
		if err := s.commit(ctx, snap, store.CollectionReservations); err != nil {
			return ExtendResult{}, err
		}
		extended := *res
		return ExtendResult{Success: true, Reservation: &extended}, nil
	})
}

// CancelReservation cancels a reservation. Cancelling an absent or already
// cancelled reservation is a no-op. The waiting list is not consulted.
func (s *Service) CancelReservation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retry("cancel reservation", func() error {
		snap, _, err := s.load(ctx, store.CollectionReservations)
		if err != nil {
			return err
		}
		res, err := findReservation(snap.Reservations, id)
		if err != nil {
			log.Printf("Cancel requested for unknown reservation %s; ignoring", id)
			return nil
		}
		if res.Status == model.StatusCancelled {
			return nil
		}
		next, ok := Transition(res.Status, OpCancel)
		if !ok {
			return fmt.Errorf("%w: cannot cancel a %s reservation", ErrIllegalTransition, res.Status)
		}
		res.Status = next
		return s.commit(ctx, snap, store.CollectionReservations)
	})
}

// PromoteFromWaitlist turns a waiting list entry into a confirmed reservation
// on the operator-chosen table and removes the entry. Table availability is
// not enforced; PromoteResult.OverridesConflict reports when it was bypassed.
func (s *Service) PromoteFromWaitlist(ctx context.Context, entryID, tableID string) (PromoteResult, error) {
	if strings.TrimSpace(tableID) == "" {
		return PromoteResult{}, invalid("tableId", "must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return withRetry("promote waiting entry", func() (PromoteResult, error) {
		snap, cfg, err := s.load(ctx, store.CollectionTables, store.CollectionReservations, store.CollectionWaitingList)
		if err != nil {
			return PromoteResult{}, err
		}
		idx := -1
		for i := range snap.WaitingList {
			if snap.WaitingList[i].ID == entryID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return PromoteResult{}, fmt.Errorf("%w: %s", ErrWaitingEntryNotFound, entryID)
		}
		if indexOfTable(snap.Tables, tableID) < 0 {
			return PromoteResult{}, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
		}

		entry := snap.WaitingList[idx]
		overrides := true
		start, errStart := parse.ParseClock(entry.StartTime)
		end, errEnd := parse.ParseClock(entry.EndTime)
		if errStart == nil && errEnd == nil {
			overrides = !availabilityOf(snap, cfg).IsFree(tableID, entry.Date, start, end, "")
		}

		res := model.Reservation{
			ID:           s.ids.NewID(),
			CustomerName: entry.CustomerName,
			Phone:        entry.Phone,
			Guests:       entry.Guests,
			Date:         entry.Date,
			StartTime:    entry.StartTime,
			EndTime:      entry.EndTime,
			TableID:      tableID,
			Note:         entry.Note,
			Status:       model.StatusConfirmed,
			CreatedAt:    s.clock.Now(),
			Notified:     true,
		}
		snap.Reservations = append(snap.Reservations, res)
		snap.WaitingList = append(snap.WaitingList[:idx], snap.WaitingList[idx+1:]...)
		if err := s.commit(ctx, snap, store.CollectionReservations, store.CollectionWaitingList); err != nil {
			return PromoteResult{}, err
		}
		if overrides {
			log.Printf("Waiting entry %s promoted to %s on table %s despite a conflicting booking", entryID, res.ID, tableID)
		}
		return PromoteResult{Reservation: res, OverridesConflict: overrides}, nil
	})
}

// RemoveWaitingEntry drops an entry from the waiting list.
func (s *Service) RemoveWaitingEntry(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retry("remove waiting entry", func() error {
		snap, _, err := s.load(ctx, store.CollectionWaitingList)
		if err != nil {
			return err
		}
		for i := range snap.WaitingList {
			if snap.WaitingList[i].ID == entryID {
				snap.WaitingList = append(snap.WaitingList[:i], snap.WaitingList[i+1:]...)
				return s.commit(ctx, snap, store.CollectionWaitingList)
			}
		}
		return fmt.Errorf("%w: %s", ErrWaitingEntryNotFound, entryID)
	})
}

// GetReservation looks up a single reservation.
func (s *Service) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, _, err := s.load(ctx, store.CollectionReservations)
	if err != nil {
		return model.Reservation{}, err
	}
	res, err := findReservation(snap.Reservations, id)
	if err != nil {
		return model.Reservation{}, err
	}
	return *res, nil
}

// ListReservations returns reservations for date (all dates when empty),
// ordered by date and start time.
func (s *Service) ListReservations(ctx context.Context, date string) ([]model.Reservation, error) {
	s.mu.Lock()
	snap, _, err := s.load(ctx, store.CollectionReservations)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := []model.Reservation{}
	for _, r := range snap.Reservations {
		if date == "" || r.Date == date {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// ListWaitingList returns waiting entries for date (all dates when empty)
// in the order they were queued.
func (s *Service) ListWaitingList(ctx context.Context, date string) ([]model.WaitingListEntry, error) {
	s.mu.Lock()
	snap, _, err := s.load(ctx, store.CollectionWaitingList)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := []model.WaitingListEntry{}
	for _, w := range snap.WaitingList {
		if date == "" || w.Date == date {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// TableStatus pairs a table with the reservation currently holding it on a date.
type TableStatus struct {
	model.Table
	CurrentReservation *model.Reservation `json:"currentReservation,omitempty"`
}

// TableGrid returns every table with its active reservation on date. An
// occupied reservation wins over a confirmed one; otherwise the earliest
// start is shown.
func (s *Service) TableGrid(ctx context.Context, date string) ([]TableStatus, error) {
	if _, err := parse.ParseDate(date); err != nil {
		return nil, invalid("date", err.Error())
	}

	s.mu.Lock()
	snap, _, err := s.load(ctx, store.CollectionTables, store.CollectionReservations)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	current := make(map[string]model.Reservation)
	for _, r := range snap.Reservations {
		if r.Date != date || (r.Status != model.StatusConfirmed && r.Status != model.StatusOccupied) {
			continue
		}
		prev, seen := current[r.TableID]
		if !seen || outranks(r, prev) {
			current[r.TableID] = r
		}
	}

	grid := make([]TableStatus, 0, len(snap.Tables))
	for _, t := range snap.Tables {
		ts := TableStatus{Table: t}
		if r, ok := current[t.ID]; ok {
			ts.CurrentReservation = &r
		}
		grid = append(grid, ts)
	}
	return grid, nil
}

func outranks(a, b model.Reservation) bool {
	if (a.Status == model.StatusOccupied) != (b.Status == model.StatusOccupied) {
		return a.Status == model.StatusOccupied
	}
	return a.StartTime < b.StartTime
}

func findReservation(reservations []model.Reservation, id string) (*model.Reservation, error) {
	for i := range reservations {
		if reservations[i].ID == id {
			return &reservations[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrReservationNotFound, id)
}
