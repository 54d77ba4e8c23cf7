package booking

import (
	"context"
	"log"
	"time"

	"reservation-backend/internal/model"
	"reservation-backend/internal/parse"
	"reservation-backend/internal/store"
)

// StatusChange records one transition performed by a sweep.
type StatusChange struct {
	ReservationID string                  `json:"reservationId"`
	From          model.ReservationStatus `json:"from"`
	To            model.ReservationStatus `json:"to"`
}

// Sweep advances reservations dated today (by now's calendar date) whose
// time has passed: confirmed reservations past their grace period become
// NOSHOW and occupied reservations past their end become COMPLETED.
// Reservations from earlier dates are left alone. Nothing is written when
// no reservation qualifies, so repeated sweeps are idempotent.
func (s *Service) Sweep(ctx context.Context, now time.Time) ([]StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return withRetry("sweep", func() ([]StatusChange, error) {
		snap, cfg, err := s.load(ctx, store.CollectionReservations)
		if err != nil {
			return nil, err
		}

		today := now.Format(parse.DateLayout)
		nowMinutes := parse.MinuteOfDay(now)

		var changes []StatusChange
		for i := range snap.Reservations {
			r := &snap.Reservations[i]
			if r.Date != today {
				continue
			}

			var op Operation
			switch r.Status {
			case model.StatusConfirmed:
				start, err := parse.ParseClock(r.StartTime)
				if err != nil {
					log.Printf("[sweep] skipping reservation %s: %v", r.ID, err)
					continue
				}
				if nowMinutes > start+cfg.GracePeriodMinutes {
					op = OpMarkNoShow
				}
			case model.StatusOccupied:
				end, err := parse.ParseClock(r.EndTime)
				if err != nil {
					log.Printf("[sweep] skipping reservation %s: %v", r.ID, err)
					continue
				}
				if nowMinutes > end {
					op = OpComplete
				}
			}
			if op == "" {
				continue
			}

			next, ok := Transition(r.Status, op)
			if !ok {
				continue
			}
			changes = append(changes, StatusChange{ReservationID: r.ID, From: r.Status, To: next})
			r.Status = next
		}

		if len(changes) == 0 {
			return nil, nil
		}
		if err := s.commit(ctx, snap, store.CollectionReservations); err != nil {
			return nil, err
		}
		for _, c := range changes {
			log.Printf("[sweep] reservation %s %s -> %s", c.ReservationID, c.From, c.To)
		}
		return changes, nil
	})
}

// Sweeper runs Service.Sweep on a fixed interval.
type Sweeper struct {
	service  *Service
	clock    Clock
	interval time.Duration
}

// NewSweeper creates a sweeper that reads the time from clock.
func NewSweeper(service *Service, clock Clock, interval time.Duration) *Sweeper {
	return &Sweeper{service: service, clock: clock, interval: interval}
}

// Run sweeps once immediately and then on every interval until ctx is done.
func (sw *Sweeper) Run(ctx context.Context) {
	log.Printf("Starting status sweeper (every %s)...", sw.interval)

	sw.SweepOnce(ctx)

	timer := time.NewTimer(sw.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Status sweeper shutting down.")
			return
		case <-timer.C:
			sw.SweepOnce(ctx)
			timer.Reset(sw.interval)
		}
	}
}

// SweepOnce performs a single sweep. A failed store write is logged and
// retried on the next tick.
func (sw *Sweeper) SweepOnce(ctx context.Context) int {
	// A tick is not abandoned halfway when shutdown begins.
	changes, err := sw.service.Sweep(context.WithoutCancel(ctx), sw.clock.Now())
	if err != nil {
		log.Printf("[sweep] cycle failed, will retry next tick: %v", err)
		return 0
	}
	return len(changes)
}
