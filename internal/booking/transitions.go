package booking

import "reservation-backend/internal/model"

// Operation names an action that may change a reservation's status.
type Operation string

const (
	OpCheckIn    Operation = "check-in"
	OpExtend     Operation = "extend"
	OpCancel     Operation = "cancel"
	OpMarkNoShow Operation = "mark-no-show"
	OpComplete   Operation = "complete"
)

// transitions maps each status to the operations legal from it and the
// resulting status. Terminal statuses have no entry.
var transitions = map[model.ReservationStatus]map[Operation]model.ReservationStatus{
	model.StatusPending: {
		OpCancel: model.StatusCancelled,
	},
	model.StatusConfirmed: {
		OpCheckIn:    model.StatusOccupied,
		OpCancel:     model.StatusCancelled,
		OpMarkNoShow: model.StatusNoShow,
	},
	model.StatusOccupied: {
		OpExtend:   model.StatusOccupied,
		OpComplete: model.StatusCompleted,
	},
}

// operationOrder fixes the order AllowedOperations reports in.
var operationOrder = []Operation{OpCheckIn, OpExtend, OpCancel, OpMarkNoShow, OpComplete}

// Transition returns the status reached by applying op to from, and whether
// op is legal at all.
func Transition(from model.ReservationStatus, op Operation) (model.ReservationStatus, bool) {
	to, ok := transitions[from][op]
	return to, ok
}

// AllowedOperations lists the operations legal from status.
func AllowedOperations(status model.ReservationStatus) []Operation {
	ops := []Operation{}
	for _, op := range operationOrder {
		if _, ok := transitions[status][op]; ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// IsTerminal reports whether no operation can leave status.
func IsTerminal(status model.ReservationStatus) bool {
	return len(transitions[status]) == 0
}
