package booking

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current wall-clock time in the venue's location.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system time and converts it to Location.
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the clock's location (local time when unset).
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// IDGenerator produces identifiers for new entities.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random UUIDv4 strings.
type UUIDGenerator struct{}

// NewID returns a fresh UUID.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Notifier receives a signal after every committed change.
type Notifier interface {
	Changed()
}

type noopNotifier struct{}

func (noopNotifier) Changed() {}
