package sim

import (
	"time"

	"github.com/RheinXenon/stocksim/pkg/errors"
)

// ClockState is the lifecycle state of a simulation clock.
type ClockState string

const (
	ClockStateIdle      ClockState = "IDLE"
	ClockStateRunning   ClockState = "RUNNING"
	ClockStateCompleted ClockState = "COMPLETED"
)

// Clock steps simulated time across a trading calendar. The state machine is
// Idle -> Running(d0) -> Running(d1) -> ... -> Completed; a completed clock
// accepts no further transitions. Dates are monotonically increasing and
// never revisited.
type Clock struct {
	calendar *Calendar
	state    ClockState
	index    int
}

// NewClock creates an idle clock over the given calendar.
func NewClock(calendar *Calendar) *Clock {
	return &Clock{
		calendar: calendar,
		state:    ClockStateIdle,
		index:    -1,
	}
}

// State returns the clock's lifecycle state.
func (c *Clock) State() ClockState {
	return c.state
}

// Current returns the current simulation date. Valid only while running.
func (c *Clock) Current() (time.Time, error) {
	if c.state != ClockStateRunning {
		return time.Time{}, errors.Newf(errors.ErrCodeInvalidState,
			"clock is %s, no current date", c.state)
	}

	return c.calendar.Day(c.index), nil
}

// DayNumber returns the 1-based position of the current day in the calendar.
func (c *Clock) DayNumber() int {
	return c.index + 1
}

// Advance moves the clock to the next trading day. From Idle it moves to the
// first day. When no further day exists the clock transitions to Completed
// and EndOfCalendar is returned; advancing a completed clock is a misuse and
// returns InvalidState. Both are terminal for the run and must propagate.
func (c *Clock) Advance() (time.Time, error) {
	switch c.state {
	case ClockStateCompleted:
		return time.Time{}, errors.New(errors.ErrCodeInvalidState, "cannot advance a completed clock")
	case ClockStateIdle:
		c.state = ClockStateRunning
		c.index = 0

		return c.calendar.Day(c.index), nil
	case ClockStateRunning:
		if c.index+1 >= c.calendar.Len() {
			c.state = ClockStateCompleted

			return time.Time{}, errors.New(errors.ErrCodeEndOfCalendar, "no trading days remain")
		}

		c.index++

		return c.calendar.Day(c.index), nil
	default:
		return time.Time{}, errors.Newf(errors.ErrCodeInvalidState, "unknown clock state %s", c.state)
	}
}
