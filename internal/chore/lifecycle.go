package chore

import (
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

// Complete marks c done on today. The old completion date is kept for a
// single Undo, and the priority flag is cleared.
func Complete(c *model.Chore, today time.Time) {
	today = DateOf(today)
	c.PreviousLastCompleted = c.LastCompleted
	c.LastCompleted = &today
	c.IsPriority = false
}

// Undo restores the completion date saved by the last Complete. It does not
// restore the priority flag, and it empties the saved slot so a second Undo
// fails. On error c is left untouched.
func Undo(c *model.Chore) error {
	if c.PreviousLastCompleted == nil {
		return &NoPriorStateError{ChoreID: c.ID}
	}
	c.LastCompleted = c.PreviousLastCompleted
	c.PreviousLastCompleted = nil
	return nil
}

// TogglePriority flips the priority flag.
func TogglePriority(c *model.Chore) {
	c.IsPriority = !c.IsPriority
}
