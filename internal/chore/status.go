package chore

import (
	"fmt"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

type Status string

const (
	StatusOverdue           Status = "Overdue"
	StatusDueSoon           Status = "Due Soon"
	StatusCompletedRecently Status = "Completed Recently"
	StatusNA                Status = "N/A"
)

const (
	// longCycleDays is the frequency above which a chore gets the long
	// lookahead window.
	longCycleDays  = 30
	shortLookahead = 14
	longLookahead  = 30
)

// View is a chore together with the fields derived from it for one date.
type View struct {
	model.Chore
	NextDue *time.Time
	Status  Status
}

// NextDue returns last completion plus the frequency, or nil when either is
// missing.
func NextDue(lastCompleted *time.Time, frequencyDays int) *time.Time {
	if lastCompleted == nil || frequencyDays == 0 {
		return nil
	}
	due := AddDays(*lastCompleted, frequencyDays)
	return &due
}

// Lookahead returns how many days before its due date a chore counts as due soon.
func Lookahead(frequencyDays int) int {
	if frequencyDays > longCycleDays {
		return longLookahead
	}
	return shortLookahead
}

// ComputeStatus classifies a chore for the given calendar date.
func ComputeStatus(lastCompleted *time.Time, frequencyDays int, today time.Time) Status {
	today = DateOf(today)

	due := NextDue(lastCompleted, frequencyDays)
	if due == nil {
		return StatusNA
	}
	if due.Before(today) {
		return StatusOverdue
	}
	if !due.After(AddDays(today, Lookahead(frequencyDays))) {
		return StatusDueSoon
	}
	return StatusCompletedRecently
}

// Derive computes the view of c for today. A negative frequency is stored
// data this package never writes, so it is reported rather than classified.
func Derive(c model.Chore, today time.Time) (View, error) {
	if c.FrequencyDays < 0 {
		return View{}, fmt.Errorf("chore %d: frequency %d: %w", c.ID, c.FrequencyDays, ErrCorruptRecord)
	}
	return View{
		Chore:   c,
		NextDue: NextDue(c.LastCompleted, c.FrequencyDays),
		Status:  ComputeStatus(c.LastCompleted, c.FrequencyDays, today),
	}, nil
}

// DeriveAll derives every chore, failing on the first corrupt record.
func DeriveAll(chores []model.Chore, today time.Time) ([]View, error) {
	views := make([]View, 0, len(chores))
	for _, c := range chores {
		v, err := Derive(c, today)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
