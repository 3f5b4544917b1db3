package chore

import (
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

// CreateInput carries the raw fields for a new chore. Frequency and
// LastCompleted are parsed here so every caller gets the same rules.
type CreateInput struct {
	Title         string
	OwnerID       *int64
	Category      string
	Frequency     string
	LastCompleted string
	IsPriority    bool
	Notes         string
}

// EditInput is a partial update; nil fields keep their current value.
type EditInput struct {
	Title         *string
	OwnerID       *int64
	Category      *string
	Frequency     *string
	LastCompleted *string
	IsPriority    *bool
	Notes         *string
}

func parseTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid("title", "is required")
	}
	return s, nil
}

// MaxFrequencyDays bounds frequency so next_due stays a representable date.
const MaxFrequencyDays = 36500

func parseFrequency(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalid("frequency", "is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalid("frequency", "%q is not a whole number of days", s)
	}
	if n < 1 {
		return 0, invalid("frequency", "must be at least 1 day, got %d", n)
	}
	if n > MaxFrequencyDays {
		return 0, invalid("frequency", "must be at most %d days, got %d", MaxFrequencyDays, n)
	}
	return n, nil
}

func parseLastCompleted(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, invalid("last_completed", "is required")
	}
	d, err := ParseDate(s)
	if err != nil {
		return time.Time{}, invalid("last_completed", "%v", err)
	}
	return d, nil
}

// buildChore validates in and returns the chore to insert. Owner existence is
// checked by the caller.
func buildChore(in CreateInput) (model.Chore, error) {
	title, err := parseTitle(in.Title)
	if err != nil {
		return model.Chore{}, err
	}
	if in.OwnerID == nil {
		return model.Chore{}, invalid("owner_id", "is required")
	}
	freq, err := parseFrequency(in.Frequency)
	if err != nil {
		return model.Chore{}, err
	}
	last, err := parseLastCompleted(in.LastCompleted)
	if err != nil {
		return model.Chore{}, err
	}
	return model.Chore{
		Title:         title,
		OwnerID:       *in.OwnerID,
		Category:      strings.TrimSpace(in.Category),
		FrequencyDays: freq,
		LastCompleted: &last,
		IsPriority:    in.IsPriority,
		Notes:         in.Notes,
	}, nil
}

// edit is a validated EditInput ready to apply.
type edit struct {
	in            EditInput
	title         string
	frequency     int
	lastCompleted time.Time
}

func parseEdit(in EditInput) (*edit, error) {
	e := &edit{in: in}
	var err error
	if in.Title != nil {
		if e.title, err = parseTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Frequency != nil {
		if e.frequency, err = parseFrequency(*in.Frequency); err != nil {
			return nil, err
		}
	}
	if in.LastCompleted != nil {
		if e.lastCompleted, err = parseLastCompleted(*in.LastCompleted); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *edit) apply(c *model.Chore) {
	if e.in.Title != nil {
		c.Title = e.title
	}
	if e.in.OwnerID != nil {
		c.OwnerID = *e.in.OwnerID
	}
	if e.in.Category != nil {
		c.Category = strings.TrimSpace(*e.in.Category)
	}
	if e.in.Frequency != nil {
		c.FrequencyDays = e.frequency
	}
	if e.in.LastCompleted != nil {
		last := e.lastCompleted
		c.LastCompleted = &last
	}
	if e.in.IsPriority != nil {
		c.IsPriority = *e.in.IsPriority
	}
	if e.in.Notes != nil {
		c.Notes = *e.in.Notes
	}
}
