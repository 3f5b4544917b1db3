package handler

import (
	"time"

	"github.com/dukerupert/chorechart/internal/chore"
)

// choreResponse is the wire form of a chore. Calendar dates are YYYY-MM-DD
// and absent dates are null.
type choreResponse struct {
	ID                    int64     `json:"id"`
	Title                 string    `json:"title"`
	OwnerID               int64     `json:"owner_id"`
	OwnerName             string    `json:"owner_name"`
	Category              string    `json:"category"`
	FrequencyDays         int       `json:"frequency_days"`
	LastCompleted         *string   `json:"last_completed"`
	PreviousLastCompleted *string   `json:"previous_last_completed"`
	NextDue               *string   `json:"next_due"`
	Status                string    `json:"status"`
	IsPriority            bool      `json:"is_priority"`
	Notes                 string    `json:"notes"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func dateString(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := chore.FormatDate(d)
	return &s
}

func presentChore(v chore.View) choreResponse {
	return choreResponse{
		ID:                    v.ID,
		Title:                 v.Title,
		OwnerID:               v.OwnerID,
		OwnerName:             v.OwnerName,
		Category:              v.Category,
		FrequencyDays:         v.FrequencyDays,
		LastCompleted:         dateString(v.LastCompleted),
		PreviousLastCompleted: dateString(v.PreviousLastCompleted),
		NextDue:               dateString(v.NextDue),
		Status:                string(v.Status),
		IsPriority:            v.IsPriority,
		Notes:                 v.Notes,
		CreatedAt:             v.CreatedAt,
		UpdatedAt:             v.UpdatedAt,
	}
}

func presentChores(views []chore.View) []choreResponse {
	out := make([]choreResponse, len(views))
	for i, v := range views {
		out[i] = presentChore(v)
	}
	return out
}
