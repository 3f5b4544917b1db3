package model

import "time"

// Chore is a stored recurring chore. Date fields hold calendar dates as
// midnight UTC.
type Chore struct {
	ID                    int64      `json:"id"`
	Title                 string     `json:"title"`
	OwnerID               int64      `json:"owner_id"`
	OwnerName             string     `json:"owner_name"`
	Category              string     `json:"category"`
	FrequencyDays         int        `json:"frequency_days"`
	LastCompleted         *time.Time `json:"last_completed"`
	PreviousLastCompleted *time.Time `json:"previous_last_completed"`
	IsPriority            bool       `json:"is_priority"`
	Notes                 string     `json:"notes"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}
