package trainingplans

import "time"

// Plan is a named training plan owned by one user.
type Plan struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Duration    int       `json:"duration"`
	Difficulty  string    `json:"difficulty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Input carries the client-editable fields.
type Input struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Duration    int    `json:"duration"`
	Difficulty  string `json:"difficulty"`
}

var (
	Types        = []string{"strength", "cardio", "flexibility", "core"}
	Difficulties = []string{"beginner", "intermediate", "advanced"}
)
