package trainings

import "time"

// Training is a single workout owned by one user.
type Training struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"userId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Type            string    `json:"type"`
	Difficulty      string    `json:"difficulty"`
	DurationMinutes int       `json:"durationMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Input carries the client-editable fields.
type Input struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Type            string `json:"type"`
	Difficulty      string `json:"difficulty"`
	DurationMinutes int    `json:"durationMinutes"`
}

// Types lists the supported training types.
var Types = []string{"strength", "cardio", "flexibility", "core"}

// Difficulties lists the supported difficulty levels.
var Difficulties = []string{"beginner", "intermediate", "advanced"}
