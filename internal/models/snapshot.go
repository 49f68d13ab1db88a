package models

import "time"

// Snapshot is a stored copy of the last successful live board.
type Snapshot struct {
	ID         string    `json:"id"`
	ProjectKey string    `json:"project_key"`
	Issues     []Issue   `json:"issues"`
	CreatedAt  time.Time `json:"created_at"`
}
