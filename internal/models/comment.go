package models

import "time"

// TaskComment is a note left on a task.
type TaskComment struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"taskId"`
	Content     string    `json:"content"`
	AuthorEmail string    `json:"authorEmail"`
	CreatedAt   time.Time `json:"createdAt"`
}
