package models

import "time"

// Organization is a tenant. Every project, task and comment is reachable from
// exactly one organization, and all access is scoped by its slug.
type Organization struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	ContactEmail string    `json:"contactEmail"`
	CreatedAt    time.Time `json:"createdAt"`
}
