package models

import (
	"encoding/json"
	"time"
)

// ProjectStatus represents the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusArchived  ProjectStatus = "ARCHIVED"
)

// ProjectStatuses lists every accepted project status in display order.
var ProjectStatuses = []ProjectStatus{
	ProjectStatusActive,
	ProjectStatusOnHold,
	ProjectStatusCompleted,
	ProjectStatusArchived,
}

// Valid reports whether s is one of the known project statuses.
func (s ProjectStatus) Valid() bool {
	for _, v := range ProjectStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DateLayout is the wire and storage format of a project due date.
const DateLayout = "2006-01-02"

// Project belongs to one organization and owns tasks.
type Project struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organizationId"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Status         ProjectStatus `json:"status"`
	DueDate        *time.Time    `json:"dueDate,omitempty"` // date only, UTC midnight
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`

	// Derived, filled by list reads.
	TaskCount      int     `json:"taskCount"`
	CompletedTasks int     `json:"completedTasks"`
	CompletionRate float64 `json:"completionRate"`
}

// MarshalJSON renders DueDate in DateLayout.
func (p Project) MarshalJSON() ([]byte, error) {
	type plain Project
	out := struct {
		plain
		DueDate *string `json:"dueDate,omitempty"`
	}{plain: plain(p)}
	if p.DueDate != nil {
		d := p.DueDate.Format(DateLayout)
		out.DueDate = &d
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts DueDate in DateLayout.
func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	in := struct {
		*plain
		DueDate *string `json:"dueDate"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.DueDate = nil
	if in.DueDate != nil && *in.DueDate != "" {
		t, err := time.ParseInLocation(DateLayout, *in.DueDate, time.UTC)
		if err != nil {
			return err
		}
		p.DueDate = &t
	}
	return nil
}
