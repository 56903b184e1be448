package tracker

import (
	"time"

	"github.com/joescharf/tracker/internal/models"
)

// ParseProjectDueDate parses a YYYY-MM-DD project due date. An empty
// string yields nil.
func ParseProjectDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(models.DateLayout, s, time.UTC)
	if err != nil {
		return nil, invalidf("invalid dueDate %q: expected YYYY-MM-DD", s)
	}
	return &t, nil
}

// ParseTaskDueDate parses an RFC 3339 task due date. A bare YYYY-MM-DD is
// accepted as midnight UTC. An empty string yields nil.
func ParseTaskDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.ParseInLocation(models.DateLayout, s, time.UTC); err == nil {
		return &t, nil
	}
	return nil, invalidf("invalid dueDate %q: expected RFC 3339", s)
}

// SetDueDate applies a wire due date to the patch; "" clears it.
func (p *ProjectPatch) SetDueDate(s string) error {
	if s == "" {
		p.ClearDueDate = true
		return nil
	}
	t, err := ParseProjectDueDate(s)
	if err != nil {
		return err
	}
	p.DueDate = t
	return nil
}

// SetDueDate applies a wire due date to the patch; "" clears it.
func (p *TaskPatch) SetDueDate(s string) error {
	if s == "" {
		p.ClearDueDate = true
		return nil
	}
	t, err := ParseTaskDueDate(s)
	if err != nil {
		return err
	}
	p.DueDate = t
	return nil
}
