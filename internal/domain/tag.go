package domain

import "time"

// Tag labels tickets; tags with Kanban set drive board columns and are
// stripped when a ticket closes or enters the survey flow.
type Tag struct {
	ID        string
	CompanyID int64
	Name      string
	Color     string
	Kanban    bool
	CreatedAt time.Time
}
