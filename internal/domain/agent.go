package domain

import "time"

// Agent is a human attendant tickets can be assigned to.
type Agent struct {
	ID              string
	CompanyID       int64
	Name            string
	Email           string
	PasswordHash    string
	FarewellMessage string
	Online          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
