package domain

import "time"

// Queue is a routing bucket tickets are assigned to. Read-only reference
// data for the routing engine.
type Queue struct {
	ID              string
	CompanyID       int64
	Name            string
	Color           string
	GreetingMessage string
	Chatbots        []Chatbot
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Chatbot is a scripted sub-menu attached to a queue.
type Chatbot struct {
	ID              string
	QueueID         string
	Name            string
	GreetingMessage string
	CreatedAt       time.Time
}
