package dto

import "time"

// LoginRequest authenticates an agent.
type LoginRequest struct {
	CompanyID int64  `json:"companyId"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Agent     AgentResponse `json:"user"`
}

// AgentResponse is the authenticated agent's public profile.
type AgentResponse struct {
	ID        string `json:"id"`
	CompanyID int64  `json:"companyId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}
