package api

import "time"

// CreateSessionRequest represents the request payload for creating an interview session
type CreateSessionRequest struct {
	TargetRole string `json:"target_role" validate:"required,max=100"`
	UserName   string `json:"user_name" validate:"max=100"`
}

// CreateSessionResponse represents the response payload for a created session
type CreateSessionResponse struct {
	SessionID  string     `json:"session_id"`
	TargetRole string     `json:"target_role"`
	Token      string     `json:"token,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// RolesResponse lists the target roles with a dedicated interviewer persona
type RolesResponse struct {
	Roles []string `json:"roles"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
