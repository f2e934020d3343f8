package models

import (
	"fmt"
	"strings"
)

// JoinRequest is the landing page signup payload.
type JoinRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	BetaTester bool   `json:"betaTester"`
	Ambassador bool   `json:"ambassador"`
}

// Validate trims fields and requires a name and an email.
func (r *JoinRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)

	if r.Name == "" || r.Email == "" {
		return fmt.Errorf("name and email are required")
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("invalid email address: %s", r.Email)
	}
	return nil
}

// MessageResponse is the {success, message} envelope used by login, logout and signup.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Healthy reports whether the API answered with status "healthy".
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}
