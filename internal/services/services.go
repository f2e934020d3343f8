// package services implements the waitlist API client and the cookie-backed admin session
package services

import (
	"context"

	"github.com/desertthunder/kxo/internal/models"
)

// API endpoint paths.
const (
	PathVerify   = "/api/admin-verify"
	PathWaitlist = "/api/waitlist"
	PathLogin    = "/api/admin-login"
	PathLogout   = "/api/admin-logout"
	PathJoin     = "/api/join-waitlist"
	PathHealth   = "/api/health"
)

// Fallback messages used when the API omits one.
const (
	MsgInvalidPassword = "Invalid password"
	MsgNetworkError    = "Network error. Please try again."
	MsgJoinFailed      = "An error occurred. Please try again."
)

// WaitlistAPI is the contract of the KanairoXO waitlist API.
type WaitlistAPI interface {
	// VerifySession reports whether the current session is an authenticated admin.
	VerifySession(ctx context.Context) (bool, error)

	// FetchWaitlist returns all registrants. A {success: false} answer is a [*shared.APIError].
	FetchWaitlist(ctx context.Context) ([]models.WaitlistEntry, error)

	// Login exchanges the admin password for a session cookie.
	Login(ctx context.Context, password string) (*models.MessageResponse, error)

	// Logout ends the server session. The response body is ignored.
	Logout(ctx context.Context) error

	// Join registers a new waitlist member.
	Join(ctx context.Context, req models.JoinRequest) (*models.MessageResponse, error)

	// Health reports the API's health endpoint.
	Health(ctx context.Context) (*models.HealthStatus, error)
}
