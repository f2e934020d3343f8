package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/kxo/internal/models"
	"github.com/desertthunder/kxo/internal/shared"
)

var _ WaitlistAPI = (*WaitlistService)(nil)

type verifyResponse struct {
	Authenticated bool `json:"authenticated"`
}

type waitlistResponse struct {
	Success bool                   `json:"success"`
	Data    []models.WaitlistEntry `json:"data"`
	Message string                 `json:"message,omitempty"`
}

// WaitlistService implements [WaitlistAPI] over an [APIService].
type WaitlistService struct {
	api *APIService
}

// NewWaitlistService creates a new [WaitlistService].
func NewWaitlistService(api *APIService) *WaitlistService {
	return &WaitlistService{api: api}
}

// BaseURL returns the API origin.
func (s *WaitlistService) BaseURL() string {
	return s.api.BaseURL()
}

// VerifySession calls GET /api/admin-verify.
//
// A missing or false "authenticated" field means not authenticated. Non-JSON bodies are errors.
func (s *WaitlistService) VerifySession(ctx context.Context) (bool, error) {
	resp, err := s.api.Get(ctx, PathVerify)
	if err != nil {
		return false, err
	}

	var body verifyResponse
	if err := resp.Decode(&body); err != nil {
		return false, err
	}
	return body.Authenticated, nil
}

// FetchWaitlist calls GET /api/waitlist.
//
// The API answers 401 with {success: false} when the session is not an admin; both that and a 200 with
// success false come back as [*shared.APIError]. Bodies that are not the envelope wrap [shared.ErrAPIResponse].
func (s *WaitlistService) FetchWaitlist(ctx context.Context) ([]models.WaitlistEntry, error) {
	resp, err := s.api.Get(ctx, PathWaitlist)
	if err != nil {
		return nil, err
	}

	var body waitlistResponse
	if err := resp.Decode(&body); err != nil {
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, &shared.APIError{StatusCode: resp.StatusCode}
		}
		return nil, err
	}

	if !body.Success {
		return nil, &shared.APIError{StatusCode: resp.StatusCode, Message: body.Message}
	}

	if body.Data == nil {
		body.Data = []models.WaitlistEntry{}
	}
	return body.Data, nil
}

// Login calls POST /api/admin-login with the password.
//
// A rejected password is a [*shared.APIError] carrying the server message or "Invalid password".
func (s *WaitlistService) Login(ctx context.Context, password string) (*models.MessageResponse, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}

	resp, err := s.api.PostJSON(ctx, PathLogin, map[string]string{"password": password})
	if err != nil {
		return nil, err
	}

	var body models.MessageResponse
	if err := resp.Decode(&body); err != nil {
		if !resp.OK() {
			return nil, &shared.APIError{StatusCode: resp.StatusCode, Message: MsgInvalidPassword}
		}
		return nil, err
	}

	if !body.Success {
		return nil, &shared.APIError{StatusCode: resp.StatusCode, Message: messageOr(body.Message, MsgInvalidPassword)}
	}
	return &body, nil
}

// Logout calls POST /api/admin-logout. Only transport failures are reported.
func (s *WaitlistService) Logout(ctx context.Context) error {
	_, err := s.api.Post(ctx, PathLogout, []byte("{}"))
	return err
}

// Join calls POST /api/join-waitlist after validating the request locally.
func (s *WaitlistService) Join(ctx context.Context, req models.JoinRequest) (*models.MessageResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	resp, err := s.api.PostJSON(ctx, PathJoin, req)
	if err != nil {
		return nil, err
	}

	var body models.MessageResponse
	if err := resp.Decode(&body); err != nil {
		if !resp.OK() {
			return nil, &shared.APIError{StatusCode: resp.StatusCode, Message: MsgJoinFailed}
		}
		return nil, err
	}

	if !body.Success {
		return nil, &shared.APIError{StatusCode: resp.StatusCode, Message: messageOr(body.Message, MsgJoinFailed)}
	}
	return &body, nil
}

// Health calls GET /api/health.
func (s *WaitlistService) Health(ctx context.Context) (*models.HealthStatus, error) {
	resp, err := s.api.Get(ctx, PathHealth)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	var body models.HealthStatus
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
