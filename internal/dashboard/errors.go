package dashboard

import (
	"errors"
	"fmt"
)

// Kind classifies dashboard failures.
type Kind int

const (
	AuthenticationFailed Kind = iota + 1
	VerificationTransportError
	WaitlistLoadError
	LogoutTransportError
)

func (k Kind) String() string {
	switch k {
	case AuthenticationFailed:
		return "authentication_failed"
	case VerificationTransportError:
		return "verification_transport_error"
	case WaitlistLoadError:
		return "waitlist_load_error"
	case LogoutTransportError:
		return "logout_transport_error"
	default:
		return "unknown"
	}
}

// User-visible messages.
const (
	MsgVerificationFailed = "Verification failed. Please log in again."
	MsgFetchFailed        = "Failed to fetch waitlist"
	MsgFetchError         = "Error fetching waitlist."
)

// Error is a dashboard failure. Message is what the view displays; it is empty for AuthenticationFailed.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrAuthenticationFailed) works on wrapped values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	// ErrAuthenticationFailed matches the error returned when the API says the session is not an admin.
	ErrAuthenticationFailed = &Error{Kind: AuthenticationFailed}

	ErrRefreshInFlight   = errors.New("a waitlist request is already in flight")
	ErrRefreshThrottled  = errors.New("refresh requested too soon")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// MessageOf returns the user-visible message carried by err, if any.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
