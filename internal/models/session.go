package models

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// StoredCookie is the persisted form of an [http.Cookie].
type StoredCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

// NewStoredCookie converts an [http.Cookie].
func NewStoredCookie(c *http.Cookie) StoredCookie {
	return StoredCookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
}

// HTTP converts back to an [http.Cookie].
func (c StoredCookie) HTTP() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
}

// Expired reports whether the cookie carries an expiry before now.
func (c StoredCookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && c.Expires.Before(now)
}

// Session is the local record of an admin session against one API base URL.
//
// isAdmin is a cache hint used to pick the first screen; the server's admin-verify answer is authoritative.
type Session struct {
	id         string
	baseURL    string
	cookies    []StoredCookie
	isAdmin    bool
	verifiedAt *time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSession creates a new Session for baseURL. The ID is assigned by the repository.
func NewSession(baseURL string) *Session {
	now := time.Now().UTC()
	return &Session{
		baseURL:   baseURL,
		cookies:   []StoredCookie{},
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Session) ID() string                 { return s.id }
func (s *Session) BaseURL() string            { return s.baseURL }
func (s *Session) IsAdmin() bool              { return s.isAdmin }
func (s *Session) VerifiedAt() *time.Time     { return s.verifiedAt }
func (s *Session) CreatedAt() time.Time       { return s.createdAt }
func (s *Session) UpdatedAt() time.Time       { return s.updatedAt }
func (s *Session) Cookies() []StoredCookie    { return append([]StoredCookie(nil), s.cookies...) }
func (s *Session) SetID(id string)            { s.id = id }
func (s *Session) SetCreatedAt(t time.Time)   { s.createdAt = t }
func (s *Session) SetUpdatedAt(t time.Time)   { s.updatedAt = t }
func (s *Session) SetVerifiedAt(t *time.Time) { s.verifiedAt = t }

// SetCookies replaces the stored cookies.
func (s *Session) SetCookies(cookies []StoredCookie) {
	s.cookies = append([]StoredCookie(nil), cookies...)
}

// MarkAdmin records the latest known admin status. A true value also stamps the verification time.
func (s *Session) MarkAdmin(admin bool, at time.Time) {
	s.isAdmin = admin
	if admin {
		at = at.UTC()
		s.verifiedAt = &at
	}
}

// Clear drops cookies and the admin hint, as done on logout.
func (s *Session) Clear() {
	s.cookies = []StoredCookie{}
	s.isAdmin = false
	s.verifiedAt = nil
}

// Validate checks that the session points at an absolute http(s) URL.
func (s *Session) Validate() error {
	if s.baseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	return nil
}

// ExportRecord is one CSV export written to disk.
type ExportRecord struct {
	id         string
	sessionID  string
	path       string
	rows       int
	searchTerm string
	createdAt  time.Time
}

// NewExportRecord creates a record for a file at path holding rows data rows.
func NewExportRecord(sessionID, path string, rows int, searchTerm string) *ExportRecord {
	return &ExportRecord{
		sessionID:  sessionID,
		path:       path,
		rows:       rows,
		searchTerm: searchTerm,
		createdAt:  time.Now().UTC(),
	}
}

func (e *ExportRecord) ID() string               { return e.id }
func (e *ExportRecord) SessionID() string        { return e.sessionID }
func (e *ExportRecord) Path() string             { return e.path }
func (e *ExportRecord) Rows() int                { return e.rows }
func (e *ExportRecord) SearchTerm() string       { return e.searchTerm }
func (e *ExportRecord) CreatedAt() time.Time     { return e.createdAt }
func (e *ExportRecord) SetID(id string)          { e.id = id }
func (e *ExportRecord) SetCreatedAt(t time.Time) { e.createdAt = t }

// Validate checks required fields.
func (e *ExportRecord) Validate() error {
	if e.path == "" {
		return fmt.Errorf("export path is required")
	}
	if e.rows < 0 {
		return fmt.Errorf("export rows must not be negative")
	}
	return nil
}
