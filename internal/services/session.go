package services

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/desertthunder/kxo/internal/models"
)

// SessionStore persists [models.Session] rows.
type SessionStore interface {
	FindOrCreate(baseURL string) (*models.Session, error)
	Update(session *models.Session) error
}

// CookieSession binds a persisted [models.Session] to a live cookie jar.
//
// The jar is seeded from the stored cookies when opened and written back whenever the admin flag changes.
type CookieSession struct {
	mu      sync.Mutex
	store   SessionStore
	session *models.Session
	jar     *cookiejar.Jar
	base    *url.URL
	now     func() time.Time
}

// OpenSession loads (or creates) the session row for baseURL and seeds a cookie jar from it.
// Expired cookies are dropped.
func OpenSession(store SessionStore, baseURL string) (*CookieSession, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	session, err := store.FindOrCreate(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	s := &CookieSession{store: store, session: session, jar: jar, base: base, now: time.Now}

	var cookies []*http.Cookie
	for _, c := range session.Cookies() {
		if c.Expired(s.now()) {
			continue
		}
		cookies = append(cookies, c.HTTP())
	}
	if len(cookies) > 0 {
		jar.SetCookies(base, cookies)
	}

	return s, nil
}

// NewHTTPClient returns an [http.Client] that sends and stores cookies through the session's jar.
func (s *CookieSession) NewHTTPClient() *http.Client {
	return &http.Client{Jar: s.jar}
}

// Jar returns the live cookie jar.
func (s *CookieSession) Jar() http.CookieJar {
	return s.jar
}

// ID returns the persisted session ID.
func (s *CookieSession) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.ID()
}

// BaseURL returns the API origin this session belongs to.
func (s *CookieSession) BaseURL() string {
	return s.base.String()
}

// IsAdmin returns the cached admin hint. It is never an authorization source.
func (s *CookieSession) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.IsAdmin()
}

// Session returns a snapshot of the persisted record.
func (s *CookieSession) Session() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.session
}

// MarkAdmin records the server's answer about admin status and saves the jar's cookies.
func (s *CookieSession) MarkAdmin(admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.MarkAdmin(admin, s.now())
	return s.saveLocked()
}

// Save writes the jar's current cookies back to the store.
func (s *CookieSession) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// ImportCookies places cookies copied from a browser into the jar and saves them.
func (s *CookieSession) ImportCookies(cookies []*http.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jar.SetCookies(s.base, cookies)
	return s.saveLocked()
}

// Clear expires every cookie in the jar, drops the admin hint and saves the empty session.
func (s *CookieSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*http.Cookie
	for _, c := range s.jar.Cookies(s.base) {
		expired = append(expired, &http.Cookie{Name: c.Name, Value: "", Path: "/", MaxAge: -1})
	}
	if len(expired) > 0 {
		s.jar.SetCookies(s.base, expired)
	}

	s.session.Clear()
	if err := s.store.Update(s.session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// saveLocked copies the jar's cookies for the base URL into the record. The jar only exposes name and value.
func (s *CookieSession) saveLocked() error {
	jarCookies := s.jar.Cookies(s.base)
	stored := make([]models.StoredCookie, 0, len(jarCookies))
	for _, c := range jarCookies {
		stored = append(stored, models.StoredCookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	s.session.SetCookies(stored)

	if err := s.store.Update(s.session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
