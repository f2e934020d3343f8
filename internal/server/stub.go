package server

import (
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kxo/internal/models"
	"github.com/desertthunder/kxo/internal/shared"
)

// SessionCookie is the name of the cookie StubAPI issues on login.
const SessionCookie = "session"

// stubEntry mirrors the reference backend's row encoding: snake_case flags and RFC 1123 dates.
type stubEntry struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      *string `json:"phone"`
	BetaTester bool    `json:"beta_tester"`
	Ambassador bool    `json:"ambassador"`
	CreatedAt  string  `json:"created_at"`
}

func toStubEntry(e models.WaitlistEntry) stubEntry {
	var phone *string
	if e.HasPhone() {
		p := e.Phone
		phone = &p
	}
	return stubEntry{
		ID:         e.ID,
		Name:       e.Name,
		Email:      e.Email,
		Phone:      phone,
		BetaTester: e.BetaTester,
		Ambassador: e.Ambassador,
		CreatedAt:  e.CreatedAt.UTC().Format(http.TimeFormat),
	}
}

// StubAPI is an in-memory implementation of the waitlist API with a password-protected admin session.
type StubAPI struct {
	mu       sync.Mutex
	password string
	entries  []models.WaitlistEntry
	nextID   int64
	sessions map[string]bool
	logger   *log.Logger
	now      func() time.Time
}

var _ Handler = (*StubAPI)(nil)

// NewStubAPI creates a [StubAPI] that accepts password for admin login.
func NewStubAPI(password string, logger *log.Logger) *StubAPI {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &StubAPI{
		password: password,
		nextID:   1,
		sessions: make(map[string]bool),
		logger:   logger,
		now:      time.Now,
	}
}

// Routes returns the API's ServeMux patterns.
func (s *StubAPI) Routes() []string {
	return []string{
		"GET /api/health",
		"GET /api/admin-verify",
		"GET /api/waitlist",
		"POST /api/admin-login",
		"POST /api/admin-logout",
		"POST /api/join-waitlist",
	}
}

// Seed appends entries, assigning IDs and creation times where missing.
func (s *StubAPI) Seed(entries ...models.WaitlistEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.addLocked(e)
	}
}

// Entries returns the stored waitlist, newest first.
func (s *StubAPI) Entries() []models.WaitlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// ServeHTTP dispatches to the endpoint for the request's method and path.
func (s *StubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method + " " + r.URL.Path {
	case "GET /api/health":
		writeJSON(w, http.StatusOK, models.HealthStatus{Status: "healthy", Message: "KanairoXO API is running"})
	case "GET /api/admin-verify":
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": s.isAdmin(r)})
	case "GET /api/waitlist":
		s.waitlist(w, r)
	case "POST /api/admin-login":
		s.login(w, r)
	case "POST /api/admin-logout":
		s.logout(w, r)
	case "POST /api/join-waitlist":
		s.join(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *StubAPI) waitlist(w http.ResponseWriter, r *http.Request) {
	if !s.isAdmin(r) {
		writeJSON(w, http.StatusUnauthorized, models.MessageResponse{Success: false, Message: "Unauthorized access"})
		return
	}

	s.mu.Lock()
	sorted := s.sortedLocked()
	s.mu.Unlock()

	data := make([]stubEntry, len(sorted))
	for i, e := range sorted {
		data[i] = toStubEntry(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func (s *StubAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Success: false, Message: "Password required"})
		return
	}

	if body.Password != s.password {
		s.logger.Warn("rejected admin login")
		writeJSON(w, http.StatusUnauthorized, models.MessageResponse{Success: false, Message: "Invalid password"})
		return
	}

	token := shared.GenerateID()
	s.mu.Lock()
	s.sessions[token] = true
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Login successful", "isAdmin": true})
}

func (s *StubAPI) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Logged out"})
}

func (s *StubAPI) join(w http.ResponseWriter, r *http.Request) {
	var req models.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Success: false, Message: "Name and email are required"})
		return
	}

	s.mu.Lock()
	entry := s.addLocked(models.WaitlistEntry{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		BetaTester: req.BetaTester,
		Ambassador: req.Ambassador,
	})
	s.mu.Unlock()

	s.logger.Info("new waitlist signup", "id", entry.ID, "email", entry.Email)
	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Successfully joined waitlist!"})
}

func (s *StubAPI) isAdmin(r *http.Request) bool {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[c.Value]
}

func (s *StubAPI) addLocked(e models.WaitlistEntry) models.WaitlistEntry {
	if e.ID == 0 {
		e.ID = s.nextID
	}
	if e.ID >= s.nextID {
		s.nextID = e.ID + 1
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = models.NewTimestamp(s.now())
	}
	s.entries = append(s.entries, e)
	return e
}

// sortedLocked orders by created_at descending, like the reference backend's query.
func (s *StubAPI) sortedLocked() []models.WaitlistEntry {
	out := slices.Clone(s.entries)
	slices.SortStableFunc(out, func(a, b models.WaitlistEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt.Time)
	})
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", "err", err)
	}
}

// NewStubRouter wraps a [StubAPI] with request logging and panic recovery.
func NewStubRouter(api *StubAPI, logger *log.Logger) *BasicRouter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	router := NewBasicRouter()
	router.Use(Recoverer(logger), RequestLogger(logger))
	router.Handler(api)
	return router
}
