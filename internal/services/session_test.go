package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/desertthunder/kxo/internal/models"
)

type memorySessionStore struct {
	sessions map[string]*models.Session
	updates  int
}

func (m *memorySessionStore) FindOrCreate(baseURL string) (*models.Session, error) {
	if m.sessions == nil {
		m.sessions = make(map[string]*models.Session)
	}
	if s, ok := m.sessions[baseURL]; ok {
		return s, nil
	}
	s := models.NewSession(baseURL)
	s.SetID("session-1")
	m.sessions[baseURL] = s
	return s, nil
}

func (m *memorySessionStore) Update(session *models.Session) error {
	m.updates++
	return nil
}

func TestCookieSession(t *testing.T) {
	t.Run("Open rejects relative URL", func(t *testing.T) {
		if _, err := OpenSession(&memorySessionStore{}, "/api"); err == nil {
			t.Error("expected error for relative base URL")
		}
	})

	t.Run("Seeds jar from stored cookies", func(t *testing.T) {
		store := &memorySessionStore{}
		stored, _ := store.FindOrCreate("http://127.0.0.1:5000")
		stored.SetCookies([]models.StoredCookie{
			{Name: "session", Value: "live", Path: "/"},
			{Name: "old", Value: "gone", Path: "/", Expires: time.Now().Add(-time.Hour)},
		})

		s, err := OpenSession(store, "http://127.0.0.1:5000")
		if err != nil {
			t.Fatalf("OpenSession() error = %v", err)
		}

		u, _ := url.Parse("http://127.0.0.1:5000/api/waitlist")
		cookies := s.Jar().Cookies(u)
		if len(cookies) != 1 || cookies[0].Value != "live" {
			t.Errorf("expected only live cookie in jar, got %v", cookies)
		}
	})

	t.Run("Round trips server cookies", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case PathLogin:
				http.SetCookie(w, &http.Cookie{Name: "session", Value: "signed", Path: "/"})
				w.Write([]byte(`{"success": true}`))
			case PathVerify:
				c, err := r.Cookie("session")
				w.Write([]byte(`{"authenticated": ` + boolString(err == nil && c.Value == "signed") + `}`))
			}
		}))
		defer server.Close()

		store := &memorySessionStore{}
		s, err := OpenSession(store, server.URL)
		if err != nil {
			t.Fatalf("OpenSession() error = %v", err)
		}

		svc := NewWaitlistService(NewAPIService(server.URL, s.NewHTTPClient(), nil))
		if _, err := svc.Login(context.Background(), "pw"); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if err := s.MarkAdmin(true); err != nil {
			t.Fatalf("MarkAdmin() error = %v", err)
		}

		snapshot := s.Session()
		if !snapshot.IsAdmin() || len(snapshot.Cookies()) != 1 || snapshot.Cookies()[0].Value != "signed" {
			t.Errorf("expected persisted admin session cookie, got %+v", snapshot.Cookies())
		}

		reopened, err := OpenSession(store, server.URL)
		if err != nil {
			t.Fatalf("OpenSession() error = %v", err)
		}
		svc = NewWaitlistService(NewAPIService(server.URL, reopened.NewHTTPClient(), nil))
		ok, err := svc.VerifySession(context.Background())
		if err != nil || !ok {
			t.Errorf("expected reopened session to verify, got %v, %v", ok, err)
		}

		if err := reopened.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if reopened.IsAdmin() {
			t.Error("expected admin hint cleared")
		}
		ok, _ = svc.VerifySession(context.Background())
		if ok {
			t.Error("expected cleared jar to stop sending the session cookie")
		}
	})

	t.Run("ImportCookies", func(t *testing.T) {
		store := &memorySessionStore{}
		s, err := OpenSession(store, "https://api.kanairoxo.com")
		if err != nil {
			t.Fatalf("OpenSession() error = %v", err)
		}

		if err := s.ImportCookies([]*http.Cookie{{Name: "session", Value: "from-browser"}}); err != nil {
			t.Fatalf("ImportCookies() error = %v", err)
		}

		sess := s.Session()
		if got := sess.Cookies(); len(got) != 1 || got[0].Value != "from-browser" {
			t.Errorf("expected imported cookie to persist, got %+v", got)
		}
		if store.updates != 1 {
			t.Errorf("expected 1 store update, got %d", store.updates)
		}
	})
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
