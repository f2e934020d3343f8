package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kxo/internal/models"
	"github.com/desertthunder/kxo/internal/services"
	"github.com/desertthunder/kxo/internal/shared"
)

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.HandleFunc(http.MethodGet, "/ping", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %q", rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.HandleFunc(http.MethodGet, "/", func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("RequestLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)

		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Request-ID", "req-123")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		out := buf.String()
		for _, want := range []string{"/api/health", "418", "req-123"} {
			if !strings.Contains(out, want) {
				t.Errorf("log output missing %q: %s", want, out)
			}
		}
	})

	t.Run("Recoverer", func(t *testing.T) {
		handler := Recoverer(log.New(io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func newStubClient(t *testing.T, stub *StubAPI) *services.WaitlistService {
	t.Helper()
	server := httptest.NewServer(NewStubRouter(stub, log.New(io.Discard)))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{Jar: jar}
	return services.NewWaitlistService(services.NewAPIService(server.URL, client, nil))
}

func TestStubAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("Routes", func(t *testing.T) {
		if got := len(NewStubAPI("pw", nil).Routes()); got != 6 {
			t.Errorf("expected 6 routes, got %d", got)
		}
	})

	t.Run("Health", func(t *testing.T) {
		svc := newStubClient(t, NewStubAPI("pw", nil))
		status, err := svc.Health(ctx)
		if err != nil || !status.Healthy() {
			t.Errorf("Health() = %+v, %v", status, err)
		}
	})

	t.Run("Admin Session Lifecycle", func(t *testing.T) {
		stub := NewStubAPI("hunter2", nil)
		stub.Seed(
			models.WaitlistEntry{Name: "Amina", Email: "a@x.com", BetaTester: true, CreatedAt: models.NewTimestamp(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))},
			models.WaitlistEntry{Name: "Bola", Email: "b@x.com", Phone: "0803", CreatedAt: models.NewTimestamp(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))},
		)
		svc := newStubClient(t, stub)

		ok, err := svc.VerifySession(ctx)
		if err != nil || ok {
			t.Fatalf("expected unauthenticated session, got %v, %v", ok, err)
		}

		_, err = svc.FetchWaitlist(ctx)
		var apiErr *shared.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Unauthorized access" {
			t.Fatalf("expected 401 APIError, got %v", err)
		}

		if _, err := svc.Login(ctx, "wrong"); !errors.As(err, &apiErr) || apiErr.Message != "Invalid password" {
			t.Fatalf("expected invalid password, got %v", err)
		}

		if _, err := svc.Login(ctx, "hunter2"); err != nil {
			t.Fatalf("Login() error = %v", err)
		}

		ok, err = svc.VerifySession(ctx)
		if err != nil || !ok {
			t.Fatalf("expected authenticated session, got %v, %v", ok, err)
		}

		entries, err := svc.FetchWaitlist(ctx)
		if err != nil {
			t.Fatalf("FetchWaitlist() error = %v", err)
		}
		if len(entries) != 2 || entries[0].Name != "Bola" {
			t.Fatalf("expected newest first, got %+v", entries)
		}
		if entries[1].HasPhone() || !entries[1].BetaTester || !entries[1].CreatedAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("snake_case row did not decode: %+v", entries[1])
		}

		if err := svc.Logout(ctx); err != nil {
			t.Fatalf("Logout() error = %v", err)
		}
		if ok, _ := svc.VerifySession(ctx); ok {
			t.Error("expected session to end after logout")
		}
	})

	t.Run("Join", func(t *testing.T) {
		stub := NewStubAPI("pw", nil)
		svc := newStubClient(t, stub)

		resp, err := svc.Join(ctx, models.JoinRequest{Name: "Chidi", Email: "c@x.com", Ambassador: true})
		if err != nil || !resp.Success {
			t.Fatalf("Join() = %+v, %v", resp, err)
		}

		entries := stub.Entries()
		if len(entries) != 1 || entries[0].ID != 1 || !entries[0].Ambassador {
			t.Errorf("unexpected stored entries %+v", entries)
		}
	})

	t.Run("Join Rejects Missing Fields", func(t *testing.T) {
		server := httptest.NewServer(NewStubAPI("pw", nil))
		defer server.Close()

		body, _ := json.Marshal(map[string]string{"name": "x"})
		resp, err := http.Post(server.URL+"/api/join-waitlist", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("Unknown Route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewStubAPI("pw", nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, NewStubRouter(NewStubAPI("pw", nil), log.New(io.Discard)), log.New(io.Discard))
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
