package dashboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/kxo/internal/models"
	"github.com/desertthunder/kxo/internal/shared"
	tu "github.com/desertthunder/kxo/internal/testing"
)

var fixedNow = time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

func newTestController(api *tu.MockAPI, opts Options) (*Controller, *tu.MockSession) {
	session := &tu.MockSession{SessionID: "session-1"}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return NewController(api, session, opts), session
}

func loadedController(t *testing.T, opts Options) (*Controller, *tu.MockAPI, *tu.MockSession) {
	t.Helper()
	api := &tu.MockAPI{Authenticated: true, Entries: sampleEntries()}
	c, session := newTestController(api, opts)
	if err := c.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	return c, api, session
}

func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, have %s", want, c.State())
}

func TestControllerActivate(t *testing.T) {
	t.Run("authenticated loads waitlist", func(t *testing.T) {
		api := &tu.MockAPI{Authenticated: true, Entries: sampleEntries()}
		c, session := newTestController(api, Options{})

		updates := make(chan StateUpdate, 10)
		c.SetUpdates(updates)

		if err := c.Activate(context.Background()); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}

		snap := c.Snapshot()
		if snap.State != StateLoaded {
			t.Errorf("expected Loaded, got %s", snap.State)
		}
		if len(snap.Entries) != 3 || !snap.LoadedAt.Equal(fixedNow) {
			t.Errorf("unexpected snapshot: %d entries, loaded at %v", len(snap.Entries), snap.LoadedAt)
		}
		if !session.IsAdmin() {
			t.Error("expected admin hint to be set from the server's answer")
		}

		close(updates)
		var got []State
		for u := range updates {
			got = append(got, u.To)
		}
		want := []State{StateVerifying, StateLoading, StateLoaded}
		if len(got) != len(want) {
			t.Fatalf("transitions = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("transitions = %v, want %v", got, want)
			}
		}
	})

	t.Run("not authenticated redirects without loading", func(t *testing.T) {
		api := &tu.MockAPI{Authenticated: false, Entries: sampleEntries()}
		c, session := newTestController(api, Options{})
		session.Admin = true

		err := c.Activate(context.Background())
		if !errors.Is(err, ErrAuthenticationFailed) {
			t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
		}
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected wrapped ErrNotAuthenticated, got %v", err)
		}
		if c.State() != StateLoginRedirect {
			t.Errorf("expected LoginRedirect, got %s", c.State())
		}
		if api.Calls("FetchWaitlist") != 0 {
			t.Error("waitlist must not be requested after authenticated:false")
		}
		if c.Snapshot().Message != "" {
			t.Errorf("expected no message, got %q", c.Snapshot().Message)
		}
		if session.IsAdmin() {
			t.Error("expected stale admin hint to be cleared")
		}
	})

	t.Run("verification transport failure shows distinct message", func(t *testing.T) {
		api := &tu.MockAPI{VerifyErr: shared.ErrAPIRequest}
		c, _ := newTestController(api, Options{})

		err := c.Activate(context.Background())
		if KindOf(err) != VerificationTransportError {
			t.Fatalf("expected VerificationTransportError, got %v", err)
		}

		snap := c.Snapshot()
		if snap.State != StateError || snap.Message != MsgVerificationFailed {
			t.Errorf("unexpected snapshot: %s %q", snap.State, snap.Message)
		}
		if api.Calls("FetchWaitlist") != 0 {
			t.Error("waitlist must not be requested after a verification failure")
		}
	})

	t.Run("initial load failure moves to Error", func(t *testing.T) {
		api := &tu.MockAPI{Authenticated: true, FetchErr: &shared.APIError{StatusCode: 500, Message: "Database connection failed"}}
		c, _ := newTestController(api, Options{})

		err := c.Activate(context.Background())
		if KindOf(err) != WaitlistLoadError {
			t.Fatalf("expected WaitlistLoadError, got %v", err)
		}

		snap := c.Snapshot()
		if snap.State != StateError || snap.Message != "Database connection failed" {
			t.Errorf("unexpected snapshot: %s %q", snap.State, snap.Message)
		}
	})

	t.Run("Error only returns to login", func(t *testing.T) {
		api := &tu.MockAPI{VerifyErr: errors.New("offline")}
		c, _ := newTestController(api, Options{})
		c.Activate(context.Background())

		if err := c.Activate(context.Background()); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition from Error, got %v", err)
		}

		c.ReturnToLogin()
		if c.State() != StateLoginRedirect {
			t.Fatalf("expected LoginRedirect, got %s", c.State())
		}

		api.VerifyErr = nil
		api.Authenticated = true
		if err := c.Activate(context.Background()); err != nil {
			t.Fatalf("Activate() after login error = %v", err)
		}
		if c.State() != StateLoaded || c.Snapshot().Message != "" {
			t.Errorf("expected clean Loaded state, got %s %q", c.State(), c.Snapshot().Message)
		}
	})
}

func TestControllerRefresh(t *testing.T) {
	t.Run("replaces collection wholesale", func(t *testing.T) {
		c, api, _ := loadedController(t, Options{})
		api.SetEntries([]models.WaitlistEntry{tu.Entry(7, "Dayo", "d@x.com", "")})

		if err := c.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}

		snap := c.Snapshot()
		if snap.State != StateLoaded || len(snap.Entries) != 1 || snap.Entries[0].ID != 7 {
			t.Errorf("unexpected snapshot after refresh: %s %v", snap.State, ids(snap.Entries))
		}
	})

	t.Run("server failure keeps data and shows message", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want string
		}{
			{name: "server message", err: &shared.APIError{StatusCode: 200, Message: "X"}, want: "X"},
			{name: "no message", err: &shared.APIError{StatusCode: 401}, want: MsgFetchFailed},
			{name: "transport", err: shared.ErrAPIRequest, want: MsgFetchError},
			{name: "malformed", err: shared.ErrAPIResponse, want: MsgFetchError},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				c, api, _ := loadedController(t, Options{})
				before := ids(c.Snapshot().Entries)
				api.SetFetchErr(tc.err)

				err := c.Refresh(context.Background())
				if KindOf(err) != WaitlistLoadError || !errors.Is(err, tc.err) {
					t.Fatalf("expected WaitlistLoadError wrapping %v, got %v", tc.err, err)
				}

				snap := c.Snapshot()
				if snap.State != StateLoaded {
					t.Errorf("expected to stay Loaded, got %s", snap.State)
				}
				if snap.Message != tc.want {
					t.Errorf("message = %q, want %q", snap.Message, tc.want)
				}
				if after := ids(snap.Entries); len(after) != len(before) {
					t.Errorf("collection changed: %v -> %v", before, after)
				}

				api.SetFetchErr(nil)
				if err := c.Refresh(context.Background()); err != nil {
					t.Fatalf("Refresh() error = %v", err)
				}
				if msg := c.Snapshot().Message; msg != "" {
					t.Errorf("expected message cleared after success, got %q", msg)
				}
			})
		}
	})

	t.Run("requires Loaded", func(t *testing.T) {
		c, _ := newTestController(&tu.MockAPI{}, Options{})
		if err := c.Refresh(context.Background()); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("rejects overlapping refresh", func(t *testing.T) {
		c, api, _ := loadedController(t, Options{})

		release := make(chan struct{})
		api.FetchHook = func(ctx context.Context) { <-release }

		done := make(chan error, 1)
		go func() { done <- c.Refresh(context.Background()) }()
		waitForState(t, c, StateRefreshing)

		if !c.Snapshot().Refreshing() {
			t.Error("expected snapshot to report refreshing")
		}
		if err := c.Refresh(context.Background()); !errors.Is(err, ErrRefreshInFlight) {
			t.Errorf("expected ErrRefreshInFlight, got %v", err)
		}

		close(release)
		if err := <-done; err != nil {
			t.Fatalf("first Refresh() error = %v", err)
		}
		if c.State() != StateLoaded {
			t.Errorf("expected Loaded, got %s", c.State())
		}
	})

	t.Run("throttles bursts", func(t *testing.T) {
		c, _, _ := loadedController(t, Options{RefreshInterval: time.Hour, RefreshBurst: 1})

		if err := c.Refresh(context.Background()); err != nil {
			t.Fatalf("first Refresh() error = %v", err)
		}
		if err := c.Refresh(context.Background()); !errors.Is(err, ErrRefreshThrottled) {
			t.Errorf("expected ErrRefreshThrottled, got %v", err)
		}
		if c.State() != StateLoaded {
			t.Errorf("expected Loaded, got %s", c.State())
		}
	})

	t.Run("timeout clears refreshing", func(t *testing.T) {
		c, api, _ := loadedController(t, Options{Timeout: 20 * time.Millisecond})
		api.FetchHook = func(ctx context.Context) { <-ctx.Done() }

		err := c.Refresh(context.Background())
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
		if !errors.Is(err, shared.ErrTimeout) || KindOf(err) != WaitlistLoadError {
			t.Errorf("expected a WaitlistLoadError wrapping ErrTimeout, got %v", err)
		}

		snap := c.Snapshot()
		if snap.State != StateLoaded || snap.Message != MsgFetchError {
			t.Errorf("unexpected snapshot: %s %q", snap.State, snap.Message)
		}
	})
}

func TestControllerLogout(t *testing.T) {
	t.Run("admin hint from a superseded verification is dropped", func(t *testing.T) {
		c, _, session := loadedController(t, Options{})

		c.mu.Lock()
		stale := c.epoch
		c.mu.Unlock()

		if err := c.Logout(context.Background()); err != nil {
			t.Fatalf("Logout() error = %v", err)
		}
		if c.markAdmin(stale, true) {
			t.Error("markAdmin should report a superseded epoch")
		}
		if session.IsAdmin() {
			t.Error("admin hint must stay cleared after logout")
		}
	})

	t.Run("clears session and redirects when the API call fails", func(t *testing.T) {
		c, api, session := loadedController(t, Options{})
		api.LogoutErr = errors.New("network down")
		c.SetSearch("amina")

		if err := c.Logout(context.Background()); err != nil {
			t.Fatalf("Logout() error = %v", err)
		}

		if session.Cleared != 1 || session.IsAdmin() {
			t.Errorf("expected session cleared, got cleared=%d admin=%v", session.Cleared, session.IsAdmin())
		}

		snap := c.Snapshot()
		if snap.State != StateLoginRedirect || len(snap.Entries) != 0 || snap.Search != "" {
			t.Errorf("unexpected snapshot after logout: %s %d %q", snap.State, len(snap.Entries), snap.Search)
		}
		if api.Calls("Logout") != 1 {
			t.Error("expected one logout request")
		}
	})

	t.Run("local clear failure is reported after redirect", func(t *testing.T) {
		c, _, session := loadedController(t, Options{})
		session.ClearErr = errors.New("disk full")

		if err := c.Logout(context.Background()); err == nil {
			t.Error("expected local clear error")
		}
		if c.State() != StateLoginRedirect {
			t.Errorf("expected LoginRedirect, got %s", c.State())
		}
	})

	t.Run("cancels an in-flight refresh", func(t *testing.T) {
		c, api, _ := loadedController(t, Options{})
		api.FetchHook = func(ctx context.Context) { <-ctx.Done() }

		done := make(chan error, 1)
		go func() { done <- c.Refresh(context.Background()) }()
		waitForState(t, c, StateRefreshing)

		if err := c.Logout(context.Background()); err != nil {
			t.Fatalf("Logout() error = %v", err)
		}

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("refresh was not cancelled by logout")
		}

		snap := c.Snapshot()
		if snap.State != StateLoginRedirect || len(snap.Entries) != 0 || snap.Message != "" {
			t.Errorf("stale refresh leaked into state: %s %d %q", snap.State, len(snap.Entries), snap.Message)
		}
	})
}

func TestControllerExport(t *testing.T) {
	t.Run("writes filtered rows and records the export", func(t *testing.T) {
		store := &tu.MockExportStore{}
		c, _, _ := loadedController(t, Options{Exports: store})
		c.SetSearch("amina")

		dir := t.TempDir()
		path, err := c.Export(dir)
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}

		if filepath.Base(path) != "kanairoxo-waitlist-2025-01-02.csv" {
			t.Errorf("unexpected filename %s", path)
		}

		lines := strings.Split(tu.MustReadFile(t, path), "\n")
		if len(lines) != len(c.Filtered())+1 {
			t.Errorf("expected %d lines, got %d", len(c.Filtered())+1, len(lines))
		}
		if lines[1] != `"1","Amina","a@x.com","N/A","Yes","No","2025-01-01T01:00:00.000Z"` {
			t.Errorf("unexpected first row %s", lines[1])
		}

		if len(store.Records) != 1 {
			t.Fatalf("expected 1 export record, got %d", len(store.Records))
		}
		rec := store.Records[0]
		if rec.SessionID() != "session-1" || rec.Rows() != 2 || rec.SearchTerm() != "amina" || rec.Path() != path {
			t.Errorf("unexpected record: %s %d %q %s", rec.SessionID(), rec.Rows(), rec.SearchTerm(), rec.Path())
		}
	})

	t.Run("custom prefix", func(t *testing.T) {
		c, _, _ := loadedController(t, Options{ExportPrefix: "beta"})
		path, err := c.Export(t.TempDir())
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if filepath.Base(path) != "beta-2025-01-02.csv" {
			t.Errorf("unexpected filename %s", path)
		}
	})

	t.Run("I/O error propagates", func(t *testing.T) {
		store := &tu.MockExportStore{}
		c, _, _ := loadedController(t, Options{Exports: store})

		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, nil, 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := c.Export(blocker); err == nil {
			t.Error("expected export error")
		}
		if len(store.Records) != 0 {
			t.Error("failed export must not be recorded")
		}
	})

	t.Run("record failure does not fail export", func(t *testing.T) {
		c, _, _ := loadedController(t, Options{Exports: &tu.MockExportStore{Err: errors.New("db locked")}})
		if _, err := c.Export(t.TempDir()); err != nil {
			t.Errorf("Export() error = %v", err)
		}
	})
}
