// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/kxo/internal/models"
)

// MockAPI is a test double for the waitlist API. Zero values answer "not authenticated" with an empty waitlist.
type MockAPI struct {
	mu sync.Mutex

	Authenticated bool
	VerifyErr     error
	Entries       []models.WaitlistEntry
	FetchErr      error
	LoginErr      error
	LogoutErr     error
	JoinErr       error
	Healthy       bool
	HealthErr     error

	// FetchHook runs at the start of FetchWaitlist, e.g. to block until a test releases it.
	FetchHook func(ctx context.Context)

	calls map[string]int
}

func (m *MockAPI) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (m *MockAPI) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

// SetEntries replaces the waitlist returned by later fetches.
func (m *MockAPI) SetEntries(entries []models.WaitlistEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = entries
}

// SetFetchErr replaces the error returned by later fetches.
func (m *MockAPI) SetFetchErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchErr = err
}

func (m *MockAPI) VerifySession(ctx context.Context) (bool, error) {
	m.record("VerifySession")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Authenticated, m.VerifyErr
}

func (m *MockAPI) FetchWaitlist(ctx context.Context) ([]models.WaitlistEntry, error) {
	m.record("FetchWaitlist")
	if m.FetchHook != nil {
		m.FetchHook(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return append([]models.WaitlistEntry(nil), m.Entries...), nil
}

func (m *MockAPI) Login(ctx context.Context, password string) (*models.MessageResponse, error) {
	m.record("Login")
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	m.mu.Lock()
	m.Authenticated = true
	m.mu.Unlock()
	return &models.MessageResponse{Success: true, Message: "Login successful"}, nil
}

func (m *MockAPI) Logout(ctx context.Context) error {
	m.record("Logout")
	return m.LogoutErr
}

func (m *MockAPI) Join(ctx context.Context, req models.JoinRequest) (*models.MessageResponse, error) {
	m.record("Join")
	if m.JoinErr != nil {
		return nil, m.JoinErr
	}
	return &models.MessageResponse{Success: true, Message: "Successfully joined waitlist!"}, nil
}

func (m *MockAPI) Health(ctx context.Context) (*models.HealthStatus, error) {
	m.record("Health")
	if m.HealthErr != nil {
		return nil, m.HealthErr
	}
	status := "unhealthy"
	if m.Healthy {
		status = "healthy"
	}
	return &models.HealthStatus{Status: status, Message: "KanairoXO API is running"}, nil
}

// MockSession is a test double for the persisted admin session.
type MockSession struct {
	mu sync.Mutex

	SessionID string
	Admin     bool
	Cleared   int
	MarkErr   error
	ClearErr  error
}

func (m *MockSession) ID() string { return m.SessionID }

func (m *MockSession) IsAdmin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Admin
}

func (m *MockSession) MarkAdmin(admin bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Admin = admin
	return m.MarkErr
}

func (m *MockSession) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Admin = false
	m.Cleared++
	return m.ClearErr
}

// MockExportStore records export rows in memory.
type MockExportStore struct {
	Records []*models.ExportRecord
	Err     error
}

func (m *MockExportStore) Create(record *models.ExportRecord) error {
	if m.Err != nil {
		return m.Err
	}
	record.SetID(fmt.Sprintf("export-%d", len(m.Records)+1))
	m.Records = append(m.Records, record)
	return nil
}

// Entry builds a waitlist entry created at 2025-01-01T00:00:00Z plus id hours.
func Entry(id int64, name, email, phone string) models.WaitlistEntry {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Hour)
	return models.WaitlistEntry{
		ID:        id,
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: models.NewTimestamp(created),
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
