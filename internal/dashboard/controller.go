package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kxo/internal/formatter"
	"github.com/desertthunder/kxo/internal/models"
	"github.com/desertthunder/kxo/internal/shared"
	"golang.org/x/time/rate"
)

const defaultTimeout = 15 * time.Second

// API is the part of the waitlist API the admin view calls.
type API interface {
	VerifySession(ctx context.Context) (bool, error)
	FetchWaitlist(ctx context.Context) ([]models.WaitlistEntry, error)
	Logout(ctx context.Context) error
}

// Session is the local admin session. Its admin flag is a cache hint; the API's answer is authoritative.
type Session interface {
	ID() string
	MarkAdmin(admin bool) error
	Clear() error
}

// ExportStore records CSV exports.
type ExportStore interface {
	Create(record *models.ExportRecord) error
}

// Options configures a [Controller]. Zero values pick defaults.
type Options struct {
	Timeout         time.Duration // Per-request timeout (default 15s)
	RefreshInterval time.Duration // Minimum spacing between refreshes; 0 disables throttling
	RefreshBurst    int           // Refreshes allowed back to back (default 1)
	ExportPrefix    string        // CSV filename prefix
	Exports         ExportStore   // Optional export history
	Logger          *log.Logger
	Now             func() time.Time
}

// Controller drives the admin view. It is safe for concurrent use.
type Controller struct {
	api     API
	session Session
	exports ExportStore
	logger  *log.Logger
	timeout time.Duration
	prefix  string
	now     func() time.Time
	limiter *rate.Limiter

	inFlight atomic.Bool

	mu       sync.Mutex
	state    State
	entries  []models.WaitlistEntry
	search   string
	message  string
	lastErr  error
	loadedAt time.Time
	epoch    uint64
	cancel   context.CancelFunc
	updates  chan<- StateUpdate
}

// NewController creates a [Controller] in the Verifying state.
func NewController(api API, session Session, opts Options) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RefreshBurst <= 0 {
		opts.RefreshBurst = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	limit := rate.Inf
	if opts.RefreshInterval > 0 {
		limit = rate.Every(opts.RefreshInterval)
	}

	return &Controller{
		api:     api,
		session: session,
		exports: opts.Exports,
		logger:  opts.Logger,
		timeout: opts.Timeout,
		prefix:  opts.ExportPrefix,
		now:     opts.Now,
		limiter: rate.NewLimiter(limit, opts.RefreshBurst),
		state:   StateVerifying,
		entries: []models.WaitlistEntry{},
	}
}

// SetUpdates registers a channel that receives every transition. Sends are non-blocking.
func (c *Controller) SetUpdates(ch chan<- StateUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = ch
}

// Activate verifies the session and, when it is an admin, loads the waitlist.
//
// authenticated false moves to LoginRedirect and returns an error matching [ErrAuthenticationFailed].
// A verification transport failure moves to Error with [MsgVerificationFailed]. Neither issues a waitlist request.
func (c *Controller) Activate(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInFlight
	}
	defer c.inFlight.Store(false)

	ctx, epoch, err := c.begin(ctx, StateVerifying)
	if err != nil {
		return err
	}
	defer c.end(epoch)

	vctx, cancel := context.WithTimeout(ctx, c.timeout)
	authenticated, err := c.api.VerifySession(vctx)
	cancel()

	if err != nil {
		verr := &Error{Kind: VerificationTransportError, Message: MsgVerificationFailed, Err: err}
		c.logger.Error("session verification failed", "err", err)
		c.settle(epoch, StateError, verr)
		return verr
	}

	if !c.markAdmin(epoch, authenticated) {
		return nil
	}

	if !authenticated {
		c.logger.Info("session is not an admin, redirecting to login")
		aerr := &Error{Kind: AuthenticationFailed, Err: shared.ErrNotAuthenticated}
		c.settle(epoch, StateLoginRedirect, aerr)
		return aerr
	}

	if !c.advance(epoch, StateLoading) {
		return nil
	}

	entries, err := c.fetch(ctx)
	if err != nil {
		c.settle(epoch, StateError, err)
		return err
	}

	c.store(epoch, entries)
	return nil
}

// Refresh reloads the waitlist from Loaded. On failure the previous collection stays and the error is shown inline.
//
// Overlapping calls fail with [ErrRefreshInFlight]; calls faster than the configured interval fail with [ErrRefreshThrottled].
func (c *Controller) Refresh(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInFlight
	}
	defer c.inFlight.Store(false)

	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state != StateLoaded {
		return fmt.Errorf("%w: cannot refresh from %s", ErrInvalidTransition, state)
	}

	if !c.limiter.Allow() {
		return ErrRefreshThrottled
	}

	ctx, epoch, err := c.begin(ctx, StateRefreshing)
	if err != nil {
		return err
	}
	defer c.end(epoch)

	entries, err := c.fetch(ctx)
	if err != nil {
		c.settle(epoch, StateLoaded, err)
		return err
	}

	c.store(epoch, entries)
	return nil
}

// Logout ends the session. The API call is best-effort: its failure is logged and never returned.
// The local session is always cleared and the view always moves to LoginRedirect.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.epoch++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	lctx, cancel := context.WithTimeout(ctx, c.timeout)
	if err := c.api.Logout(lctx); err != nil {
		c.logger.Warn("logout request failed", "kind", LogoutTransportError, "err", err)
	}
	cancel()

	clearErr := c.session.Clear()

	c.mu.Lock()
	c.entries = []models.WaitlistEntry{}
	c.search = ""
	c.loadedAt = time.Time{}
	c.transitionLocked(StateLoginRedirect, nil)
	c.mu.Unlock()

	if clearErr != nil {
		return fmt.Errorf("failed to clear local session: %w", clearErr)
	}
	return nil
}

// ReturnToLogin leaves the Error state for LoginRedirect without contacting the API.
func (c *Controller) ReturnToLogin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitionLocked(StateLoginRedirect, nil)
}

// SetSearch stores the live search term.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = term
}

// Search returns the current search term.
func (c *Controller) Search() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Filtered recomputes the filtered view from the loaded collection and the current term.
func (c *Controller) Filtered() []models.WaitlistEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Filter(c.entries, c.search)
}

// Export writes the filtered collection as CSV into dir and returns the file path.
// File errors are returned as is. A failure to record the export is only logged.
func (c *Controller) Export(dir string) (string, error) {
	c.mu.Lock()
	filtered := Filter(c.entries, c.search)
	term := c.search
	c.mu.Unlock()

	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, formatter.Filename(c.prefix, c.now()))

	if err := formatter.WriteCSVExport(filtered, path); err != nil {
		return "", err
	}

	c.logger.Info("exported waitlist", "path", path, "rows", len(filtered), "search", term)

	if c.exports != nil {
		record := models.NewExportRecord(c.session.ID(), path, len(filtered), term)
		if err := c.exports.Create(record); err != nil {
			c.logger.Warn("failed to record export", "path", path, "err", err)
		}
	}

	return path, nil
}

// Snapshot is a consistent copy of the view state for rendering.
type Snapshot struct {
	State    State
	Entries  []models.WaitlistEntry
	Filtered []models.WaitlistEntry
	Search   string
	Message  string // Error text shown to the user
	Err      error
	LoadedAt time.Time
	Summary  Summary
}

// Refreshing reports whether a refresh is running.
func (s Snapshot) Refreshing() bool {
	return s.State == StateRefreshing
}

// Showing renders the "Showing X of Y members" caption.
func (s Snapshot) Showing() string {
	return ShowingLine(len(s.Filtered), len(s.Entries))
}

// Snapshot returns the current view state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:    c.state,
		Entries:  append([]models.WaitlistEntry(nil), c.entries...),
		Filtered: Filter(c.entries, c.search),
		Search:   c.search,
		Message:  c.message,
		Err:      c.lastErr,
		LoadedAt: c.loadedAt,
		Summary:  Summarize(c.entries),
	}
}

// fetch runs the loader under the per-request timeout and classifies its failure.
func (c *Controller) fetch(ctx context.Context) ([]models.WaitlistEntry, error) {
	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	entries, err := c.api.FetchWaitlist(fctx)
	if err == nil {
		return entries, nil
	}

	var apiErr *shared.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.MessageOr(MsgFetchFailed)
		c.logger.Warn("waitlist request rejected", "status", apiErr.StatusCode, "message", msg)
		return nil, &Error{Kind: WaitlistLoadError, Message: msg, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %w", shared.ErrTimeout, c.timeout, err)
	}
	c.logger.Error("error fetching waitlist", "err", err)
	return nil, &Error{Kind: WaitlistLoadError, Message: MsgFetchError, Err: err}
}

// begin moves to state and returns a context cancelled by a later Logout.
func (c *Controller) begin(ctx context.Context, state State) (context.Context, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != state && !CanTransition(c.state, state) {
		return nil, 0, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, c.state, state)
	}

	c.epoch++
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	if state == StateVerifying {
		c.message = ""
		c.lastErr = nil
	}
	c.transitionLocked(state, nil)
	return ctx, c.epoch, nil
}

func (c *Controller) end(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch == epoch && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// markAdmin saves the admin hint unless a newer operation (such as Logout) has started.
// The epoch check and the write happen under one lock so a stale answer cannot follow a Clear.
func (c *Controller) markAdmin(epoch uint64, admin bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return false
	}
	if err := c.session.MarkAdmin(admin); err != nil {
		c.logger.Warn("failed to save admin hint", "err", err)
	}
	return true
}

// advance moves to state if no newer operation has started.
func (c *Controller) advance(epoch uint64, state State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return false
	}
	c.transitionLocked(state, nil)
	return true
}

// settle records err and moves to state unless the operation was superseded.
func (c *Controller) settle(epoch uint64, state State, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		c.logger.Debug("discarding stale result", "state", state, "err", err)
		return
	}
	c.lastErr = err
	c.message = MessageOf(err)
	c.transitionLocked(state, err)
}

// store replaces the collection wholesale and moves to Loaded.
func (c *Controller) store(epoch uint64, entries []models.WaitlistEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		c.logger.Debug("discarding stale waitlist", "count", len(entries))
		return
	}
	if entries == nil {
		entries = []models.WaitlistEntry{}
	}
	c.entries = entries
	c.message = ""
	c.lastErr = nil
	c.loadedAt = c.now()
	c.logger.Info("loaded waitlist", "count", len(entries))
	c.transitionLocked(StateLoaded, nil)
}

func (c *Controller) transitionLocked(to State, err error) {
	from := c.state
	if from != to && !CanTransition(from, to) {
		c.logger.Error("invalid state transition", "from", from, "to", to)
		return
	}
	c.state = to

	if c.updates == nil {
		return
	}
	select {
	case c.updates <- StateUpdate{From: from, To: to, Message: MessageOf(err)}:
	default:
	}
}
