package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/kxo/internal/dashboard"
	"github.com/desertthunder/kxo/internal/models"
	"github.com/desertthunder/kxo/internal/services"
	"github.com/desertthunder/kxo/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	VerifyingView ViewState = iota
	LoginView
	LoadingView
	DashboardView
	ErrorView
	HistoryView
)

// Authenticator exchanges the admin password for a session.
type Authenticator interface {
	Login(ctx context.Context, password string) (*models.MessageResponse, error)
}

// ExportLister lists recorded CSV exports.
type ExportLister interface {
	List(criteria map[string]any) ([]*models.ExportRecord, error)
}

// Options configures the TUI. Zero values pick defaults.
type Options struct {
	ExportDir string        // Where CSV exports are written (default ".")
	History   ExportLister  // Optional export history
	Timeout   time.Duration // Login request timeout (default 15s)
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	ctrl      *dashboard.Controller
	auth      Authenticator
	history   ExportLister
	exportDir string
	timeout   time.Duration
	updates   chan dashboard.StateUpdate
	width     int
	height    int
	password  textinput.Model
	search    textinput.Model
	table     table.Model
	exports   list.Model
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
	loginErr  string
	status    string
	statusErr bool
}

// NewModel creates a new TUI model driving ctrl. The controller's transitions are streamed into the model.
func NewModel(ctx context.Context, ctrl *dashboard.Controller, auth Authenticator, opts Options) *Model {
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	password := textinput.New()
	password.Placeholder = "Admin password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	search := textinput.New()
	search.Placeholder = "Search by name, email or phone"
	search.Prompt = "/ "
	search.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title.UnsetMarginBottom()

	updates := make(chan dashboard.StateUpdate, 32)
	ctrl.SetUpdates(updates)

	return &Model{
		ctx:       ctx,
		view:      VerifyingView,
		ctrl:      ctrl,
		auth:      auth,
		history:   opts.History,
		exportDir: opts.ExportDir,
		timeout:   opts.Timeout,
		updates:   updates,
		password:  password,
		search:    search,
		table:     newWaitlistTable(),
		exports:   list.New(nil, list.NewDefaultDelegate(), 0, 0),
		spinner:   sp,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

func newWaitlistTable() table.Model {
	columns := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Name", Width: 20},
		{Title: "Email", Width: 28},
		{Title: "Phone", Width: 16},
		{Title: "Beta", Width: 5},
		{Title: "Ambassador", Width: 10},
		{Title: "Joined", Width: 19},
	}
	return table.New(table.WithColumns(columns), table.WithFocused(true), table.WithHeight(12))
}

// CurrentView returns the view being rendered.
func (m *Model) CurrentView() ViewState {
	return m.view
}

// Init starts session verification and listens for controller transitions.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.activate(), m.waitForUpdate())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-16, 5))
		m.exports.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case ErrorView:
			return m.handleErrorKeys(msg)
		case HistoryView:
			return m.handleHistoryKeys(msg)
		default:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStateChanged:
		update := msg.data.(dashboard.StateUpdate)
		wasBusy := m.busy()
		m.syncView(update.To)
		cmds := []tea.Cmd{m.waitForUpdate()}
		if m.busy() && !wasBusy {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case MsgActivated:
		m.syncView(m.ctrl.State())
		return m, nil

	case MsgRefreshed:
		err := msg.errData()
		switch {
		case errors.Is(err, dashboard.ErrRefreshThrottled):
			m.setStatus("Slow down: refresh requested too soon", true)
		case errors.Is(err, dashboard.ErrRefreshInFlight):
		case err != nil:
			m.setStatus("", false)
		default:
			m.setStatus("Waitlist refreshed", false)
		}
		m.syncView(m.ctrl.State())
		return m, nil

	case MsgLoggedIn:
		if err := msg.errData(); err != nil {
			m.loginErr = loginMessage(err)
			return m, nil
		}
		m.loginErr = ""
		m.password.Reset()
		m.password.Blur()
		m.view = VerifyingView
		return m, tea.Batch(m.spinner.Tick, m.activate())

	case MsgLoggedOut:
		m.search.Reset()
		m.setStatus("", false)
		if err := msg.errData(); err != nil {
			m.loginErr = err.Error()
		}
		m.syncView(m.ctrl.State())
		return m, nil

	case MsgExported:
		data := msg.data.(struct {
			path string
			err  error
		})
		if data.err != nil {
			m.setStatus(fmt.Sprintf("Export failed: %v", data.err), true)
		} else {
			m.setStatus(fmt.Sprintf("Exported %d rows to %s", len(m.ctrl.Filtered()), data.path), false)
		}
		return m, nil

	case MsgHistoryLoaded:
		data := msg.data.(struct {
			records []*models.ExportRecord
			err     error
		})
		if data.err != nil {
			m.setStatus(fmt.Sprintf("Failed to load exports: %v", data.err), true)
			return m, nil
		}
		items := make([]list.Item, len(data.records))
		for i, rec := range data.records {
			items[i] = exportItem{record: rec}
		}
		m.exports.SetItems(items)
		m.exports.Title = "Recent exports"
		m.view = HistoryView
		return m, nil
	}

	return m, nil
}

// syncView maps a controller state to the view that renders it.
func (m *Model) syncView(state dashboard.State) {
	switch state {
	case dashboard.StateVerifying:
		m.view = VerifyingView
	case dashboard.StateLoading:
		m.view = LoadingView
	case dashboard.StateLoaded, dashboard.StateRefreshing:
		if m.view != HistoryView {
			m.view = DashboardView
		}
		m.rebuildTable()
	case dashboard.StateLoginRedirect:
		if m.view != LoginView {
			m.view = LoginView
			m.password.Reset()
			m.password.Focus()
		}
	case dashboard.StateError:
		m.view = ErrorView
	}
}

func (m *Model) busy() bool {
	return m.view == VerifyingView || m.view == LoadingView || m.ctrl.State() == dashboard.StateRefreshing
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model) rebuildTable() {
	filtered := m.ctrl.Filtered()
	rows := make([]table.Row, len(filtered))
	for i, e := range filtered {
		phone := "N/A"
		if e.HasPhone() {
			phone = e.Phone
		}
		joined := ""
		if !e.CreatedAt.IsZero() {
			joined = e.CreatedAt.Local().Format(time.DateTime)
		}
		rows[i] = table.Row{
			strconv.FormatInt(e.ID, 10),
			e.Name,
			e.Email,
			phone,
			shared.YesNo(e.BetaTester),
			shared.YesNo(e.Ambassador),
			joined,
		}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.enter) {
		pw := m.password.Value()
		if pw == "" {
			m.loginErr = "Password required"
			return m, nil
		}
		m.loginErr = ""
		return m, m.login(pw)
	}

	if !m.password.Focused() {
		m.password.Focus()
	}
	var cmd tea.Cmd
	m.password, cmd = m.password.Update(msg)
	return m, cmd
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.search.Focused() {
		switch {
		case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
			m.search.Blur()
			return m, nil
		}

		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.ctrl.SetSearch(m.search.Value())
		m.rebuildTable()
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.back):
		m.search.Reset()
		m.ctrl.SetSearch("")
		m.rebuildTable()
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, tea.Batch(m.spinner.Tick, m.refresh())
	case key.Matches(msg, m.keys.export):
		return m, m.export()
	case key.Matches(msg, m.keys.history):
		return m, m.loadHistory()
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		m.ctrl.ReturnToLogin()
		m.syncView(m.ctrl.State())
	}
	return m, nil
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit) && m.exports.FilterState() != list.Filtering:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back) && m.exports.FilterState() == list.Unfiltered:
		m.view = DashboardView
		return m, nil
	}

	var cmd tea.Cmd
	m.exports, cmd = m.exports.Update(msg)
	return m, cmd
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case update := <-m.updates:
			return stateChangedMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) activate() tea.Cmd {
	return func() tea.Msg {
		return activatedMsg(m.ctrl.Activate(m.ctx))
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg(m.ctrl.Refresh(m.ctx))
	}
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		return loggedOutMsg(m.ctrl.Logout(m.ctx))
	}
}

func (m *Model) export() tea.Cmd {
	return func() tea.Msg {
		path, err := m.ctrl.Export(m.exportDir)
		return exportedMsg(path, err)
	}
}

func (m *Model) login(password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		_, err := m.auth.Login(ctx, password)
		return loggedInMsg(err)
	}
}

func (m *Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		if m.history == nil {
			return historyLoadedMsg(nil, nil)
		}
		records, err := m.history.List(map[string]any{"limit": 20})
		return historyLoadedMsg(records, err)
	}
}

// loginMessage turns a login failure into the text shown under the password field.
func loginMessage(err error) string {
	var apiErr *shared.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.MessageOr(services.MsgInvalidPassword)
	case errors.Is(err, shared.ErrMissingArgument):
		return "Password required"
	default:
		return services.MsgNetworkError
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case VerifyingView:
		return fmt.Sprintf("%s Verifying session...\n", m.spinner.View())
	case LoadingView:
		return fmt.Sprintf("%s Loading waitlist...\n", m.spinner.View())
	case LoginView:
		return m.renderLogin()
	case DashboardView:
		return m.renderDashboard()
	case ErrorView:
		return m.renderError()
	case HistoryView:
		return m.renderHistory()
	default:
		return ""
	}
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("KanairoXO Admin")
	body := fmt.Sprintf("Enter the admin password to continue.\n\n%s", m.password.View())
	if m.loginErr != "" {
		body += "\n\n" + styles.err.Render(m.loginErr)
	}

	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "login"))
	quit := key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
	helpView := m.help.ShortHelpView([]key.Binding{submit, quit})

	return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
}

func (m *Model) renderError() string {
	msg := m.ctrl.Snapshot().Message
	if msg == "" {
		msg = dashboard.MsgVerificationFailed
	}

	back := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "back to login"))
	helpView := m.help.ShortHelpView([]key.Binding{back, m.keys.quit})

	return fmt.Sprintf("%s\n\n%s\n\n%s", styles.title.Render("KanairoXO Admin"), styles.err.Render(msg), helpView)
}

func (m *Model) renderDashboard() string {
	snap := m.ctrl.Snapshot()

	title := styles.title.Render("KanairoXO Waitlist")
	if snap.Refreshing() {
		title += " " + m.spinner.View() + styles.help.Render(" refreshing")
	}

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		statCard("Total Waitlist", snap.Summary.Total),
		statCard("Beta Testers", snap.Summary.BetaTesters),
		statCard("Ambassadors", snap.Summary.Ambassadors),
	)

	var body string
	if len(snap.Filtered) == 0 {
		body = styles.help.Render(dashboard.EmptyMessage(snap.Search))
	} else {
		body = m.table.View()
	}

	out := fmt.Sprintf("%s\n%s\n\n%s\n%s\n\n%s\n", title, cards, m.search.View(), styles.help.Render(snap.Showing()), body)

	if snap.Message != "" {
		out += "\n" + styles.err.Render(snap.Message)
	}
	if m.status != "" {
		style := styles.ok
		if m.statusErr {
			style = styles.warn
		}
		out += "\n" + style.Render(m.status)
	}
	if !snap.LoadedAt.IsZero() {
		out += "\n" + styles.help.Render("Last updated: "+snap.LoadedAt.Local().Format(time.DateTime))
	}

	helpKeys := []key.Binding{m.keys.search, m.keys.refresh, m.keys.export, m.keys.history, m.keys.logout, m.keys.quit}
	return out + "\n\n" + m.help.ShortHelpView(helpKeys)
}

func (m *Model) renderHistory() string {
	var body string
	if len(m.exports.Items()) == 0 {
		body = styles.help.Render("No exports yet.")
	} else {
		body = m.exports.View()
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}

func statCard(label string, value int) string {
	return styles.card.Render(fmt.Sprintf("%s\n%s", label, styles.ok.Render(strconv.Itoa(value))))
}
