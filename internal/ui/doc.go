// Package ui implements the interactive admin dashboard using bubbletea's Elm architecture.
//
// The TUI follows the dashboard controller's state machine:
//  1. [VerifyingView] : Session check on startup
//  2. [LoginView] : Admin password prompt when the session is not an admin
//  3. [LoadingView] : First waitlist fetch
//  4. [DashboardView] : Stats cards, live search, the member table and CSV export
//  5. [ErrorView] : Verification or load failure with a way back to login
//  6. [HistoryView] : Previously written CSV exports
//
// The (view) [Model] implements the standard Init/Update/View pattern, receiving messages via the Msg union type.
// State transitions flow through a channel from the controller so background refreshes update the view without polling.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, /, r, e, h, L, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
