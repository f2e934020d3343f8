package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/kxo/internal/dashboard"
	"github.com/desertthunder/kxo/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStateChanged MsgKind = iota
	MsgActivated
	MsgRefreshed
	MsgLoggedIn
	MsgLoggedOut
	MsgExported
	MsgHistoryLoaded
)

// stateChangedMsg is the constructor for [MsgStateChanged]
func stateChangedMsg(update dashboard.StateUpdate) Msg {
	return Msg{kind: MsgStateChanged, data: update}
}

// activatedMsg is the constructor for [MsgActivated]
func activatedMsg(err error) Msg {
	return Msg{kind: MsgActivated, data: err}
}

// refreshedMsg is the constructor for [MsgRefreshed]
func refreshedMsg(err error) Msg {
	return Msg{kind: MsgRefreshed, data: err}
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(err error) Msg {
	return Msg{kind: MsgLoggedIn, data: err}
}

// loggedOutMsg is the constructor for [MsgLoggedOut]
func loggedOutMsg(err error) Msg {
	return Msg{kind: MsgLoggedOut, data: err}
}

// exportedMsg is the constructor for [MsgExported]
func exportedMsg(path string, err error) Msg {
	return Msg{
		kind: MsgExported,
		data: struct {
			path string
			err  error
		}{path, err},
	}
}

// historyLoadedMsg is the constructor for [MsgHistoryLoaded]
func historyLoadedMsg(records []*models.ExportRecord, err error) Msg {
	return Msg{
		kind: MsgHistoryLoaded,
		data: struct {
			records []*models.ExportRecord
			err     error
		}{records, err},
	}
}

// errData extracts the error carried by single-error messages.
func (m Msg) errData() error {
	err, _ := m.data.(error)
	return err
}
