package dashboard

import "fmt"

// State is a state of the admin view.
type State int

const (
	StateVerifying State = iota
	StateLoginRedirect
	StateLoading
	StateLoaded
	StateRefreshing
	StateError
)

func (s State) String() string {
	switch s {
	case StateVerifying:
		return "verifying"
	case StateLoginRedirect:
		return "login_redirect"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateRefreshing:
		return "refreshing"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists the allowed moves. Any state may move to LoginRedirect through logout.
var transitions = map[State][]State{
	StateVerifying:     {StateLoginRedirect, StateLoading, StateError},
	StateLoading:       {StateLoaded, StateError},
	StateLoaded:        {StateRefreshing, StateVerifying},
	StateRefreshing:    {StateLoaded},
	StateLoginRedirect: {StateVerifying},
	StateError:         {},
}

// CanTransition reports whether the view may move from one state to another.
func CanTransition(from, to State) bool {
	if to == StateLoginRedirect {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StateUpdate is emitted on every transition.
type StateUpdate struct {
	From    State
	To      State
	Message string // User-visible message, if any
}
