// Package dashboard implements the admin view controller for the KanairoXO waitlist.
//
// # State Machine
//
// A [Controller] moves through the states of the admin view:
//
//	Verifying → LoginRedirect | Loading | Error
//	Loading   → Loaded | Error
//	Loaded    ⇄ Refreshing
//	any       → LoginRedirect (logout)
//
// [Controller.Activate] asks the API whether the session is an admin and loads the waitlist on success.
// [Controller.Refresh] reloads from Loaded, keeping the previous collection on failure.
// [Controller.Logout] notifies the API best-effort and always clears the local session.
//
// # Filtering and Export
//
// [Filter] is a pure projection of the loaded collection by a search term.
// [Controller.Export] writes the filtered collection as CSV and records the export.
//
// # Errors
//
// Failures surface as [*Error] values carrying a [Kind] and the message shown to the user.
// Transitions are reported on an optional channel set with [Controller.SetUpdates]; sends never block.
package dashboard
