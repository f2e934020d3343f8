// Package repositories implements SQLite persistence for the client's local state.
//
// Key Implementations:
//   - [SessionRepository] : One row per API base URL holding cookies and the admin cache hint
//   - [ExportRepository] : History of CSV exports written by the dashboard
//
// IDs are v4 UUIDs generated on insert. Cookies are stored as a JSON array in a TEXT column.
package repositories
