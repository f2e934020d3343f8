// Package models defines domain entities and persistence interfaces for the kxo waitlist admin client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): read-only data owned by the waitlist API
//   - [WaitlistEntry] : One registrant, decoded from either camelCase or snake_case JSON
//   - [Timestamp] : Tolerant time decoding for the API's created_at values
//
// 2. Persistent Entities: local SQLite-backed records
//   - [Session] : Cookies and the cached admin hint for one API base URL
//   - [ExportRecord] : History of CSV exports written by the dashboard
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
