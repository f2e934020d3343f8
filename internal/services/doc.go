// Package services talks to the KanairoXO waitlist API.
//
// # Transport
//
// [APIService] is a thin JSON client: every request carries an X-Request-ID and responses come back as
// [APIResponse] values that callers decode.
//
// # Waitlist API
//
// [WaitlistService] implements [WaitlistAPI] on top of it: session verification, waitlist fetch,
// admin login and logout, signup and health.
// Server rejections of the form {success: false, message} become [*shared.APIError] so callers can show the
// server's message; transport failures wrap [shared.ErrAPIRequest].
//
// # Sessions
//
// The API authenticates with a session cookie. [CookieSession] keeps that cookie in a [net/http/cookiejar]
// seeded from, and saved back to, the SQLite session row, so a login survives between runs.
package services
