// Package server provides HTTP routing, middleware, and an in-memory stub of the waitlist API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] with method-qualified patterns ("GET /api/waitlist").
//
// # Middleware
//
//   - [RequestLogger] : logs method, path, status, duration and the client's X-Request-ID
//   - [Recoverer] : converts handler panics into 500 responses
//
// # Stub API
//
// [StubAPI] implements the six waitlist endpoints in memory. Admin login issues an HttpOnly "session" cookie;
// the waitlist endpoint answers 401 {success: false} without it. Rows are encoded the way the production
// backend does (snake_case flags, RFC 1123 dates) so clients exercise the same decoding paths.
//
// `kxo stub` serves it through [NewStubRouter] and [ListenAndServe] for local demos; package tests use it
// behind [net/http/httptest].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
