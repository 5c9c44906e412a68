// Package services defines the [Service] interface for the myFlix movie API and implements it with [FlixService].
//
// # Service Interface
//
// [Service] covers registration, login, catalog reads, profile edits and favorite mutations.
// The favorites synchronizer depends only on the narrower [Catalog] interface.
//
// # Authentication
//
// Authenticated calls go through an [oauth2.Transport] whose token source is the session manager,
// so the bearer token is read when each request is sent rather than when the client is built.
// Register and Login use a separate client that never attaches a token.
//
// # Request Pacing
//
// A [rate.Limiter] spaces outgoing requests. Nothing is retried: a failed call returns its error
// and the caller decides what to do.
//
// # Error Handling
//
// Errors use the sentinel taxonomy from the shared package:
//   - [shared.ErrNetwork] : transport failure, no response received
//   - [shared.ErrNotAuthenticated] : no session to read a token from
//   - [shared.ErrUnauthorized] : 401 or 403 from the API
//   - [shared.ErrNotFound] : 404, refined to [shared.ErrMovieNotFound] or [shared.ErrUserNotFound] where known
//   - [shared.ErrValidation] : 400, 409 or 422
//   - [shared.ErrAPIRequest] : any non-2xx response
//
// Non-2xx responses are returned as [*APIError] carrying the status code, the server's message and
// the X-Request-ID sent with the request.
//
// # Raw Access
//
// [APIService] sends arbitrary requests and returns the raw response for the `flix api` commands.
package services
