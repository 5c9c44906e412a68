// Package repositories implements SQLite persistence for the client's local state.
//
// Only the session is persisted; the catalog and user record always come from the API.
//
// Key Implementations:
//   - [SessionRepository] : Single-slot session storage satisfying [session.Store]
//
// Every sign-in and sign-out is appended to the session_events table through
// [SessionRepository.RecordEvent] and can be listed with [SessionRepository.Events].
package repositories
