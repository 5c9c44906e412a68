// Package tasks keeps a user's favorite movies in step with the myFlix API.
//
// # Core Operations
//
// [Synchronizer] owns the materialized favorites list:
//
//  1. [Synchronizer.LoadFavorites] : Join of the user record and the catalog
//     - Fetches both concurrently; if either fails the other is cancelled
//     - Publishes nothing unless both succeed
//     - Orders movies like the user's FavoriteMovies and counts unmatched IDs as dropped
//
//  2. [Synchronizer.AddFavorite] / [Synchronizer.RemoveFavorite] : Server mutations
//     - The list is re-derived from the returned user record against the loaded catalog
//     - Mutations are serialized and require a prior load
//
//  3. [Synchronizer.ToggleFavorite] : Single entry point for views, dispatching on [Synchronizer.IsFavorite]
//
//  4. [Synchronizer.ExportFavorites] : Writes the list through package formatter,
//     optionally downloading posters with a rate-limited worker pool
//
// # Failures
//
// A failed operation leaves state unchanged and is never retried.
// The detailed error goes to the logger and a short [Notification] goes to the [Notifier].
// A rejected session (shared.ErrUnauthorized) resets the loaded state and invokes the OnUnauthorized hook so the caller can sign out.
//
// # Cancellation
//
// Every request runs in a scope derived from both the caller's context and the synchronizer's own.
// [Synchronizer.Close] cancels that scope; results that arrive afterwards, or that a newer load has superseded, are discarded.
//
// # Progress Reporting
//
// Loads and exports emit [ProgressUpdate] values on optional channels.
// Updates use select with default so a slow reader never blocks the operation.
package tasks
