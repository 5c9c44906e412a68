// Package models defines the domain entities exchanged with the myFlix API and held by the client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs decoded from and encoded to the API wire format
//   - [Movie] : Catalog entry with its embedded [Director] and [Genre]
//   - [User] : Account record owning the ordered FavoriteMovies identifiers
//   - [Registration], [UserUpdate] : Request bodies for account creation and profile edits
//   - [LoginResult] : Token and user returned by a successful login
//
// 2. Client State: values owned locally by the session store and favorites synchronizer
//   - [Session] : Bearer token and username for the signed-in profile
//   - [Favorites] : Materialized favorites list derived from a user record and the catalog
//
// The user record is server-authoritative: it is replaced wholesale by API responses and never
// mutated in place. [Materialize] is the only place favorites are derived.
package models
