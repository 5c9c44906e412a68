// Package server implements a local, in-memory stand-in for the myFlix API.
//
// It backs `flix serve` for development and gives the client packages something real to talk to in end-to-end tests.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so one path can serve several methods.
//
// # Routes
//
//	POST   /users                              register (no auth)
//	POST   /login                              exchange credentials for a token (no auth)
//	GET    /movies                             catalog
//	GET    /movies/{title}                     movie by title
//	GET    /directors/{name}                   director by name
//	GET    /genres/{name}                      genre by name
//	GET    /users/{username}                   account record
//	PUT    /users/{username}                   profile edit
//	DELETE /users/{username}                   account removal (plain text confirmation)
//	GET    /users/{username}/movies            favorite movie IDs
//	POST   /users/{username}/movies/{movieID}  add favorite (idempotent)
//	DELETE /users/{username}/movies/{movieID}  remove favorite
//
// Errors are JSON objects of the form {"error": "..."}.
//
// # Authentication
//
// [TokenIssuer] signs HS256 JWTs whose _id claim identifies the account and whose Username and sub
// claims name it. [RequireAuth] verifies them; user routes additionally require the token to belong
// to the path's user, looked up by ID so a renamed account keeps its token.
// Passwords are stored as bcrypt hashes.
//
// # Seed Data
//
// [LoadSeed] reads a TOML seed file, falling back to a built-in sample catalog with one demo account.
package server
