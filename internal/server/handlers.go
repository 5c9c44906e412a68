package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// API serves the myFlix routes from a [Store].
type API struct {
	store  *Store
	issuer *TokenIssuer
	logger *log.Logger
}

// NewAPI creates an API.
func NewAPI(store *Store, issuer *TokenIssuer, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &API{store: store, issuer: issuer, logger: logger}
}

// NewRouter builds the router of the stub backend with request ID, logging and recovery middleware.
func NewRouter(api *API) *BasicRouter {
	r := NewBasicRouter()
	r.Use(RequestID(), Logging(api.logger), Recover(api.logger))

	r.HandleFunc(http.MethodPost, "/users", api.register)
	r.HandleFunc(http.MethodPost, "/login", api.login)

	auth := RequireAuth(api.issuer)
	r.Handle(http.MethodGet, "/movies", auth(http.HandlerFunc(api.movies)))
	r.Handle(http.MethodGet, "/movies/{title}", auth(http.HandlerFunc(api.movie)))
	r.Handle(http.MethodGet, "/directors/{name}", auth(http.HandlerFunc(api.director)))
	r.Handle(http.MethodGet, "/genres/{name}", auth(http.HandlerFunc(api.genre)))
	r.Handle(http.MethodGet, "/users/{username}", auth(api.self(api.getUser)))
	r.Handle(http.MethodGet, "/users/{username}/movies", auth(api.self(api.favoriteIDs)))
	r.Handle(http.MethodPut, "/users/{username}", auth(api.self(api.updateUser)))
	r.Handle(http.MethodDelete, "/users/{username}", auth(api.self(api.deleteUser)))
	r.Handle(http.MethodPost, "/users/{username}/movies/{movieID}", auth(api.self(api.addFavorite)))
	r.Handle(http.MethodDelete, "/users/{username}/movies/{movieID}", auth(api.self(api.removeFavorite)))

	return r
}

// self allows a user route only for the user the token was issued to.
//
// Tokens carrying a user ID are resolved to the account's current username, so a token
// stays valid across a rename. Tokens without one fall back to their username claim.
func (a *API) self(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFrom(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		username := claims.User()
		if claims.UserID != "" {
			name, ok := a.store.UsernameByID(claims.UserID)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			username = name
		}

		if username != r.PathValue("username") {
			writeError(w, http.StatusForbidden, "You can only access your own account")
			return
		}
		next(w, r)
	}
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := a.store.CreateUser(reg)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, presentUser(user))
}

// login accepts credentials as a JSON body or as Username/Password query parameters.
func (a *API) login(w http.ResponseWriter, r *http.Request) {
	creds := struct {
		Username string `json:"Username"`
		Password string `json:"Password"`
	}{
		Username: r.URL.Query().Get("Username"),
		Password: r.URL.Query().Get("Password"),
	}
	if creds.Username == "" && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and Password are required")
		return
	}

	user, err := a.store.Authenticate(creds.Username, creds.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Incorrect username or password.")
		return
	}

	token, err := a.issuer.Issue(user)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResult{User: presentUser(user), Token: token})
}

func (a *API) movies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Movies())
}

func (a *API) movie(w http.ResponseWriter, r *http.Request) {
	movie, err := a.store.Movie(r.PathValue("title"))
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (a *API) director(w http.ResponseWriter, r *http.Request) {
	director, err := a.store.Director(r.PathValue("name"))
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, director)
}

func (a *API) genre(w http.ResponseWriter, r *http.Request) {
	genre, err := a.store.Genre(r.PathValue("name"))
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genre)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.store.User(r.PathValue("username"))
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presentUser(user))
}

func (a *API) favoriteIDs(w http.ResponseWriter, r *http.Request) {
	user, err := a.store.User(r.PathValue("username"))
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presentUser(user).FavoriteMovies)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	var update models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := a.store.UpdateUser(r.PathValue("username"), update)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presentUser(user))
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if err := a.store.DeleteUser(username); err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s was deleted.", username)
}

func (a *API) addFavorite(w http.ResponseWriter, r *http.Request) {
	user, err := a.store.AddFavorite(r.PathValue("username"), r.PathValue("movieID"))
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presentUser(user))
}

func (a *API) removeFavorite(w http.ResponseWriter, r *http.Request) {
	user, err := a.store.RemoveFavorite(r.PathValue("username"), r.PathValue("movieID"))
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presentUser(user))
}

// presentUser encodes empty favorites as [] rather than null.
func presentUser(u models.User) models.User {
	if u.FavoriteMovies == nil {
		u.FavoriteMovies = []string{}
	}
	return u
}

// statusFor maps store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, shared.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrAuthFailed), errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrUserNotFound), errors.Is(err, shared.ErrMovieNotFound), errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
