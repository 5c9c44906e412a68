// myFlix API implementation of [Service]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://127.0.0.1:8080"

// Options configures a [FlixService].
type Options struct {
	BaseURL string
	// Tokens supplies the bearer token for authenticated calls, normally [session.Manager.TokenSource].
	Tokens oauth2.TokenSource
	// Transport is the base round tripper; nil uses [http.DefaultTransport].
	Transport         http.RoundTripper
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *log.Logger
}

// FlixService implements the [Service] interface for the myFlix API.
//
// Requests are paced by a client-side [rate.Limiter]; failed requests are never retried.
type FlixService struct {
	baseURL    string
	authClient *http.Client
	anonClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewFlixService creates a myFlix API client.
func NewFlixService(opts Options) *FlixService {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	authClient := NewHTTPClient(opts.Tokens, opts.Transport, opts.Timeout)
	if opts.Tokens == nil {
		authClient = NewHTTPClient(missingTokenSource{}, opts.Transport, opts.Timeout)
	}

	return &FlixService{
		baseURL:    baseURL,
		authClient: authClient,
		anonClient: NewHTTPClient(nil, opts.Transport, opts.Timeout),
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

type missingTokenSource struct{}

func (missingTokenSource) Token() (*oauth2.Token, error) { return nil, shared.ErrNotAuthenticated }

// BaseURL returns the API root requests are sent to.
func (s *FlixService) BaseURL() string {
	return s.baseURL
}

// doRequest sends body as JSON and returns the response body of a 2xx response.
//
// Transport failures wrap [shared.ErrNetwork], a missing session wraps [shared.ErrNotAuthenticated]
// and non-2xx responses are returned as [*APIError].
func (s *FlixService) doRequest(ctx context.Context, method, endpoint string, authenticated bool, body any) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request not sent: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, shared.GenerateID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := s.anonClient
	if authenticated {
		client = s.authClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotAuthenticated):
			return nil, fmt.Errorf("%w: sign in first", shared.ErrNotAuthenticated)
		case ctx.Err() != nil:
			return nil, fmt.Errorf("request canceled: %w", ctx.Err())
		default:
			return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrNetwork, method, endpoint, err)
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrNetwork, err)
	}

	requestID := req.Header.Get(RequestIDHeader)
	s.logger.Debug("api request",
		"method", method,
		"path", endpoint,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method:     method,
			Path:       endpoint,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			RequestID:  requestID,
			Kind:       KindForStatus(resp.StatusCode),
		}
	}

	return data, nil
}

func (s *FlixService) doJSON(ctx context.Context, method, endpoint string, authenticated bool, body, result any) error {
	data, err := s.doRequest(ctx, method, endpoint, authenticated, body)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

func userPath(username string, rest ...string) string {
	p := "/users/" + url.PathEscape(username)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

// Register creates a new account.
func (s *FlixService) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var user models.User
	if err := s.doJSON(ctx, http.MethodPost, "/users", false, r, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token. Rejected credentials wrap [shared.ErrAuthFailed].
func (s *FlixService) Login(ctx context.Context, username, password string) (*models.LoginResult, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password", shared.ErrMissingArgument)
	}

	body := map[string]string{"Username": username, "Password": password}

	var result models.LoginResult
	if err := s.doJSON(ctx, http.MethodPost, "/login", false, body, &result); err != nil {
		if errors.Is(err, shared.ErrUnauthorized) || errors.Is(err, shared.ErrValidation) {
			return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		return nil, err
	}

	if result.Token == "" {
		return nil, fmt.Errorf("%w: login response has no token", shared.ErrAuthFailed)
	}
	return &result, nil
}

// GetMovies retrieves the full catalog.
func (s *FlixService) GetMovies(ctx context.Context) ([]models.Movie, error) {
	var movies []models.Movie
	if err := s.doJSON(ctx, http.MethodGet, "/movies", true, nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// GetMovie retrieves a movie by title.
func (s *FlixService) GetMovie(ctx context.Context, title string) (*models.Movie, error) {
	var movie models.Movie
	if err := s.doJSON(ctx, http.MethodGet, "/movies/"+url.PathEscape(title), true, nil, &movie); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", shared.ErrMovieNotFound, err)
		}
		return nil, err
	}
	return &movie, nil
}

// GetDirector retrieves a director by name.
func (s *FlixService) GetDirector(ctx context.Context, name string) (*models.Director, error) {
	var director models.Director
	if err := s.doJSON(ctx, http.MethodGet, "/directors/"+url.PathEscape(name), true, nil, &director); err != nil {
		return nil, err
	}
	return &director, nil
}

// GetGenre retrieves a genre by name.
func (s *FlixService) GetGenre(ctx context.Context, name string) (*models.Genre, error) {
	var genre models.Genre
	if err := s.doJSON(ctx, http.MethodGet, "/genres/"+url.PathEscape(name), true, nil, &genre); err != nil {
		return nil, err
	}
	return &genre, nil
}

// GetUser retrieves a user record.
func (s *FlixService) GetUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.doJSON(ctx, http.MethodGet, userPath(username), true, nil, &user); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", shared.ErrUserNotFound, err)
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a profile edit.
func (s *FlixService) UpdateUser(ctx context.Context, username string, update models.UserUpdate) (*models.User, error) {
	if update.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", shared.ErrInvalidInput)
	}

	var user models.User
	if err := s.doJSON(ctx, http.MethodPut, userPath(username), true, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account.
func (s *FlixService) DeleteUser(ctx context.Context, username string) (string, error) {
	data, err := s.doRequest(ctx, http.MethodDelete, userPath(username), true, nil)
	if err != nil {
		return "", err
	}

	var text string
	if json.Unmarshal(data, &text) == nil {
		return text, nil
	}
	return strings.TrimSpace(string(data)), nil
}

// AddFavorite adds movieID to the user's favorites.
func (s *FlixService) AddFavorite(ctx context.Context, username, movieID string) (*models.User, error) {
	var user models.User
	if err := s.doJSON(ctx, http.MethodPost, userPath(username, "movies", movieID), true, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetFavoriteIDs lists the user's favorite movie IDs without fetching the catalog.
func (s *FlixService) GetFavoriteIDs(ctx context.Context, username string) ([]string, error) {
	var ids []string
	if err := s.doJSON(ctx, http.MethodGet, userPath(username, "movies"), true, nil, &ids); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", shared.ErrUserNotFound, err)
		}
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// RemoveFavorite removes movieID from the user's favorites.
func (s *FlixService) RemoveFavorite(ctx context.Context, username, movieID string) (*models.User, error) {
	var user models.User
	if err := s.doJSON(ctx, http.MethodDelete, userPath(username, "movies", movieID), true, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
