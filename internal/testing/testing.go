// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/flix/internal/models"
)

// FakeCatalog is an in-memory test double for [services.Catalog].
//
// Errors and gates are keyed by method name ("GetMovies", "GetUser", "AddFavorite", "RemoveFavorite").
// A gated method blocks until its channel is closed or the context ends.
type FakeCatalog struct {
	mu     sync.Mutex
	movies []models.Movie
	users  map[string]*models.User
	errs   map[string]error
	gates  map[string]chan struct{}
	calls  []string
}

// NewFakeCatalog returns a FakeCatalog serving movies and users.
func NewFakeCatalog(movies []models.Movie, users ...*models.User) *FakeCatalog {
	f := &FakeCatalog{
		movies: append([]models.Movie(nil), movies...),
		users:  make(map[string]*models.User),
		errs:   make(map[string]error),
		gates:  make(map[string]chan struct{}),
	}
	for _, u := range users {
		f.users[u.Username] = u.Clone()
	}
	return f
}

// SetError makes every later call to method fail with err. A nil err clears it.
func (f *FakeCatalog) SetError(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// Gate blocks later calls to method until the returned function is called.
func (f *FakeCatalog) Gate(method string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[method] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gates[method] == ch {
				delete(f.gates, method)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// SetMovies replaces the catalog.
func (f *FakeCatalog) SetMovies(movies []models.Movie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies = append([]models.Movie(nil), movies...)
}

// SetFavorites replaces the stored favorites of username.
func (f *FakeCatalog) SetFavorites(username string, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[username]; ok {
		u.FavoriteMovies = append([]string(nil), ids...)
	}
}

// User returns a copy of the stored record for username.
func (f *FakeCatalog) User(username string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[username].Clone()
}

// Calls returns the method names invoked so far, in call order.
func (f *FakeCatalog) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times method was invoked.
func (f *FakeCatalog) CallCount(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

func (f *FakeCatalog) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	gate := f.gates[method]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[method]
}

func (f *FakeCatalog) GetMovies(ctx context.Context) ([]models.Movie, error) {
	if err := f.enter(ctx, "GetMovies"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Movie(nil), f.movies...), nil
}

func (f *FakeCatalog) GetUser(ctx context.Context, username string) (*models.User, error) {
	if err := f.enter(ctx, "GetUser"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFakeUserNotFound, username)
	}
	return u.Clone(), nil
}

func (f *FakeCatalog) AddFavorite(ctx context.Context, username, movieID string) (*models.User, error) {
	if err := f.enter(ctx, "AddFavorite"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFakeUserNotFound, username)
	}
	if !u.HasFavorite(movieID) {
		u.FavoriteMovies = append(u.FavoriteMovies, movieID)
	}
	return u.Clone(), nil
}

func (f *FakeCatalog) RemoveFavorite(ctx context.Context, username, movieID string) (*models.User, error) {
	if err := f.enter(ctx, "RemoveFavorite"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFakeUserNotFound, username)
	}
	kept := u.FavoriteMovies[:0]
	for _, id := range u.FavoriteMovies {
		if id != movieID {
			kept = append(kept, id)
		}
	}
	u.FavoriteMovies = kept
	return u.Clone(), nil
}

// ErrFakeUserNotFound is returned by [FakeCatalog] for unknown usernames.
var ErrFakeUserNotFound = errors.New("fake: user not found")

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
