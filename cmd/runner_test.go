package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/server"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
	tu "github.com/desertthunder/flix/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
)

const (
	alienID  = "6501a1c0e1f2a3b4c5d6e701"
	psychoID = "6501a1c0e1f2a3b4c5d6e702"
	bladeID  = "6501a1c0e1f2a3b4c5d6e704"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			manager := session.NewManager(session.NewMemoryStore(), logger)
			flix := services.NewFlixService(services.Options{})
			api := &services.APIService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Session:    manager,
				Flix:       flix,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.session != manager {
				t.Error("expected session to be set")
			}
			if runner.flix != flix {
				t.Error("expected flix to be set")
			}
			if runner.rawAPI() != api {
				t.Error("expected api to be used")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				HTTPClient: nil,
			})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with nil session and service builds both", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.session == nil {
				t.Fatal("expected a session manager")
			}
			if runner.flix == nil {
				t.Fatal("expected a flix service")
			}
			if _, ok := runner.session.Username(); ok {
				t.Error("expected a new runner to be signed out")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "movies", "favorites", "user", "api", "serve", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("requireSession", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		if _, err := runner.requireSession(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestFindMovie(t *testing.T) {
	catalog := []models.Movie{
		{ID: "m1", Title: "Alien"},
		{ID: "m2", Title: "m1"},
	}

	tests := []struct {
		name   string
		ref    string
		wantID string
		wantOK bool
	}{
		{name: "by ID", ref: "m2", wantID: "m2", wantOK: true},
		{name: "by title ignoring case", ref: "alien", wantID: "m1", wantOK: true},
		{name: "ID wins over title", ref: "m1", wantID: "m1", wantOK: true},
		{name: "unknown", ref: "Heat", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, ok := findMovie(catalog, tc.ref)
			if ok != tc.wantOK || m.ID != tc.wantID {
				t.Errorf("findMovie(%q) = %q, %v; want %q, %v", tc.ref, m.ID, ok, tc.wantID, tc.wantOK)
			}
		})
	}
}

type testEnv struct {
	runner  *Runner
	output  *bytes.Buffer
	manager *session.Manager
	issuer  *server.TokenIssuer
	url     string
}

// newTestEnv starts the stub backend with the built-in seed and a runner pointed at it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := shared.NewLogger(io.Discard)

	seed, err := server.LoadSeed("")
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	store, err := server.NewSeededStore(seed, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewSeededStore failed: %v", err)
	}
	issuer := server.NewTokenIssuer("test-secret", time.Hour)
	ts := httptest.NewServer(server.NewRouter(server.NewAPI(store, issuer, logger)))
	t.Cleanup(ts.Close)

	config := shared.DefaultConfig()
	config.API.BaseURL = ts.URL
	config.API.RequestsPerSecond = 0

	output := &bytes.Buffer{}
	manager := session.NewManager(session.NewMemoryStore(), logger)
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Session: manager,
		Logger:  logger,
		Output:  output,
	})

	return &testEnv{runner: runner, output: output, manager: manager, issuer: issuer, url: ts.URL}
}

// run executes one CLI invocation and returns what it printed.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	e.output.Reset()
	app := &cli.Command{Name: "flix", Commands: e.runner.register()}
	err := app.Run(context.Background(), append([]string{"flix"}, args...))
	return e.output.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("flix %s failed: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestCommands(t *testing.T) {
	t.Run("favorites require a session", func(t *testing.T) {
		env := newTestEnv(t)
		if _, err := env.run(t, "favorites", "list"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("login with bad credentials", func(t *testing.T) {
		env := newTestEnv(t)
		if _, err := env.run(t, "auth", "login", "-u", "demo", "-p", "wrong"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if _, ok := env.manager.Username(); ok {
			t.Error("expected to stay signed out")
		}
	})

	t.Run("session lifecycle", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.mustRun(t, "auth", "login", "-u", "demo", "-p", "demo-password")
		if !strings.Contains(out, "Signed in as demo") {
			t.Errorf("unexpected login output %q", out)
		}

		out = env.mustRun(t, "auth", "status", "--check")
		for _, want := range []string{"Signed in as: demo", "Token: ✓ accepted"} {
			if !strings.Contains(out, want) {
				t.Errorf("status output missing %q: %q", want, out)
			}
		}

		out = env.mustRun(t, "auth", "logout")
		if !strings.Contains(out, "Signed out demo") {
			t.Errorf("unexpected logout output %q", out)
		}
		out = env.mustRun(t, "auth", "status")
		if !strings.Contains(out, "Not signed in") {
			t.Errorf("unexpected status output %q", out)
		}
	})

	t.Run("favorites round trip", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "auth", "login", "-u", "demo", "-p", "demo-password")

		out := env.mustRun(t, "favorites", "list")
		alien, blade := strings.Index(out, "Alien"), strings.Index(out, "Blade Runner")
		if alien < 0 || blade < 0 || alien > blade {
			t.Errorf("expected Alien then Blade Runner, got %q", out)
		}

		out = env.mustRun(t, "favorites", "add", "psycho")
		if !strings.Contains(out, "Added Psycho") || !strings.Contains(out, "(3)") {
			t.Errorf("unexpected add output %q", out)
		}

		out = env.mustRun(t, "favorites", "toggle", alienID)
		if !strings.Contains(out, "Alien is no longer a favorite") {
			t.Errorf("unexpected toggle output %q", out)
		}

		out = env.mustRun(t, "favorites", "remove", "Blade Runner")
		if !strings.Contains(out, "Removed Blade Runner") {
			t.Errorf("unexpected remove output %q", out)
		}

		user, err := env.runner.flix.GetUser(context.Background(), "demo")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if len(user.FavoriteMovies) != 1 || user.FavoriteMovies[0] != psychoID {
			t.Errorf("expected only Psycho on the server, got %v", user.FavoriteMovies)
		}
	})

	t.Run("favorite IDs skip the catalog", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "auth", "login", "-u", "demo", "-p", "demo-password")
		if _, err := env.runner.flix.AddFavorite(context.Background(), "demo", "ghost"); err != nil {
			t.Fatalf("AddFavorite failed: %v", err)
		}

		out := env.mustRun(t, "favorites", "list", "--ids")
		if out != alienID+"\n"+bladeID+"\nghost\n" {
			t.Errorf("unexpected IDs %q", out)
		}
	})

	t.Run("adding an unknown movie fails", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "auth", "login", "-u", "demo", "-p", "demo-password")

		if _, err := env.run(t, "favorites", "add", "Jaws"); !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
	})

	t.Run("removing an entry missing from the catalog", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "auth", "login", "-u", "demo", "-p", "demo-password")
		if _, err := env.runner.flix.AddFavorite(context.Background(), "demo", "ghost"); err != nil {
			t.Fatalf("AddFavorite failed: %v", err)
		}

		out := env.mustRun(t, "favorites", "list")
		if !strings.Contains(out, "1 favorites are no longer in the catalog: ghost") {
			t.Errorf("expected dropped diagnostic, got %q", out)
		}

		env.mustRun(t, "favorites", "remove", "ghost")
		out = env.mustRun(t, "favorites", "list")
		if strings.Contains(out, "ghost") {
			t.Errorf("expected ghost to be removed, got %q", out)
		}
	})

	t.Run("rejected token signs out", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.manager.SetSession(context.Background(), "demo", "not-a-valid-token"); err != nil {
			t.Fatalf("SetSession failed: %v", err)
		}

		if _, err := env.run(t, "favorites", "list"); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
		if _, ok := env.manager.Token(); ok {
			t.Error("expected the session to be cleared")
		}
	})

	t.Run("favorites list as JSON", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "auth", "login", "-u", "demo", "-p", "demo-password")

		out := env.mustRun(t, "favorites", "list", "--json")
		if !strings.Contains(out, `"dropped":0`) || !strings.Contains(out, alienID) {
			t.Errorf("unexpected JSON %q", out)
		}
	})

	t.Run("favorites export", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "auth", "login", "-u", "demo", "-p", "demo-password")
		dir := filepath.Join(t.TempDir(), "export")

		out := env.mustRun(t, "favorites", "export", "--format", "csv", "--output", dir)
		if !strings.Contains(out, "Export Complete!") || !strings.Contains(out, "Movies: 2") {
			t.Errorf("unexpected export output %q", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	})

	t.Run("import from curl", func(t *testing.T) {
		env := newTestEnv(t)
		token, err := env.issuer.Issue(models.User{Username: "demo"})
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		curl := "curl '" + env.url + "/users/demo' -H 'Authorization: Bearer " + token + "'"

		out := env.mustRun(t, "auth", "import", "--curl", curl)
		if !strings.Contains(out, "Imported session for demo") {
			t.Errorf("unexpected import output %q", out)
		}

		out = env.mustRun(t, "user", "show")
		if !strings.Contains(out, "Favorites: 2") {
			t.Errorf("unexpected user output %q", out)
		}
	})

	t.Run("import requires a source", func(t *testing.T) {
		env := newTestEnv(t)
		if _, err := env.run(t, "auth", "import"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("movies", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "auth", "login", "-u", "demo", "-p", "demo-password")

		out := env.mustRun(t, "movies", "list")
		if !strings.Contains(out, "Found 6 movies") || !strings.Contains(out, "♥") {
			t.Errorf("unexpected list output %q", out)
		}

		out = env.mustRun(t, "movies", "show", "Heat")
		if !strings.Contains(out, "Heat") || !strings.Contains(out, "Michael Mann") {
			t.Errorf("unexpected show output %q", out)
		}

		if _, err := env.run(t, "movies", "show", "Jaws"); !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
	})

	t.Run("movies show --open", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "auth", "login", "-u", "demo", "-p", "demo-password")

		var opened string
		orig := openBrowser
		openBrowser = func(url string) error { opened = url; return nil }
		t.Cleanup(func() { openBrowser = orig })

		env.mustRun(t, "movies", "show", "--open", "Heat")
		if !strings.HasSuffix(opened, "Heatposter.jpg") {
			t.Errorf("expected the poster URL to be opened, got %q", opened)
		}
	})

	t.Run("register and delete", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.mustRun(t, "auth", "register", "-u", "carol", "-p", "pw-123456", "--email", "carol@example.com")
		if !strings.Contains(out, "Account carol created") || !strings.Contains(out, "Signed in as carol") {
			t.Errorf("unexpected register output %q", out)
		}

		if _, err := env.run(t, "user", "delete"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected confirmation to be required, got %v", err)
		}

		out = env.mustRun(t, "user", "delete", "--yes")
		if !strings.Contains(out, "carol was deleted.") {
			t.Errorf("unexpected delete output %q", out)
		}
		if _, ok := env.manager.Username(); ok {
			t.Error("expected to be signed out after deleting the account")
		}
	})

	t.Run("rename keeps the session", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "auth", "login", "-u", "demo", "-p", "demo-password")

		out := env.mustRun(t, "user", "update", "--username", "demo2")
		if !strings.Contains(out, "Profile of demo2 updated") {
			t.Errorf("unexpected update output %q", out)
		}
		if username, _ := env.manager.Username(); username != "demo2" {
			t.Errorf("expected the session to follow the rename, got %q", username)
		}

		out = env.mustRun(t, "favorites", "list")
		if !strings.Contains(out, "demo2's favorites (2)") {
			t.Errorf("unexpected favorites output %q", out)
		}
		if _, ok := env.manager.Token(); !ok {
			t.Error("expected to stay signed in after the rename")
		}
	})

	t.Run("raw api", func(t *testing.T) {
		env := newTestEnv(t)

		if _, err := env.run(t, "api", "get", "movies"); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized without a session, got %v", err)
		}

		env.mustRun(t, "auth", "login", "-u", "demo", "-p", "demo-password")
		out := env.mustRun(t, "api", "get", "--json", "/movies")
		if !strings.Contains(out, `"Title":"Alien"`) {
			t.Errorf("unexpected api output %q", out)
		}

		if _, err := env.run(t, "api", "post", "-d", "{not json", "/users"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}

		body := filepath.Join(t.TempDir(), "user.json")
		if err := os.WriteFile(body, []byte(`{"Username":"dana","Password":"pw","Email":"dana@example.com"}`), 0644); err != nil {
			t.Fatal(err)
		}
		out = env.mustRun(t, "api", "post", "-d", "@"+body, "/users")
		if !strings.Contains(out, `"Username": "dana"`) {
			t.Errorf("unexpected api post output %q", out)
		}
	})

	t.Run("setup config", func(t *testing.T) {
		env := newTestEnv(t)
		path := filepath.Join(t.TempDir(), "config.toml")

		env.mustRun(t, "setup", "config", "--config", path, "--api-url", "https://myflix.example.com")

		config, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if config.API.BaseURL != "https://myflix.example.com" {
			t.Errorf("base_url = %q", config.API.BaseURL)
		}

		if _, err := env.run(t, "setup", "config", "--config", path); err == nil {
			t.Error("expected an error for an existing config file")
		}
	})
}
