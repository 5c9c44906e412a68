package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/flix/internal/shared"
	tu "github.com/desertthunder/flix/internal/testing"
)

// rawCall is one request sent through an [APIService].
type rawCall struct {
	method string
	path   string
	body   []byte
}

func (c rawCall) send(ctx context.Context, srv *APIService) (*APIResponse, error) {
	switch c.method {
	case http.MethodGet:
		return srv.Get(ctx, c.path)
	case http.MethodPost:
		return srv.Post(ctx, c.path, c.body)
	case http.MethodPut:
		return srv.Put(ctx, c.path, c.body)
	default:
		return srv.Delete(ctx, c.path)
	}
}

var rawCalls = []rawCall{
	{method: http.MethodGet, path: "/movies"},
	{method: http.MethodPost, path: "/users", body: []byte(`{"Username":"alice","Password":"pw","Email":"alice@example.com"}`)},
	{method: http.MethodPut, path: "/users/alice", body: []byte(`{"Email":"new@example.com"}`)},
	{method: http.MethodDelete, path: "/users/alice/movies/m1"},
}

// newMyFlix serves a few myFlix routes the way the real API answers them.
func newMyFlix(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /movies", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(RequestIDHeader, r.Header.Get(RequestIDHeader))
		io.WriteString(w, `[{"_id":"m1","Title":"Alien","Genre":{"Name":"Horror"}},{"_id":"m2","Title":"Psycho"}]`)
	})
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"Username":"alice"`) {
			t.Errorf("unexpected registration body %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"_id":"u1","Username":"alice","Email":"alice@example.com","FavoriteMovies":[]}`)
	})
	mux.HandleFunc("PUT /users/{username}", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"Email":"new@example.com"}` {
			t.Errorf("unexpected update body %s", body)
		}
		fmt.Fprintf(w, `{"_id":"u1","Username":%q,"Email":"new@example.com","FavoriteMovies":["m1"]}`, r.PathValue("username"))
	})
	mux.HandleFunc("DELETE /users/{username}/movies/{movieID}", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if len(body) != 0 {
			t.Errorf("expected empty DELETE body, got %s", body)
		}
		fmt.Fprintf(w, `{"_id":"u1","Username":%q,"FavoriteMovies":[]}`, r.PathValue("username"))
	})
	mux.HandleFunc("DELETE /users/{username}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s was deleted.", r.PathValue("username"))
	})
	mux.HandleFunc("GET /users/{username}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":"Unauthorized"}`)
			return
		}
		fmt.Fprintf(w, `{"_id":"u1","Username":%q,"FavoriteMovies":["m1"]}`, r.PathValue("username"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("trims the trailing slash", func(t *testing.T) {
			client := &http.Client{}
			srv := NewAPIService("https://myflix.example.com/", client)

			if srv.baseURL != "https://myflix.example.com" {
				t.Errorf("expected trimmed base URL, got %s", srv.baseURL)
			}
			if srv.httpClient != client {
				t.Error("expected the given client to be used")
			}
		})

		t.Run("defaults", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.baseURL != defaultBaseURL {
				t.Errorf("expected %s, got %s", defaultBaseURL, srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("myFlix routes", func(t *testing.T) {
		srv := NewAPIService(newMyFlix(t).URL, nil)
		ctx := context.Background()

		t.Run("catalog is decoded as a JSON array", func(t *testing.T) {
			resp, err := srv.Get(ctx, "/movies")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !resp.OK() || !resp.IsJSON {
				t.Fatalf("expected a JSON 200, got %d (json=%v)", resp.StatusCode, resp.IsJSON)
			}
			movies, ok := resp.JSONData.([]any)
			if !ok || len(movies) != 2 {
				t.Fatalf("expected two movies, got %#v", resp.JSONData)
			}
			if first := movies[0].(map[string]any); first["Title"] != "Alien" {
				t.Errorf("expected Alien first, got %v", first["Title"])
			}
		})

		t.Run("registration", func(t *testing.T) {
			resp, err := srv.Post(ctx, "/users", rawCalls[1].body)
			if err != nil {
				t.Fatalf("Post failed: %v", err)
			}
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("expected 201, got %d", resp.StatusCode)
			}
			if user := resp.JSONData.(map[string]any); user["Username"] != "alice" {
				t.Errorf("unexpected user %v", user)
			}
		})

		t.Run("profile update", func(t *testing.T) {
			resp, err := srv.Put(ctx, "/users/alice", rawCalls[2].body)
			if err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if user := resp.JSONData.(map[string]any); user["Email"] != "new@example.com" {
				t.Errorf("unexpected user %v", user)
			}
		})

		t.Run("remove favorite", func(t *testing.T) {
			resp, err := srv.Delete(ctx, "/users/alice/movies/m1")
			if err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if user := resp.JSONData.(map[string]any); len(user["FavoriteMovies"].([]any)) != 0 {
				t.Errorf("expected no favorites, got %v", user["FavoriteMovies"])
			}
		})

		t.Run("plain text deletion message", func(t *testing.T) {
			resp, err := srv.Delete(ctx, "/users/alice")
			if err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if resp.IsJSON || resp.JSONData != nil {
				t.Error("expected a non-JSON body")
			}
			if string(resp.Body) != "alice was deleted." {
				t.Errorf("unexpected body %q", resp.Body)
			}
		})

		t.Run("error status is returned, not raised", func(t *testing.T) {
			resp, err := srv.Get(ctx, "/users/alice")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if resp.OK() || resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", resp.StatusCode)
			}
			if !errors.Is(KindForStatus(resp.StatusCode), shared.ErrUnauthorized) {
				t.Error("expected 401 to map to ErrUnauthorized")
			}
			if body := resp.JSONData.(map[string]any); body["error"] != "Unauthorized" {
				t.Errorf("unexpected error body %v", body)
			}
		})

		t.Run("unknown route", func(t *testing.T) {
			resp, err := srv.Get(ctx, "/directors")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("expected 404, got %d", resp.StatusCode)
			}
		})
	})

	t.Run("session client", func(t *testing.T) {
		server := newMyFlix(t)
		client := NewHTTPClient(staticTokens("tok"), nil, 0)

		resp, err := NewAPIService(server.URL, client).Get(context.Background(), "/users/alice")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !resp.OK() {
			t.Errorf("expected the bearer token to be sent, got %d", resp.StatusCode)
		}

		resp, err = NewAPIService(server.URL, client).Get(context.Background(), "/movies")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if resp.Headers.Get(RequestIDHeader) == "" {
			t.Error("expected a request ID to be sent and echoed")
		}
	})

	t.Run("failures", func(t *testing.T) {
		for _, call := range rawCalls {
			t.Run(call.method, func(t *testing.T) {
				t.Run("invalid path", func(t *testing.T) {
					bad := call
					bad.path = "/users/\x00alice"
					_, err := bad.send(context.Background(), NewAPIService("https://myflix.example.com", nil))
					if err == nil || !strings.Contains(err.Error(), "failed to create request") {
						t.Errorf("expected request creation error, got %v", err)
					}
				})

				t.Run("transport error", func(t *testing.T) {
					client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
					_, err := call.send(context.Background(), NewAPIService("https://myflix.example.com", client))
					if err == nil || !strings.Contains(err.Error(), "request failed") {
						t.Errorf("expected request failure, got %v", err)
					}
				})

				t.Run("body read error", func(t *testing.T) {
					client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
						StatusCode: http.StatusOK,
						Body:       &tu.FCloser{},
						Header:     http.Header{},
					}, nil)}
					_, err := call.send(context.Background(), NewAPIService("https://myflix.example.com", client))
					if err == nil || !strings.Contains(err.Error(), "failed to read response") {
						t.Errorf("expected read failure, got %v", err)
					}
				})

				t.Run("cancelled context", func(t *testing.T) {
					ctx, cancel := context.WithCancel(context.Background())
					cancel()
					if _, err := call.send(ctx, NewAPIService(newMyFlix(t).URL, nil)); !errors.Is(err, context.Canceled) {
						t.Errorf("expected context.Canceled, got %v", err)
					}
				})
			})
		}
	})
}
