package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type pathHandler struct{}

func (pathHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) { w.Write([]byte("custom:" + r.URL.Path)) }
func (pathHandler) Routes() []string                                 { return []string{"/a", "/b"} }

func TestBasicRouter(t *testing.T) {
	t.Run("method patterns share a path", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodGet, "/items/{id}", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("get " + req.PathValue("id")))
		})
		r.HandleFunc(http.MethodDelete, "/items/{id}", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("delete " + req.PathValue("id")))
		})

		for method, want := range map[string]string{http.MethodGet: "get 42", http.MethodDelete: "delete 42"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(method, "/items/42", nil))
			if rec.Body.String() != want {
				t.Errorf("%s: expected %q, got %q", method, want, rec.Body.String())
			}
		}

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items/42", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("escaped segments", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodGet, "/movies/{title}", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(req.PathValue("title")))
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movies/Blade%20Runner", nil))
		if rec.Body.String() != "Blade Runner" {
			t.Errorf("expected unescaped title, got %q", rec.Body.String())
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.HandleFunc(http.MethodGet, "/", func(w http.ResponseWriter, req *http.Request) {
			order = append(order, "handler")
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("custom handler", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handler(pathHandler{})

		for _, path := range []string{"/a", "/b"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Body.String() != "custom:"+path {
				t.Errorf("unexpected body %q", rec.Body.String())
			}
		}
	})
}
