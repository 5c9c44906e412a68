package services

import (
	"net/http"
	"time"

	"github.com/desertthunder/flix/internal/shared"
	"golang.org/x/oauth2"
)

// RequestIDHeader carries a per-request identifier for correlating client and server logs.
const RequestIDHeader = "X-Request-ID"

// requestIDTransport stamps every outgoing request with a fresh [RequestIDHeader].
type requestIDTransport struct {
	base http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(RequestIDHeader, shared.GenerateID())
	return t.base.RoundTrip(r)
}

// NewHTTPClient builds the client used for API calls.
//
// When tokens is non-nil every request carries the current bearer token, read at call time.
// A nil base uses [http.DefaultTransport].
func NewHTTPClient(tokens oauth2.TokenSource, base http.RoundTripper, timeout time.Duration) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}

	var rt http.RoundTripper = &requestIDTransport{base: base}
	if tokens != nil {
		rt = &oauth2.Transport{Source: tokens, Base: rt}
	}

	return &http.Client{Transport: rt, Timeout: timeout}
}
