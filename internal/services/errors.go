package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/flix/internal/shared"
)

// APIError is returned for any non-2xx response.
//
// It matches [shared.ErrAPIRequest] and the sentinel for its status class with errors.Is.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	RequestID  string
	Kind       error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return fmt.Sprintf("%v (%s)", e.Kind, msg)
}

func (e *APIError) Unwrap() []error {
	if e.Kind == shared.ErrAPIRequest {
		return []error{e.Kind}
	}
	return []error{e.Kind, shared.ErrAPIRequest}
}

// KindForStatus maps an HTTP status code onto the client's error taxonomy.
func KindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.ErrUnauthorized
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return shared.ErrValidation
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

const maxErrorMessage = 200

// errorMessage extracts a human readable message from an error body.
//
// The API answers with JSON ({"error": ...}, {"message": ...}, or validator {"errors": [{"msg": ...}]}) or plain text.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Errors  []struct {
			Msg string `json:"msg"`
		} `json:"errors"`
	}

	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		case payload.Detail != "":
			msg = payload.Detail
		case len(payload.Errors) > 0:
			parts := make([]string, 0, len(payload.Errors))
			for _, e := range payload.Errors {
				parts = append(parts, e.Msg)
			}
			msg = strings.Join(parts, "; ")
		}
	} else {
		msg = strings.TrimSpace(string(body))
	}

	if len(msg) > maxErrorMessage {
		cut := maxErrorMessage
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	return msg
}
