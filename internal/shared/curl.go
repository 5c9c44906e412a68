// Utilities for parsing cURL commands copied from browser DevTools.
package shared

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	curlHeaderRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRegex = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
	curlURLRegex    = regexp.MustCompile(`'(https?://[^']+)'|"(https?://[^"]+)"|\s(https?://\S+)`)
)

// CurlRequest represents the parts of a cURL command flix cares about.
type CurlRequest struct {
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlRequest, error) {
	content, err := VerifyAndReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts its URL, headers and cookie.
func ParseCurlCommand(data []byte) (*CurlRequest, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	req := &CurlRequest{Headers: make(map[string]string)}

	if m := curlURLRegex.FindStringSubmatch(curlCmd); m != nil {
		req.URL = firstNonEmpty(m[1:]...)
	}

	var headerCookie string
	for _, match := range curlHeaderRegex.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstNonEmpty(match[1], match[2]), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		req.Headers[key] = value
	}

	if m := curlCookieRegex.FindStringSubmatch(curlCmd); m != nil {
		req.Cookie = firstNonEmpty(m[1], m[2])
	}
	if req.Cookie == "" {
		req.Cookie = headerCookie
	}

	if len(req.Headers) == 0 && req.Cookie == "" {
		return nil, fmt.Errorf("no headers found in curl command")
	}

	return req, nil
}

// Header returns the value of the named header, ignoring case.
func (c *CurlRequest) Header(name string) (string, bool) {
	for k, v := range c.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// BearerToken returns the credential of an "Authorization: Bearer" header.
func (c *CurlRequest) BearerToken() (string, error) {
	auth, ok := c.Header("Authorization")
	if !ok {
		return "", fmt.Errorf("%w: no Authorization header in curl command", ErrInvalidInput)
	}

	scheme, token, _ := strings.Cut(strings.TrimSpace(auth), " ")
	token = strings.TrimSpace(token)
	if !strings.EqualFold(scheme, "bearer") || token == "" || token == "null" {
		return "", fmt.Errorf("%w: Authorization header is not a bearer token", ErrInvalidInput)
	}
	return token, nil
}

// BaseURL returns the scheme and host of the request URL, e.g. "https://myflix.example.com".
func (c *CurlRequest) BaseURL() (string, error) {
	if c.URL == "" {
		return "", fmt.Errorf("%w: no URL in curl command", ErrInvalidInput)
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: malformed URL %q", ErrInvalidInput, c.URL)
	}
	return u.Scheme + "://" + u.Host, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
