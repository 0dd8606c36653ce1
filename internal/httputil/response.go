// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the CRM client: response
// classification into session-expired and HTTP errors, and JSON decoding of
// checked bodies.
package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"
)

// loginSniffLen is how many leading bytes of a response body are searched
// for the login-page marker.
const loginSniffLen = 100

// maxErrorBody caps how much of a failed response body HTTPError keeps.
const maxErrorBody = 512

// ErrSessionExpired reports that the CRM rejected the session cookie and
// anti-forgery token. The caller must obtain fresh tokens from a browser.
var ErrSessionExpired = errors.New("session expired: grab a fresh cookie and X-CSRF-Token from the browser")

// HTTPError is returned for non-2xx responses that are not session expiry.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Check reads and closes the response body and classifies the response.
// A 401 status, or a body whose first bytes mention "login", yields
// ErrSessionExpired regardless of status. Other non-2xx statuses yield an
// *HTTPError. On success the full body is returned.
func Check(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || LooksLikeLogin(body) {
		return nil, ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(body, maxErrorBody)}
	}

	return body, nil
}

// LooksLikeLogin reports whether the start of body contains the login-page
// marker, case-insensitively.
func LooksLikeLogin(body []byte) bool {
	head := body
	if len(head) > loginSniffLen {
		head = head[:loginSniffLen]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("login"))
}

// DecodeJSON checks the response and decodes its body into v.
func DecodeJSON(resp *http.Response, v any) error {
	body, err := Check(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// truncate cuts b to at most n bytes without splitting a UTF-8 sequence.
func truncate(b []byte, n int) string {
	b = bytes.TrimSpace(b)
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n]) + "..."
}
