// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, status int, body string) *http.Response {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)

	resp, err := ts.Client().Get(ts.URL)
	require.NoError(t, err)
	return resp
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantExpired bool
		wantStatus  int
	}{
		{name: "ok json", status: http.StatusOK, body: `{"id":1}`},
		{name: "created", status: http.StatusCreated, body: `{"id":2}`},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"errors":"nope"}`, wantExpired: true},
		{name: "login page with 200", status: http.StatusOK, body: `<!DOCTYPE html><html><title>Login | CRM</title>`, wantExpired: true},
		{name: "server error", status: http.StatusInternalServerError, body: `{"message":"boom"}`, wantStatus: 500},
		{name: "not found", status: http.StatusNotFound, body: ``, wantStatus: 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := Check(get(t, tt.status, tt.body))
			switch {
			case tt.wantExpired:
				assert.ErrorIs(t, err, ErrSessionExpired)
			case tt.wantStatus != 0:
				var httpErr *HTTPError
				require.True(t, errors.As(err, &httpErr))
				assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
				assert.Equal(t, tt.body, httpErr.Body)
				assert.NotErrorIs(t, err, ErrSessionExpired)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.body, string(body))
			}
		})
	}
}

func TestLooksLikeLogin(t *testing.T) {
	assert.True(t, LooksLikeLogin([]byte("<html>LOGIN required")))
	assert.False(t, LooksLikeLogin([]byte(`{"search_response":[]}`)))

	// The marker only counts near the start of the body.
	late := strings.Repeat(" ", loginSniffLen) + "login"
	assert.False(t, LooksLikeLogin([]byte(late)))
}

func TestHTTPErrorTruncatesBody(t *testing.T) {
	_, err := Check(get(t, http.StatusBadGateway, strings.Repeat("x", 2*maxErrorBody)))

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Len(t, httpErr.Body, maxErrorBody+3)
	assert.Contains(t, httpErr.Error(), "HTTP 502")
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		ID int `json:"id"`
	}
	require.NoError(t, DecodeJSON(get(t, http.StatusOK, `{"id":7}`), &v))
	assert.Equal(t, 7, v.ID)

	err := DecodeJSON(get(t, http.StatusOK, `not json`), &v)
	assert.ErrorContains(t, err, "parsing response")
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	// "é" is two bytes; byte 6 is the middle of the second one.
	body := []byte("abcééé")
	got := truncate(body, 6)
	assert.Equal(t, "abcé...", got)
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, "abc", truncate([]byte("  abc "), 5))
}
