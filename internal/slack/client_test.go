package slack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/mimic/internal/errors"
)

// requestToken returns the bot token from the Authorization header or, for
// older client versions, the form body.
func requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.FormValue("token")
}

func TestClient_Notify(t *testing.T) {
	var channel, text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "xoxb-test", requestToken(r))
		channel, text = r.FormValue("channel"), r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "channel": "C1", "ts": "1700000000.000100"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "xoxb-test", srv.Client(), nil)
	require.NoError(t, c.Notify(context.Background(), "C1", "hello"))
	require.Equal(t, "C1", channel)
	require.Equal(t, "hello", text)
}

func TestClient_NotifyAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "xoxb-test", srv.Client(), nil)
	err := c.Notify(context.Background(), "C404", "hello")
	require.True(t, errors.Is(err, errors.ErrUpstream), "got %v", err)
	require.Contains(t, err.Error(), "channel_not_found")
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "xoxb-test", srv.Client(), nil)
	err := c.Notify(context.Background(), "C1", "hello")
	require.True(t, errors.Is(err, errors.ErrUpstream), "got %v", err)
	require.Contains(t, err.Error(), "500")
}

func TestClient_DisplayName(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/users.info", r.URL.Path)
		assert.Equal(t, "U1", r.FormValue("user"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "user": {"id": "U1", "name": "alice", "real_name": "Alice A", "profile": {"display_name": "", "real_name": "Alice Anderson"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "xoxb-test", srv.Client(), nil)
	name, err := c.DisplayName(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, "Alice Anderson", name)

	// Second lookup is served from cache.
	name, err = c.DisplayName(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, "Alice Anderson", name)
	require.Equal(t, int32(1), calls.Load())
}

func TestClient_DisplayNameFallsBackToHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "user": {"id": "U2", "name": "bob", "profile": {}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "xoxb-test", srv.Client(), nil)
	name, err := c.DisplayName(context.Background(), "U2")
	require.NoError(t, err)
	require.Equal(t, "bob", name)
}

func TestClient_DisplayNameUserNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": false, "error": "user_not_found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "xoxb-test", srv.Client(), nil)
	_, err := c.DisplayName(context.Background(), "U404")
	require.True(t, errors.Is(err, errors.ErrUpstream), "got %v", err)
	require.Contains(t, err.Error(), "user_not_found")
}
