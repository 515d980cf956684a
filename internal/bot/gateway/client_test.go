package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hojimahmudov/orderbot/internal/bot/session"
)

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "sessions.sqlite"))
	require.NoError(t, err)
	return store
}

func storeCredentials(t *testing.T, store *session.Store, identity int64, access, refresh string) {
	t.Helper()
	ctx := context.Background()
	sess, err := store.Get(ctx, identity)
	require.NoError(t, err)
	sess.SetCredentials(access, refresh)
	require.NoError(t, store.Save(ctx, sess))
}

func TestClientAttachesBearerAndDecodes(t *testing.T) {
	store := newTestStore(t)
	storeCredentials(t, store, 1, "valid-access", "valid-refresh")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer valid-access", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		json.NewEncoder(w).Encode(map[string]int{"id": 7})
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, store, slog.Default())
	resp, err := client.Do(context.Background(), http.MethodGet, "users/profile/", 1, nil, nil)
	require.NoError(t, err)

	var body struct {
		ID int `json:"id"`
	}
	require.NoError(t, resp.Decode(&body))
	assert.Equal(t, 7, body.ID)
}

func TestClientRefreshesOnceAndRetries(t *testing.T) {
	store := newTestStore(t)
	storeCredentials(t, store, 1, "stale-access", "valid-refresh")

	var refreshCalls, dataCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body struct {
			Refresh string `json:"refresh"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "valid-refresh", body.Refresh)
		json.NewEncoder(w).Encode(map[string]string{
			"access":  "fresh-access",
			"refresh": "fresh-refresh",
		})
	})
	mux.HandleFunc("/cart/", func(w http.ResponseWriter, r *http.Request) {
		dataCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"id": 1})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, store, slog.Default())
	resp, err := client.Do(context.Background(), http.MethodGet, "cart/", 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, int32(2), dataCalls.Load())

	// The rotated pair was persisted.
	sess, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", sess.AccessToken)
	assert.Equal(t, "fresh-refresh", sess.RefreshToken)
}

func TestClientLogsOutWhenRefreshFails(t *testing.T) {
	store := newTestStore(t)
	storeCredentials(t, store, 1, "stale-access", "dead-refresh")

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/cart/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, store, slog.Default())
	_, err := client.Do(context.Background(), http.MethodGet, "cart/", 1, nil, nil)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, Unauthorized, gerr.Kind)

	sess, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
}

func TestClientLogsOutOnSecondUnauthorized(t *testing.T) {
	store := newTestStore(t)
	storeCredentials(t, store, 1, "stale-access", "valid-refresh")

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access": "fresh-access", "refresh": "fresh-refresh"})
	})
	// The data endpoint keeps rejecting even the fresh token.
	var dataCalls atomic.Int32
	mux.HandleFunc("/cart/", func(w http.ResponseWriter, r *http.Request) {
		dataCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, store, slog.Default())
	_, err := client.Do(context.Background(), http.MethodGet, "cart/", 1, nil, nil)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, Unauthorized, gerr.Kind)
	assert.Equal(t, int32(2), dataCalls.Load())

	sess, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
}

func TestClientUnauthenticatedGetsNoRefresh(t *testing.T) {
	store := newTestStore(t)

	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})
	mux.HandleFunc("/cart/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, store, slog.Default())
	_, err := client.Do(context.Background(), http.MethodGet, "cart/", 1, nil, nil)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, Unauthorized, gerr.Kind)
	assert.Zero(t, refreshCalls.Load())
}

func TestClientErrorTaxonomy(t *testing.T) {
	store := newTestStore(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/missing/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/invalid/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "cart is empty"})
	})
	mux.HandleFunc("/broken/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/empty/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, store, slog.Default())
	ctx := context.Background()

	cases := []struct {
		endpoint  string
		kind      Kind
		transient bool
	}{
		{"missing/", NotFound, false},
		{"invalid/", ValidationError, false},
		{"broken/", ServerError, true},
	}
	for _, tc := range cases {
		_, err := client.Do(ctx, http.MethodGet, tc.endpoint, 1, nil, nil)
		var gerr *Error
		require.ErrorAs(t, err, &gerr, tc.endpoint)
		assert.Equal(t, tc.kind, gerr.Kind, tc.endpoint)
		assert.Equal(t, tc.transient, gerr.Transient(), tc.endpoint)
	}

	// Validation detail is carried through for user display.
	_, err := client.Do(ctx, http.MethodGet, "invalid/", 1, nil, nil)
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "cart is empty", gerr.Detail)

	// 204 yields a response without a body.
	resp, err := client.Do(ctx, http.MethodDelete, "empty/", 1, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, resp.Body)
	assert.Error(t, resp.Decode(&struct{}{}))
}

func TestClientTimeout(t *testing.T) {
	store := newTestStore(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(&http.Client{Timeout: 20 * time.Millisecond}, srv.URL, store, slog.Default())
	_, err := client.Do(context.Background(), http.MethodGet, "slow/", 1, nil, nil)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, Timeout, gerr.Kind)
	assert.True(t, gerr.Transient())
}
