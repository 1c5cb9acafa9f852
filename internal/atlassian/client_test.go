package atlassian

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"toolbridge/internal/logger"
)

func silenceLogs(t *testing.T) {
	t.Helper()
	root := logger.Root()
	prev := root.Out
	root.SetOutput(io.Discard)
	t.Cleanup(func() { root.SetOutput(prev) })
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", Email: "dev@example.com", APIToken: "tok"})
}

func TestDo_NotConfiguredSkipsNetwork(t *testing.T) {
	silenceLogs(t)

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(srv.Close)

	cases := []Config{
		{BaseURL: srv.URL, Email: "a@b.c"},
		{BaseURL: srv.URL, APIToken: "t"},
		{Email: "a@b.c", APIToken: "t"},
	}
	for _, cfg := range cases {
		c := New(cfg)
		if c.Configured() {
			t.Fatalf("Configured() = true for %+v", cfg)
		}
		if _, err := c.Myself(context.Background()); !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("Myself() error = %v, want ErrNotConfigured", err)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("server calls = %d, want 0", calls.Load())
	}
}

func TestDo_SendsBasicAuthAndMapsErrors(t *testing.T) {
	silenceLogs(t)

	var auth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errorMessages":["no access"]}`))
	}))

	_, err := c.Myself(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v (%T), want *APIError", err, err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Status != "Forbidden" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "no access") || !strings.Contains(err.Error(), "get current Jira user") {
		t.Fatalf("error = %q", err.Error())
	}
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("dev@example.com:tok"))
	if auth != want {
		t.Fatalf("Authorization = %q, want %q", auth, want)
	}
	if IsNotFound(err) {
		t.Fatalf("403 must not be reported as not found")
	}
}

func TestMyself(t *testing.T) {
	silenceLogs(t)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/myself" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"accountId":"acc-1","emailAddress":"dev@example.com","displayName":"Dev"}`))
	}))
	u, err := c.Myself(context.Background())
	if err != nil {
		t.Fatalf("Myself() error: %v", err)
	}
	if u.AccountID != "acc-1" || u.DisplayName != "Dev" {
		t.Fatalf("user = %+v", u)
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct{ n, def, upper, want int }{
		{0, 50, 100, 50},
		{-3, 25, 50, 25},
		{10, 50, 100, 10},
		{500, 50, 100, 100},
	}
	for _, tc := range cases {
		if got := clampLimit(tc.n, tc.def, tc.upper); got != tc.want {
			t.Fatalf("clampLimit(%d, %d, %d) = %d, want %d", tc.n, tc.def, tc.upper, got, tc.want)
		}
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Errorf("decode body: %v", err)
	}
	return body
}
