package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/devconsole/internal/catalog"
	"github.com/thebtf/devconsole/internal/kv"
	"github.com/thebtf/devconsole/internal/readme"
	"github.com/thebtf/devconsole/internal/session"
)

type fetcherFunc func(ctx context.Context) (string, error)

func (f fetcherFunc) FetchReadme(ctx context.Context) (string, error) { return f(ctx) }

func testService(t *testing.T, opts Options) *Service {
	t.Helper()
	if opts.Store == nil {
		opts.Store = session.New(kv.NewMemory())
		opts.Store.LoadOnInit(context.Background())
	}
	if opts.Version == "" {
		opts.Version = "test-version"
	}
	svc := New(opts)
	svc.ready.Store(true)
	return svc
}

func do(t *testing.T, svc *Service, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHandleHealth(t *testing.T) {
	svc := testService(t, Options{Backend: "memory"})

	rec := do(t, svc, http.MethodGet, "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test-version", body["version"])
	assert.Equal(t, "memory", body["backend"])
}

func TestHandleReadme(t *testing.T) {
	tests := []struct {
		name   string
		src    readme.Fetcher
		status int
		body   string
	}{
		{"ok", fetcherFunc(func(context.Context) (string, error) { return "Line1\nLine2", nil }), http.StatusOK, "Line1\nLine2"},
		{"missing", fetcherFunc(func(context.Context) (string, error) { return "", readme.ErrNotFound }), http.StatusNotFound, readme.NotFoundText},
		{"failure", fetcherFunc(func(context.Context) (string, error) { return "", errors.New("boom") }), http.StatusInternalServerError, readme.FailedText},
		{"not configured", nil, http.StatusNotFound, readme.NotFoundText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testService(t, Options{Readme: tt.src})

			rec := do(t, svc, http.MethodGet, "/api/readme")

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestHandleEggs_DiscoverAndList(t *testing.T) {
	svc := testService(t, Options{})

	rec := do(t, svc, http.MethodPost, "/api/eggs/contact-form")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[discoverResponse](t, rec)
	assert.Equal(t, discoverResponse{ID: "contact-form", Added: true, Points: 20}, created)

	rec = do(t, svc, http.MethodPost, "/api/eggs/contact-form")
	require.Equal(t, http.StatusOK, rec.Code)
	again := decode[discoverResponse](t, rec)
	assert.False(t, again.Added)
	assert.Equal(t, 20, again.Points)

	rec = do(t, svc, http.MethodGet, "/api/eggs")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[eggsResponse](t, rec)
	assert.Equal(t, 20, list.Points)
	assert.Equal(t, catalog.Default().TotalPoints(), list.MaxPoints)
	assert.Equal(t, 1, list.Collected)
	assert.Len(t, list.Eggs, list.Total)
	for _, egg := range list.Eggs {
		assert.Equal(t, egg.ID == "contact-form", egg.Collected, egg.ID)
	}
}

func TestHandleEggs_UnknownID(t *testing.T) {
	svc := testService(t, Options{})

	rec := do(t, svc, http.MethodPost, "/api/eggs/not-an-egg")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, svc.store.Points())
}

func TestHandleEggs_Reset(t *testing.T) {
	svc := testService(t, Options{})
	do(t, svc, http.MethodPost, "/api/eggs/resume-download")
	require.Equal(t, 10, svc.store.Points())

	rec := do(t, svc, http.MethodDelete, "/api/eggs")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, svc.store.Points())
	assert.Empty(t, svc.store.Eggs())
}

func TestHandleHistory(t *testing.T) {
	svc := testService(t, Options{})
	ctx := context.Background()

	rec := do(t, svc, http.MethodGet, "/api/terminal/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[],"max_entries":100}`, rec.Body.String())

	svc.store.AppendTranscriptEntry(ctx, "whoami", []string{"poza"})
	rec = do(t, svc, http.MethodGet, "/api/terminal/history")
	history := decode[historyResponse](t, rec)
	require.Len(t, history.Entries, 1)
	assert.Equal(t, "whoami", history.Entries[0].Command)
	assert.Equal(t, []string{"poza"}, history.Entries[0].Output)

	rec = do(t, svc, http.MethodDelete, "/api/terminal/history")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, svc.store.Transcript())
}

func TestRateLimit(t *testing.T) {
	svc := testService(t, Options{RateLimit: 0.001, RateBurst: 2})

	assert.Equal(t, http.StatusCreated, do(t, svc, http.MethodPost, "/api/eggs/home-hero-click").Code)
	assert.Equal(t, http.StatusCreated, do(t, svc, http.MethodPost, "/api/eggs/home-title-click").Code)

	rec := do(t, svc, http.MethodPost, "/api/eggs/about-window-click")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.False(t, svc.store.HasEgg("about-window-click"))

	// Reads are not limited.
	assert.Equal(t, http.StatusOK, do(t, svc, http.MethodGet, "/api/eggs").Code)
}

func TestClientLimiter_PerClient(t *testing.T) {
	l := newClientLimiter(0.001, 1)

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
}

func TestCORS(t *testing.T) {
	svc := testService(t, Options{AllowedOrigins: []string{"https://poza.dev"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/eggs/contact-form", nil)
	req.Header.Set("Origin", "https://poza.dev")
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://poza.dev", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/eggs", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeIndex(t *testing.T) {
	svc := testService(t, Options{})

	rec := do(t, svc, http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/api/events")
}

func TestStoreEventsArePublished(t *testing.T) {
	svc := testService(t, Options{})
	w := newFlushRecorder()
	_, err := svc.Broadcaster().AddClient(w)
	require.NoError(t, err)

	svc.store.AddAchievement(context.Background(), "contact-form", 20)

	body := w.Body()
	assert.Contains(t, body, "event: egg_discovered\n")
	assert.Contains(t, body, "event: scoreboard\n")
	assert.Contains(t, body, `"points":20`)
}
