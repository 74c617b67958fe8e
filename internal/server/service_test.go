package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/devconsole/internal/kv"
	"github.com/thebtf/devconsole/internal/session"
)

// flushRecorder is a ResponseRecorder safe for concurrent writes.
type flushRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func newFlushRecorder() *flushRecorder {
	return &flushRecorder{rec: httptest.NewRecorder()}
}

func (f *flushRecorder) Header() http.Header { return f.rec.Header() }

func (f *flushRecorder) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rec.Write(b)
}

func (f *flushRecorder) WriteHeader(code int) { f.rec.WriteHeader(code) }

func (f *flushRecorder) Flush() {}

func (f *flushRecorder) Body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rec.Body.String()
}

func TestService_StartAndShutdown(t *testing.T) {
	store := session.New(kv.NewMemory())
	svc := New(Options{Addr: "127.0.0.1:0", Store: store, Version: "test"})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(ctx) }()

	require.Eventually(t, svc.ready.Load, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not shut down")
	}
	assert.False(t, svc.ready.Load())
}

func TestService_StartFailsOnBadAddr(t *testing.T) {
	store := session.New(kv.NewMemory())
	svc := New(Options{Addr: "256.0.0.1:-1", Store: store})

	err := svc.Start(context.Background())
	assert.Error(t, err)
}

func TestHandleHealth_NotReady(t *testing.T) {
	store := session.New(kv.NewMemory())
	svc := New(Options{Store: store})

	rec := do(t, svc, http.MethodGet, "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"starting"`)
}
