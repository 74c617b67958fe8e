package readme

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"<!DOCTYPE html><html></html>", true},
		{"  \n<!doctype HTML>", true},
		{"<html lang=en>", true},
		{"# Title\n<html> later", false},
		{"plain", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksLikeHTML(tt.text), tt.text)
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSource_File(t *testing.T) {
	path := writeFile(t, "# devconsole\nhello")
	src := NewSource(SourceConfig{Path: path})

	text, err := src.FetchReadme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "# devconsole\nhello", text)
}

func TestSource_CachesUntilInvalidate(t *testing.T) {
	path := writeFile(t, "v1")
	src := NewSource(SourceConfig{Path: path})
	ctx := context.Background()

	_, err := src.FetchReadme(ctx)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	text, err := src.FetchReadme(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", text)

	src.Invalidate()
	text, err = src.FetchReadme(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", text)
}

func TestSource_HTMLIsReplaced(t *testing.T) {
	src := NewSource(SourceConfig{Path: writeFile(t, "<!DOCTYPE html><html></html>")})

	text, err := src.FetchReadme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NotPlainText, text)
}

func TestSource_Missing(t *testing.T) {
	src := NewSource(SourceConfig{Path: filepath.Join(t.TempDir(), "README.md")})

	_, err := src.FetchReadme(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewSource(SourceConfig{}).FetchReadme(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSource_FallsBackToUpstream(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "from upstream")
	}))
	defer upstream.Close()

	src := NewSource(SourceConfig{
		Path:        filepath.Join(t.TempDir(), "README.md"),
		UpstreamURL: upstream.URL + "/README.md",
	})

	text, err := src.FetchReadme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from upstream", text)

	_, err = src.FetchReadme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSource_UpstreamNotFound(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	defer upstream.Close()

	src := NewSource(SourceConfig{UpstreamURL: upstream.URL})

	_, err := src.FetchReadme(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPFetcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/readme", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Line1\nLine2")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/", 0)
	text, err := f.FetchReadme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Line1\nLine2", text)
}

func TestHTTPFetcher_NonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.URL, 0).FetchReadme(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "README not found", err.Error())
}

type fetcherFunc func(ctx context.Context) (string, error)

func (f fetcherFunc) FetchReadme(ctx context.Context) (string, error) { return f(ctx) }

func TestHandler(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		err    error
		status int
		body   string
	}{
		{"ok", "# Hi", nil, http.StatusOK, "# Hi"},
		{"html", "<html><body/></html>", nil, http.StatusOK, NotPlainText},
		{"missing", "", ErrNotFound, http.StatusNotFound, NotFoundText},
		{"failure", "", errors.New("disk on fire"), http.StatusInternalServerError, FailedText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Handler(fetcherFunc(func(context.Context) (string, error) { return tt.text, tt.err }))
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/readme", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		})
	}
}
