// Package readme serves the project README to the terminal and the site.
package readme

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Texts returned in place of README content.
const (
	NotPlainText = "README is not available as plain text in this preview."
	NotFoundText = "README.md not found."
	FailedText   = "Failed to load README.md"
)

// maxReadmeBytes bounds what is read from disk or upstream.
const maxReadmeBytes = 1 << 20

// ErrNotFound reports that no README exists at the configured location.
var ErrNotFound = errors.New("README not found")

var htmlRegex = regexp.MustCompile(`(?i)^\s*(<!DOCTYPE html>|<html)`)

// LooksLikeHTML reports whether text is an HTML document rather than
// markdown, which happens when a static host answers with its index page.
func LooksLikeHTML(text string) bool {
	return htmlRegex.MatchString(text)
}

// Source loads the README from a local file, falling back to an upstream URL.
// Loaded content is cached until Invalidate.
type Source struct {
	path     string
	upstream string
	client   *http.Client

	mu     sync.Mutex
	cached string
	valid  bool
}

// SourceConfig configures a Source. At least one of Path and UpstreamURL
// should be set.
type SourceConfig struct {
	Path        string
	UpstreamURL string
	Timeout     time.Duration
}

// NewSource creates a Source.
func NewSource(cfg SourceConfig) *Source {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Source{
		path:     cfg.Path,
		upstream: cfg.UpstreamURL,
		client:   &http.Client{Timeout: timeout},
	}
}

// Invalidate drops the cached README.
func (s *Source) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid = false
	s.cached = ""
	log.Debug().Str("path", s.path).Msg("README cache invalidated")
}

// FetchReadme returns the README text. HTML content is replaced by
// NotPlainText.
func (s *Source) FetchReadme(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.valid {
		text := s.cached
		s.mu.Unlock()
		return text, nil
	}
	s.mu.Unlock()

	text, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if LooksLikeHTML(text) {
		text = NotPlainText
	}

	s.mu.Lock()
	s.cached, s.valid = text, true
	s.mu.Unlock()
	return text, nil
}

func (s *Source) load(ctx context.Context) (string, error) {
	if s.path != "" {
		text, err := readFile(s.path)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, ErrNotFound) || s.upstream == "" {
			return "", err
		}
		log.Debug().Str("path", s.path).Msg("Local README missing, trying upstream")
	}
	if s.upstream == "" {
		return "", ErrNotFound
	}
	return get(ctx, s.client, s.upstream)
}

func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("open README: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxReadmeBytes))
	if err != nil {
		return "", fmt.Errorf("read README: %w", err)
	}
	return string(data), nil
}

func get(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build README request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, text/markdown")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch README: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxReadmeBytes))
		return "", ErrNotFound
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReadmeBytes))
	if err != nil {
		return "", fmt.Errorf("read README response: %w", err)
	}
	return string(data), nil
}

// HTTPFetcher reads the README from a running devconsole service.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher creates a fetcher for the service at baseURL.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// FetchReadme calls GET <base>/api/readme. Any non-2xx answer is ErrNotFound.
func (f *HTTPFetcher) FetchReadme(ctx context.Context) (string, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	return get(ctx, client, f.BaseURL+"/api/readme")
}

// Fetcher returns README text.
type Fetcher interface {
	FetchReadme(ctx context.Context) (string, error)
}

// Handler serves the README as text/plain.
func Handler(src Fetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")

		text, err := src.FetchReadme(r.Context())
		switch {
		case errors.Is(err, ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, NotFoundText)
			return
		case err != nil:
			log.Error().Err(err).Msg("Failed to load README")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, FailedText)
			return
		}
		if LooksLikeHTML(text) {
			text = NotPlainText
		}
		_, _ = io.WriteString(w, text)
	}
}
