// Package sse streams scoreboard events to browsers over Server-Sent Events.
package sse

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// WriteTimeout bounds a write to one client so a stale connection cannot
	// stall a broadcast.
	WriteTimeout = 2 * time.Second

	// EventConnected is the first event every client receives.
	EventConnected = "connected"
)

var (
	// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush.
	ErrStreamingUnsupported = errors.New("streaming not supported")

	// ErrClientClosed is returned by writes after the client's handler returned.
	ErrClientClosed = errors.New("sse client closed")
)

// Client is one connected event stream.
type Client struct {
	ID      string
	Writer  http.ResponseWriter
	Flusher http.Flusher
	Done    chan struct{}

	writeMu   sync.Mutex
	sealed    bool // guarded by writeMu; Writer must not be touched once set
	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.Done) })
}

func (c *Client) write(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.sealed {
		return ErrClientClosed
	}
	if _, err := c.Writer.Write(frame); err != nil {
		return err
	}
	c.Flusher.Flush()
	return nil
}

// seal waits for an in-flight write and rejects later ones. A timed-out
// write may still be running on a detached goroutine.
func (c *Client) seal() {
	c.writeMu.Lock()
	c.sealed = true
	c.writeMu.Unlock()
}

// Broadcaster fans events out to every connected client.
type Broadcaster struct {
	clients map[string]*Client
	mu      sync.RWMutex

	// snapshot, when set, is sent to each new client after the connected
	// event so a fresh scoreboard does not wait for the next change.
	snapshot func() (string, any)
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[string]*Client)}
}

// SetSnapshot installs the initial-state provider used by HandleSSE.
func (b *Broadcaster) SetSnapshot(fn func() (event string, data any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshot = fn
}

// AddClient registers w as an event stream.
func (b *Broadcaster) AddClient(w http.ResponseWriter) (*Client, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	client := &Client{
		ID:      uuid.NewString(),
		Writer:  w,
		Flusher: flusher,
		Done:    make(chan struct{}),
	}

	b.mu.Lock()
	b.clients[client.ID] = client
	count := len(b.clients)
	b.mu.Unlock()

	log.Debug().Str("clientId", client.ID).Int("totalClients", count).Msg("SSE client connected")
	return client, nil
}

// RemoveClient unregisters client and closes its Done channel. Safe to call
// more than once.
func (b *Broadcaster) RemoveClient(client *Client) {
	b.mu.Lock()
	if current, ok := b.clients[client.ID]; ok && current == client {
		delete(b.clients, client.ID)
	}
	count := len(b.clients)
	b.mu.Unlock()

	client.close()
	log.Debug().Str("clientId", client.ID).Int("totalClients", count).Msg("SSE client disconnected")
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Frame encodes one SSE frame.
func Frame(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", event, err)
	}
	if event == "" {
		return []byte(fmt.Sprintf("data: %s\n\n", payload)), nil
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, payload)), nil
}

// Publish sends an event to every client. Clients whose write fails or
// times out are dropped.
func (b *Broadcaster) Publish(event string, data any) {
	frame, err := Frame(event, data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode SSE event")
		return
	}

	b.mu.RLock()
	clients := make([]*Client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	dead := make(chan *Client, len(clients))
	var wg sync.WaitGroup
	for _, c := range clients {
		select {
		case <-c.Done:
			continue
		default:
		}
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			b.writeToClient(c, frame, dead)
		}(c)
	}
	wg.Wait()
	close(dead)

	for c := range dead {
		log.Debug().Str("clientId", c.ID).Msg("Dropping dead SSE client")
		b.RemoveClient(c)
	}
}

func (b *Broadcaster) writeToClient(c *Client, frame []byte, dead chan<- *Client) {
	errCh := make(chan error, 1)
	go func() { errCh <- c.write(frame) }()

	timer := time.NewTimer(WriteTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, ErrClientClosed) {
			log.Debug().Str("clientId", c.ID).Err(err).Msg("Failed to write to SSE client")
			dead <- c
		}
	case <-timer.C:
		log.Warn().Str("clientId", c.ID).Dur("timeout", WriteTimeout).Msg("SSE write timed out")
		dead <- c
	case <-c.Done:
	}
}

// HandleSSE serves an event stream until the request is cancelled.
func (b *Broadcaster) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client, err := b.AddClient(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer func() {
		b.RemoveClient(client)
		client.seal()
	}()

	b.sendTo(client, EventConnected, map[string]string{"clientId": client.ID})

	b.mu.RLock()
	snapshot := b.snapshot
	b.mu.RUnlock()
	if snapshot != nil {
		event, data := snapshot()
		b.sendTo(client, event, data)
	}

	select {
	case <-r.Context().Done():
	case <-client.Done:
	}
}

func (b *Broadcaster) sendTo(c *Client, event string, data any) {
	frame, err := Frame(event, data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode SSE event")
		return
	}
	if err := c.write(frame); err != nil {
		log.Debug().Str("clientId", c.ID).Err(err).Msg("Failed to write to SSE client")
	}
}
