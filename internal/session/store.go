// Package session holds the persisted per-profile state of the dev console:
// discovered easter eggs and the durable terminal transcript.
package session

import (
	"context"
	"slices"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/devconsole/internal/kv"
	"github.com/thebtf/devconsole/internal/telemetry"
	"github.com/thebtf/devconsole/pkg/models"
)

// Record keys in the durable substrate.
const (
	EggsKey       = "portfolio-easter-eggs"
	TranscriptKey = "portfolio-terminal-history"
)

// DefaultMaxTranscriptEntries is the default cap on the durable transcript.
const DefaultMaxTranscriptEntries = 100

// EventType identifies a state change.
type EventType string

const (
	EventEggDiscovered      EventType = "egg_discovered"
	EventEggsReset          EventType = "eggs_reset"
	EventTranscriptAppended EventType = "transcript_appended"
	EventTranscriptCleared  EventType = "transcript_cleared"
)

// Event describes a change to the store, delivered to subscribers after the
// change is applied.
type Event struct {
	Type    EventType   `json:"type"`
	Egg     *models.Egg `json:"egg,omitempty"`
	Points  int         `json:"points"`
	Eggs    int         `json:"eggs"`
	Entries int         `json:"entries"`
}

// Option configures a Store.
type Option func(*Store)

// WithMaxTranscriptEntries caps the durable transcript. Values below 1 are ignored.
func WithMaxTranscriptEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// Store is the session state shared by the terminal and page-level triggers.
// Persistence is best-effort: substrate failures are logged and the in-memory
// state stays authoritative. A nil substrate keeps everything in memory.
type Store struct {
	substrate  kv.Substrate
	maxEntries int

	mu          sync.RWMutex
	initialized bool
	eggs        []models.Egg
	points      int
	transcript  []models.TranscriptEntry
	gen         uint64 // bumped on every mutation, guarded by mu

	// persistMu serializes substrate writes outside mu. written holds the
	// newest generation persisted per key so an older snapshot never lands
	// after a newer one.
	persistMu sync.Mutex
	written   map[string]uint64

	listenersMu sync.RWMutex
	listeners   []func(Event)
}

// New creates a Store over substrate. Call LoadOnInit before use; mutating
// operations load implicitly so persisted state is never clobbered.
func New(substrate kv.Substrate, opts ...Option) *Store {
	s := &Store{
		substrate:  substrate,
		maxEntries: DefaultMaxTranscriptEntries,
		written:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadOnInit reads persisted eggs and transcript once per Store. Missing,
// unreadable or malformed records are treated as empty.
func (s *Store) LoadOnInit(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) {
	if s.initialized {
		return
	}
	s.initialized = true

	var eggs []models.Egg
	if s.readRecord(ctx, EggsKey, &eggs) {
		s.eggs = dedupeEggs(eggs)
		s.points = models.SumPoints(s.eggs)
	}

	var transcript []models.TranscriptEntry
	if s.readRecord(ctx, TranscriptKey, &transcript) {
		if len(transcript) > s.maxEntries {
			transcript = transcript[len(transcript)-s.maxEntries:]
		}
		s.transcript = transcript
	}

	log.Debug().
		Int("eggs", len(s.eggs)).
		Int("points", s.points).
		Int("entries", len(s.transcript)).
		Msg("Session state loaded")
}

// readRecord decodes key into dst. It reports whether a usable record was found.
func (s *Store) readRecord(ctx context.Context, key string, dst any) bool {
	if s.substrate == nil {
		return false
	}
	raw, ok, err := s.substrate.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to read session record")
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Malformed session record, ignoring")
		return false
	}
	return true
}

// persist writes a snapshot taken at generation gen, or removes key when v is
// nil. It must be called without holding mu.
func (s *Store) persist(ctx context.Context, key string, gen uint64, v any) {
	if s.substrate == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if gen <= s.written[key] {
		return
	}
	s.written[key] = gen

	if v == nil {
		s.removeRecord(ctx, key)
		return
	}
	s.writeRecord(ctx, key, v)
}

func (s *Store) writeRecord(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to encode session record")
		return
	}
	if err := s.substrate.Set(ctx, key, string(data)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to persist session record")
	}
}

func (s *Store) removeRecord(ctx context.Context, key string) {
	if err := s.substrate.Remove(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to remove session record")
	}
}

// AddAchievement records egg key worth points. Re-adding a known key is a
// no-op. It reports whether a new egg was recorded.
func (s *Store) AddAchievement(ctx context.Context, key string, points int) bool {
	if key == "" || points < 0 {
		log.Warn().Str("egg", key).Int("points", points).Msg("Ignoring invalid achievement")
		return false
	}

	s.mu.Lock()
	s.loadLocked(ctx)
	for _, egg := range s.eggs {
		if egg.ID == key {
			s.mu.Unlock()
			return false
		}
	}
	egg := models.NewEgg(key, points)
	s.eggs = append(s.eggs, egg)
	s.points += points
	s.gen++
	gen, snapshot := s.gen, append([]models.Egg(nil), s.eggs...)
	ev := Event{Type: EventEggDiscovered, Egg: &egg, Points: s.points, Eggs: len(s.eggs), Entries: len(s.transcript)}
	s.mu.Unlock()

	s.persist(ctx, EggsKey, gen, snapshot)

	log.Info().Str("egg", key).Int("points", points).Int("total", ev.Points).Msg("Easter egg discovered")
	telemetry.EggDiscovered(ctx, key, points)
	s.emit(ev)
	return true
}

// ResetAchievements forgets every discovered egg and removes the persisted record.
func (s *Store) ResetAchievements(ctx context.Context) {
	s.mu.Lock()
	s.loadLocked(ctx)
	s.eggs = nil
	s.points = 0
	s.gen++
	gen := s.gen
	ev := Event{Type: EventEggsReset, Entries: len(s.transcript)}
	s.mu.Unlock()

	s.persist(ctx, EggsKey, gen, nil)

	log.Info().Msg("Easter eggs reset")
	s.emit(ev)
}

// AppendTranscriptEntry appends one entry and evicts the oldest beyond the cap.
// output must already be sanitized.
func (s *Store) AppendTranscriptEntry(ctx context.Context, command string, output []string) {
	entry := models.NewTranscriptEntry(command, append([]string(nil), output...))

	s.mu.Lock()
	s.loadLocked(ctx)
	s.transcript = append(s.transcript, entry)
	if over := len(s.transcript) - s.maxEntries; over > 0 {
		s.transcript = append([]models.TranscriptEntry(nil), s.transcript[over:]...)
	}
	s.gen++
	gen, snapshot := s.gen, append([]models.TranscriptEntry(nil), s.transcript...)
	ev := Event{Type: EventTranscriptAppended, Points: s.points, Eggs: len(s.eggs), Entries: len(s.transcript)}
	s.mu.Unlock()

	s.persist(ctx, TranscriptKey, gen, snapshot)

	s.emit(ev)
}

// ClearTranscript empties the transcript and removes its record.
func (s *Store) ClearTranscript(ctx context.Context) {
	s.mu.Lock()
	s.loadLocked(ctx)
	s.transcript = nil
	s.gen++
	gen := s.gen
	ev := Event{Type: EventTranscriptCleared, Points: s.points, Eggs: len(s.eggs)}
	s.mu.Unlock()

	s.persist(ctx, TranscriptKey, gen, nil)

	s.emit(ev)
}

// Points returns the running point total.
func (s *Store) Points() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points
}

// Eggs returns a copy of the discovered eggs in discovery order.
func (s *Store) Eggs() []models.Egg {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Egg(nil), s.eggs...)
}

// HasEgg reports whether id has been discovered.
func (s *Store) HasEgg(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, egg := range s.eggs {
		if egg.ID == id {
			return true
		}
	}
	return false
}

// Transcript returns a copy of the durable transcript, oldest first.
func (s *Store) Transcript() []models.TranscriptEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TranscriptEntry(nil), s.transcript...)
}

// MaxTranscriptEntries returns the transcript cap.
func (s *Store) MaxTranscriptEntries() int {
	return s.maxEntries
}

// Subscribe registers fn to receive change events. fn runs synchronously on
// the mutating goroutine and must not call back into mutating operations.
func (s *Store) Subscribe(fn func(Event)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) emit(ev Event) {
	s.listenersMu.RLock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// dedupeEggs drops repeated IDs from a persisted list, keeping the first.
func dedupeEggs(eggs []models.Egg) []models.Egg {
	seen := make(map[string]struct{}, len(eggs))
	out := eggs[:0]
	for _, egg := range eggs {
		if egg.ID == "" {
			continue
		}
		if _, ok := seen[egg.ID]; ok {
			continue
		}
		seen[egg.ID] = struct{}{}
		out = append(out, egg)
	}
	return out
}
