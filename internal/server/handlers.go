package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/devconsole/internal/catalog"
	"github.com/thebtf/devconsole/internal/readme"
	"github.com/thebtf/devconsole/pkg/models"
)

const eventScoreboard = "scoreboard"

// Scoreboard is the point summary shown by the floating widget.
type Scoreboard struct {
	Points    int `json:"points"`
	MaxPoints int `json:"max_points"`
	Collected int `json:"collected"`
	Total     int `json:"total"`
}

type eggsResponse struct {
	Scoreboard
	Eggs []models.EggProgress `json:"eggs"`
}

type discoverResponse struct {
	ID     string `json:"id"`
	Added  bool   `json:"added"`
	Points int    `json:"points"`
}

type historyResponse struct {
	Entries    []models.TranscriptEntry `json:"entries"`
	MaxEntries int                      `json:"max_entries"`
}

func (s *Service) scoreboard() Scoreboard {
	progress := s.catalog.Progress(s.store.Eggs())
	collected := 0
	for _, p := range progress {
		if p.Collected {
			collected++
		}
	}
	return Scoreboard{
		Points:    s.store.Points(),
		MaxPoints: s.catalog.TotalPoints(),
		Collected: collected,
		Total:     len(progress),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	state := "ok"
	if !s.ready.Load() {
		state = "starting"
	}
	writeJSON(w, status, map[string]any{
		"status":     state,
		"version":    s.version,
		"backend":    s.backend,
		"uptime":     time.Since(s.startTime).Round(time.Second).String(),
		"sseClients": s.broadcaster.ClientCount(),
	})
}

func (s *Service) handleReadme(w http.ResponseWriter, r *http.Request) {
	if s.readme == nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(readme.NotFoundText))
		return
	}
	readme.Handler(s.readme).ServeHTTP(w, r)
}

func (s *Service) handleListEggs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, eggsResponse{
		Scoreboard: s.scoreboard(),
		Eggs:       s.catalog.Progress(s.store.Eggs()),
	})
}

func (s *Service) handleDiscoverEgg(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	def, err := s.catalog.Lookup(id)
	if errors.Is(err, catalog.ErrUnknownEgg) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	added := s.store.AddAchievement(r.Context(), def.ID, def.Points)
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, discoverResponse{ID: def.ID, Added: added, Points: s.store.Points()})
}

func (s *Service) handleResetEggs(w http.ResponseWriter, r *http.Request) {
	s.store.ResetAchievements(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entries := s.store.Transcript()
	if entries == nil {
		entries = []models.TranscriptEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Entries: entries, MaxEntries: s.store.MaxTranscriptEntries()})
}

func (s *Service) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.store.ClearTranscript(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg, "status": status})
}
