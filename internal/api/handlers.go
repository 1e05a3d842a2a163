package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mattjoyce/signalhub/internal/hub"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	depth := 0
	if s.journal != nil {
		d, err := s.journal.Depth(r.Context())
		if err != nil {
			s.logger.Error("failed to compute journal depth", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to compute journal depth")
			return
		}
		depth = d
	}

	stats := s.hub.Stats()
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Signals:       stats.Signals,
		Subscribers:   stats.Subscribers,
		ExecutorState: s.execState(),
		JournalDepth:  depth,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleEmit handles POST /v1/signals/{signal}/emit.
// ?mode=async defers delivery to the executor queue.
func (s *Server) handleEmit(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "signal")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "signal name is required")
		return
	}

	var req EmitRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if len(req.Payload) > 0 && !json.Valid(req.Payload) {
		s.writeError(w, http.StatusBadRequest, "payload must be valid JSON")
		return
	}

	mode := r.URL.Query().Get("mode")
	switch mode {
	case "", "sync":
		res, err := s.hub.Emit(r.Context(), name, req.Payload)
		if err != nil {
			s.logger.Error("emit failed", "signal", name, "error", err)
			s.writeError(w, http.StatusInternalServerError, "emit failed")
			return
		}
		s.writeJSON(w, http.StatusOK, emitResponseFrom(res))

	case "async":
		res, err := s.hub.EmitAsync(r.Context(), name, req.Payload)
		if err != nil {
			if errors.Is(err, hub.ErrExecutorStopped) {
				s.writeError(w, http.StatusServiceUnavailable, "executor stopped; emission rejected")
				return
			}
			s.logger.Error("async emit failed", "signal", name, "error", err)
			s.writeError(w, http.StatusInternalServerError, "emit failed")
			return
		}
		s.writeJSON(w, http.StatusAccepted, emitResponseFrom(res))

	default:
		s.writeError(w, http.StatusBadRequest, "mode must be sync or async")
	}
}

func emitResponseFrom(res *hub.EmitResult) EmitResponse {
	return EmitResponse{
		EmissionID:  res.EmissionID,
		Signal:      res.Signal,
		Mode:        string(res.Mode),
		Subscribers: res.Subscribers,
		Delivered:   res.Delivered,
		Submitted:   res.Submitted,
		Failures:    res.Failures,
	}
}

// handleSignals handles GET /v1/signals.
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	signals := s.hub.Signals()
	if signals == nil {
		signals = []hub.SignalInfo{}
	}
	s.writeJSON(w, http.StatusOK, SignalsResponse{Signals: signals})
}

// handleJournalRecent handles GET /v1/journal/recent?limit=N.
func (s *Server) handleJournalRecent(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusNotFound, "journal disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	emissions, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read journal", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read journal")
		return
	}

	entries := make([]JournalEntry, 0, len(emissions))
	for _, em := range emissions {
		entries = append(entries, JournalEntry{
			EmissionID:  em.ID,
			Signal:      em.Signal,
			Mode:        string(em.Mode),
			Subscribers: em.Subscribers,
			Failures:    em.Failures,
			Payload:     em.Payload,
			CreatedAt:   em.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, JournalResponse{Emissions: entries})
}
