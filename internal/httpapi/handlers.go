package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/memoria-ai/memoria/internal/store"
)

type rememberRequest struct {
	Content          string         `json:"content"`
	OwnerID          string         `json:"owner_id"`
	Importance       *float64       `json:"importance,omitempty"`
	EmotionalContext string         `json:"emotional_context,omitempty"`
	Category         string         `json:"category,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Timestamp        *float64       `json:"timestamp,omitempty"`
}

type rememberResponse struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

func (s *Server) handleRemember(w http.ResponseWriter, r *http.Request) {
	var req rememberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ts, err := s.store.Remember(r.Context(), store.RememberParams{
		OwnerID:          req.OwnerID,
		Content:          req.Content,
		Importance:       req.Importance,
		EmotionalContext: req.EmotionalContext,
		Category:         req.Category,
		Metadata:         req.Metadata,
		Timestamp:        req.Timestamp,
	})
	if err != nil {
		s.metrics.Writes.WithLabelValues(writeOutcome(err)).Inc()
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rememberResponse{Status: "success", Timestamp: ts})
}

// writeOutcome labels failed writes. Accepted writes are counted once by the
// store's OnWrite hook, so the outcome labels partition the events; silent
// duplicates are deliberately not counted.
func writeOutcome(err error) string {
	if store.IsValidation(err) {
		return "invalid"
	}
	return "error"
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	p := store.RecallParams{OwnerID: owner}
	q := r.URL.Query()

	var err error
	if p.Limit, err = intParam(q.Get("limit"), 0); err != nil {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if p.MinImportance, err = floatParam(q.Get("min_importance"), 0); err != nil {
		respondError(w, http.StatusBadRequest, "invalid min_importance")
		return
	}
	if p.StartTime, err = floatPtrParam(q.Get("start")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid start")
		return
	}
	if p.EndTime, err = floatPtrParam(q.Get("end")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid end")
		return
	}
	p.Category = q.Get("category")

	records, err := s.store.Recall(r.Context(), p)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	s.metrics.Recalls.Inc()

	respondJSON(w, http.StatusOK, map[string]any{
		"owner_id": owner,
		"count":    len(records),
		"memories": records,
	})
}

func (s *Server) handleRelationship(w http.ResponseWriter, r *http.Request) {
	rel, err := s.store.GetRelationship(r.Context(), chi.URLParam(r, "owner"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rel)
}

type summarizeRequest struct {
	OwnerID   string   `json:"owner_id"`
	StartTime *float64 `json:"start_time,omitempty"`
	EndTime   *float64 `json:"end_time,omitempty"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	sum, err := s.store.SummarizeConversation(r.Context(), req.OwnerID, req.StartTime, req.EndTime)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

type startSessionRequest struct {
	OwnerID string `json:"owner_id"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.OwnerID == "" {
		respondError(w, http.StatusBadRequest, "owner_id is required")
		return
	}

	sess, rel, err := s.sessions.Start(r.Context(), req.OwnerID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session":      sess,
		"relationship": rel,
	})
}

func (s *Server) handleSessionRemember(w http.ResponseWriter, r *http.Request) {
	var req rememberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ts, err := s.sessions.Remember(r.Context(), chi.URLParam(r, "id"), store.RememberParams{
		Content:          req.Content,
		Importance:       req.Importance,
		EmotionalContext: req.EmotionalContext,
		Category:         req.Category,
		Metadata:         req.Metadata,
		Timestamp:        req.Timestamp,
	})
	if err != nil {
		s.metrics.Writes.WithLabelValues(writeOutcome(err)).Inc()
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rememberResponse{Status: "success", Timestamp: ts})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	records, err := s.sessions.History(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	s.metrics.Recalls.Inc()

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(records),
		"memories": records,
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.End(chi.URLParam(r, "id"))
	respondJSON(w, http.StatusOK, map[string]any{"status": "ended"})
}

type patternRequest struct {
	PatternType string  `json:"pattern_type"`
	PatternData string  `json:"pattern_data,omitempty"`
	SuccessRate float64 `json:"success_rate,omitempty"`
}

func (s *Server) handleRecordPattern(w http.ResponseWriter, r *http.Request) {
	var req patternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	pattern, err := s.store.RecordPattern(r.Context(), store.PatternParams{
		PatternType: req.PatternType,
		PatternData: req.PatternData,
		SuccessRate: req.SuccessRate,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pattern)
}

func (s *Server) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := s.store.ListPatterns(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(patterns),
		"patterns": patterns,
	})
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func floatParam(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func floatPtrParam(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
