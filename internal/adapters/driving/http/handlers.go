package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// LoginRequest carries the admin password.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the issued admin token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// AskRequest is one question for the engine.
type AskRequest struct {
	Question string `json:"question"`
}

// RebuildResponse acknowledges an accepted rebuild.
type RebuildResponse struct {
	GenerationID string `json:"generation_id"`
	Status       string `json:"status"`
}

// IndexStatus summarizes the active generation.
type IndexStatus struct {
	GenerationID   string    `json:"generation_id"`
	CreatedAt      time.Time `json:"created_at"`
	EmbeddingModel string    `json:"embedding_model"`
	Chunks         int       `json:"chunks"`
	Degraded       int       `json:"degraded"`
}

// StatusResponse is the public engine status.
type StatusResponse struct {
	Status  string       `json:"status"`
	Index   *IndexStatus `json:"index,omitempty"`
	Rebuild string       `json:"rebuild"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithPingTimeout(r)
	defer cancel()

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.cfg.Version})
}

// Auth endpoints

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AdminPasswordHash == "" {
		writeError(w, http.StatusServiceUnavailable, "login not configured")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.auth.VerifyPassword(req.Password, s.cfg.AdminPasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	now := time.Now()
	claims := &domain.TokenClaims{
		Subject:   "admin",
		Admin:     true,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.cfg.TokenTTL).Unix(),
	}
	token, err := s.auth.GenerateToken(claims)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token generation failed")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: claims.ExpiresAt})
}

// Query endpoints

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.askService.Ask(r.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "question is required")
		case errors.Is(err, domain.ErrGenerationRateLimited):
			writeError(w, http.StatusTooManyRequests, "generation service rate limited")
		case errors.Is(err, domain.ErrEmbeddingUnavailable),
			errors.Is(err, domain.ErrGenerationUnavailable):
			writeError(w, http.StatusServiceUnavailable, "ai service unavailable")
		case errors.Is(err, domain.ErrEmptyCompletion):
			writeError(w, http.StatusBadGateway, "generation service returned no answer")
		default:
			writeError(w, http.StatusInternalServerError, "failed to answer question")
		}
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Status: "ok", Rebuild: string(domain.RebuildStatusIdle)}

	if state := s.pipelineService.Status(r.Context()); state != nil {
		resp.Rebuild = string(state.Status)
	}
	if gen := s.active.Generation(); gen != nil {
		resp.Index = &IndexStatus{
			GenerationID:   gen.ID,
			CreatedAt:      gen.CreatedAt,
			EmbeddingModel: gen.EmbeddingModel,
			Chunks:         gen.Len(),
			Degraded:       len(gen.Degraded),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Pipeline endpoints

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	generationID, err := s.pipelineService.StartRebuild(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrRebuildInProgress) {
			writeError(w, http.StatusConflict, "rebuild already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start rebuild")
		return
	}

	writeJSON(w, http.StatusAccepted, RebuildResponse{
		GenerationID: generationID,
		Status:       string(domain.RebuildStatusRunning),
	})
}

func (s *Server) handlePipelineStatus(w http.ResponseWriter, r *http.Request) {
	state := s.pipelineService.Status(r.Context())
	if state == nil {
		state = &domain.RebuildState{Status: domain.RebuildStatusIdle}
	}
	writeJSON(w, http.StatusOK, state)
}

// Helpers

func contextWithPingTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 2*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
