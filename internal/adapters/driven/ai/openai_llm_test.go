package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

func TestNewOpenAIGeneration_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIGeneration("", "gpt-4o-mini", "", 0.2, 1024)
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestOpenAIGeneration_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("expected Authorization header")
		}

		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "pregunta" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		resp := chatCompletionResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message      chatMessage `json:"message"`
			FinishReason string      `json:"finish_reason"`
		}{
			Message:      chatMessage{Role: "assistant", Content: "respuesta generada"},
			FinishReason: "stop",
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc, err := NewOpenAIGeneration("sk-test", "gpt-4o-mini", server.URL, 0.2, 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := svc.Generate(context.Background(), "pregunta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "respuesta generada" {
		t.Errorf("text = %q", text)
	}
}

func TestOpenAIGeneration_Generate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit","type":"requests","code":"rate_limit_exceeded"}}`))
	}))
	defer server.Close()

	svc, err := NewOpenAIGeneration("sk-test", "gpt-4o-mini", server.URL, 0.2, 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Generate(context.Background(), "pregunta")
	if !errors.Is(err, domain.ErrGenerationRateLimited) {
		t.Fatalf("err = %v, want ErrGenerationRateLimited", err)
	}
}

func TestOpenAIGeneration_Generate_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	svc, err := NewOpenAIGeneration("sk-test", "gpt-4o-mini", server.URL, 0.2, 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Generate(context.Background(), "pregunta")
	if !errors.Is(err, domain.ErrEmptyCompletion) {
		t.Fatalf("err = %v, want ErrEmptyCompletion", err)
	}
}
