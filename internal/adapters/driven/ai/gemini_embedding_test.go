package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewGeminiEmbedding_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiEmbedding("", "text-embedding-004", "")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNewGeminiEmbedding_Defaults(t *testing.T) {
	svc, err := NewGeminiEmbedding("key-test", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	emb := svc.(*GeminiEmbedding)
	if emb.model != "text-embedding-004" {
		t.Errorf("expected default model text-embedding-004, got %s", emb.model)
	}
	if emb.baseURL != "https://generativelanguage.googleapis.com/v1beta" {
		t.Errorf("unexpected default base URL %s", emb.baseURL)
	}
	if svc.Dimensions() != 768 {
		t.Errorf("expected 768 dimensions, got %d", svc.Dimensions())
	}
}

func TestGeminiEmbedding_Embed_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/models/text-embedding-004:batchEmbedContents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "key-test" {
			t.Error("expected x-goog-api-key header")
		}

		var req geminiBatchEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if len(req.Requests) != 2 {
			t.Errorf("expected 2 requests, got %d", len(req.Requests))
		}
		// Corpus texts carry the document task type
		for _, er := range req.Requests {
			if er.TaskType != "RETRIEVAL_DOCUMENT" {
				t.Errorf("taskType = %s, want RETRIEVAL_DOCUMENT", er.TaskType)
			}
		}

		resp := geminiBatchEmbedResponse{
			Embeddings: []geminiEmbedding{
				{Values: []float32{0.1, 0.2, 0.3}},
				{Values: []float32{0.4, 0.5, 0.6}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc, err := NewGeminiEmbedding("key-test", "text-embedding-004", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.Embed(context.Background(), []string{"hola", "mundo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(result))
	}
	if len(result[0]) != 3 || result[0][0] != 0.1 {
		t.Error("unexpected embedding values")
	}
}

func TestGeminiEmbedding_EmbedQuery_UsesQueryTaskType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiBatchEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if len(req.Requests) != 1 || req.Requests[0].TaskType != "RETRIEVAL_QUERY" {
			t.Errorf("query embedding request = %+v, want RETRIEVAL_QUERY", req.Requests)
		}

		resp := geminiBatchEmbedResponse{
			Embeddings: []geminiEmbedding{{Values: []float32{0.7, 0.8}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc, err := NewGeminiEmbedding("key-test", "text-embedding-004", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.EmbedQuery(context.Background(), "¿cuántos créditos?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected 2 values, got %d", len(result))
	}
}

func TestGeminiEmbedding_Embed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := geminiBatchEmbedResponse{
			Error: &geminiError{Code: 400, Message: "API key not valid", Status: "INVALID_ARGUMENT"},
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc, err := NewGeminiEmbedding("bad-key", "text-embedding-004", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Embed(context.Background(), []string{"test"}); err == nil {
		t.Error("expected error for API error response")
	}
}

func TestGeminiEmbedding_Embed_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := geminiBatchEmbedResponse{
			Embeddings: []geminiEmbedding{{Values: []float32{0.1}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc, err := NewGeminiEmbedding("key-test", "text-embedding-004", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Embed(context.Background(), []string{"uno", "dos"}); err == nil {
		t.Error("expected error when embedding count does not match input")
	}
}

func TestGeminiEmbedding_Embed_EmptyInput(t *testing.T) {
	svc, err := NewGeminiEmbedding("key-test", "text-embedding-004", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.Embed(context.Background(), nil)
	if err != nil {
		t.Errorf("unexpected error for empty input: %v", err)
	}
	if result != nil {
		t.Error("expected nil result for empty input")
	}
}
