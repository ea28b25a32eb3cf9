package domain

import "testing"

func TestGeneration_Len_CountsOnlyQueryable(t *testing.T) {
	gen := &Generation{
		Chunks: []Chunk{
			{ID: "a", Text: "uno"},
			{ID: "b", Text: "dos"},
			{ID: "c", Text: "tres"},
		},
		Vectors: map[string][]float32{
			"a": {0.1, 0.2},
			"c": {0.3, 0.4},
		},
	}

	if got := gen.Len(); got != 2 {
		t.Errorf("expected 2 queryable chunks, got %d", got)
	}
}

func TestGeneration_Empty(t *testing.T) {
	var nilGen *Generation
	if !nilGen.Empty() {
		t.Error("nil generation should be empty")
	}

	gen := &Generation{Chunks: []Chunk{{ID: "a"}}}
	if !gen.Empty() {
		t.Error("generation without vectors should be empty")
	}

	gen.Vectors = map[string][]float32{"a": {1}}
	if gen.Empty() {
		t.Error("generation with a queryable chunk should not be empty")
	}
}

func TestRebuildStatus_Terminal(t *testing.T) {
	tests := []struct {
		status RebuildStatus
		want   bool
	}{
		{RebuildStatusIdle, false},
		{RebuildStatusRunning, false},
		{RebuildStatusReady, true},
		{RebuildStatusFailed, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Terminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
