package domain

import "testing"

func TestChunkID_Deterministic(t *testing.T) {
	rec := RawRecord{Source: "olap_plan_de_estudios.pdf", Course: "Álgebra Lineal", Semester: "2"}

	id1 := ChunkID(rec.Key(), 0)
	id2 := ChunkID(rec.Key(), 0)

	if id1 != id2 {
		t.Errorf("expected identical IDs for unchanged input, got %s and %s", id1, id2)
	}
}

func TestChunkID_SequenceUnique(t *testing.T) {
	key := RawRecord{Source: "perfiles.pdf"}.Key()

	seen := make(map[string]bool)
	for seq := 0; seq < 10; seq++ {
		id := ChunkID(key, seq)
		if seen[id] {
			t.Fatalf("duplicate ID %s at seq %d", id, seq)
		}
		seen[id] = true
	}
}

func TestChunkID_DifferentRecords(t *testing.T) {
	a := ChunkID(RawRecord{Source: "a.pdf", Course: "Cálculo I"}.Key(), 0)
	b := ChunkID(RawRecord{Source: "a.pdf", Course: "Cálculo II"}.Key(), 0)

	if a == b {
		t.Errorf("expected distinct IDs for distinct records, both %s", a)
	}
}

func TestRawRecord_Valid(t *testing.T) {
	tests := []struct {
		name   string
		record RawRecord
		want   bool
	}{
		{"complete", RawRecord{Source: "a.pdf", Body: "Objetivo general del curso."}, true},
		{"missing source", RawRecord{Body: "texto"}, false},
		{"empty body", RawRecord{Source: "a.pdf"}, false},
		{"whitespace body", RawRecord{Source: "a.pdf", Body: "  \n\t "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
