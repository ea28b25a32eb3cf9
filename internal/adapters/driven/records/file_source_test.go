package records

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestFileSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plan_2006.json", `[
		{"source": "plan_2006.json", "course": "Cálculo I", "semester": "1", "topic": "plan_de_estudios", "body": "Límites y continuidad."},
		{"source": "plan_2006.json", "course": "Álgebra", "semester": "1", "topic": "plan_de_estudios", "body": "Teoría de conjuntos."}
	]`)

	source := NewFileSource(dir)
	records, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Course != "Cálculo I" {
		t.Errorf("first record = %+v", records[0])
	}
}

func TestFileSource_FetchStableOrder(t *testing.T) {
	dir := t.TempDir()
	// Written out of lexical order on purpose.
	writeFile(t, dir, "b_profesores.json", `[{"source": "b", "body": "dos"}]`)
	writeFile(t, dir, "a_plan.json", `[{"source": "a", "body": "uno"}]`)

	source := NewFileSource(dir)
	records, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(records) != 2 || records[0].Source != "a" || records[1].Source != "b" {
		t.Errorf("records out of order: %+v", records)
	}
}

func TestFileSource_FetchSkipsNonJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plan.json", `[{"source": "plan", "body": "texto"}]`)
	writeFile(t, dir, "notes.txt", "not a record file")
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	source := NewFileSource(dir)
	records, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
}

func TestFileSource_FetchDefaultsSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ingreso.json", `[{"body": "Requisitos de ingreso."}]`)

	source := NewFileSource(dir)
	records, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 || records[0].Source != "ingreso.json" {
		t.Errorf("records = %+v", records)
	}
}

func TestFileSource_FetchMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", `{"not": "an array"`)

	source := NewFileSource(dir)
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestFileSource_FetchMissingDirectory(t *testing.T) {
	source := NewFileSource(filepath.Join(t.TempDir(), "absent"))
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFileSource_Name(t *testing.T) {
	source := NewFileSource("/var/lib/macgpt/records")
	if source.Name() != "file:/var/lib/macgpt/records" {
		t.Errorf("Name = %s", source.Name())
	}
}
