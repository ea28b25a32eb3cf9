package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecordSource = (*FileSource)(nil)

// FileSource reads extraction drops from a directory of JSON files. Each
// *.json file holds an array of raw records; files are read in lexical
// order so the drop has a stable record order across runs.
type FileSource struct {
	dir string
}

// NewFileSource creates a FileSource over the given directory.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Name identifies the source for logging.
func (s *FileSource) Name() string {
	return "file:" + s.dir
}

// Fetch reads every *.json file in the directory and returns the combined
// records. A record with an empty source is attributed to its file name.
func (s *FileSource) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read records directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var records []domain.RawRecord
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		var fileRecords []domain.RawRecord
		if err := json.Unmarshal(data, &fileRecords); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}

		for _, rec := range fileRecords {
			if rec.Source == "" {
				rec.Source = name
			}
			records = append(records, rec)
		}
	}
	return records, nil
}
