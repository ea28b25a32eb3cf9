package mocks

import (
	"context"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// MockRecordSource is a mock implementation of RecordSource for testing
type MockRecordSource struct {
	records []domain.RawRecord
	err     error

	FetchCalls int
}

// NewMockRecordSource creates a new MockRecordSource
func NewMockRecordSource(records ...domain.RawRecord) *MockRecordSource {
	return &MockRecordSource{records: records}
}

func (m *MockRecordSource) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	m.FetchCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.RawRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *MockRecordSource) Name() string {
	return "mock-source"
}

// Helper methods for testing

func (m *MockRecordSource) SetRecords(records []domain.RawRecord) {
	m.records = records
}

func (m *MockRecordSource) SetError(err error) {
	m.err = err
}
