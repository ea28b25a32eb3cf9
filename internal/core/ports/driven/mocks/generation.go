package mocks

import (
	"context"
)

// MockGenerationService is a mock implementation of GenerationService for testing
type MockGenerationService struct {
	response   string
	failNext   bool
	failAlways bool
	failErr    error

	// Calls counts Generate invocations; LastPrompt keeps the most recent
	// prompt so tests can assert on assembled content.
	Calls      int
	LastPrompt string
}

// NewMockGenerationService creates a new MockGenerationService
func NewMockGenerationService() *MockGenerationService {
	return &MockGenerationService{
		response: "respuesta de prueba",
	}
}

func (m *MockGenerationService) Generate(ctx context.Context, prompt string) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	if m.failAlways {
		return "", m.failErr
	}
	if m.failNext {
		m.failNext = false
		return "", m.failErr
	}
	return m.response, nil
}

func (m *MockGenerationService) Model() string {
	return "mock-generation-model"
}

func (m *MockGenerationService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockGenerationService) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockGenerationService) SetResponse(response string) {
	m.response = response
}

func (m *MockGenerationService) SetFailNext(err error) {
	m.failNext = true
	m.failErr = err
}

func (m *MockGenerationService) SetFailAlways(fail bool, err error) {
	m.failAlways = fail
	m.failErr = err
}
