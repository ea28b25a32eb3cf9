package domain

// AIProvider identifies an AI service provider
type AIProvider string

const (
	AIProviderGemini AIProvider = "gemini"
	AIProviderOpenAI AIProvider = "openai"
	AIProviderOllama AIProvider = "ollama"
)

// EmbeddingSettings configures the embedding backend.
type EmbeddingSettings struct {
	Provider AIProvider `json:"provider" yaml:"provider"`
	APIKey   string     `json:"api_key,omitempty" yaml:"api_key"`
	Model    string     `json:"model" yaml:"model"`
	BaseURL  string     `json:"base_url,omitempty" yaml:"base_url"`
}

// IsConfigured reports whether the settings name a usable backend.
// Ollama needs no API key; hosted providers do.
func (s *EmbeddingSettings) IsConfigured() bool {
	if s == nil || s.Provider == "" {
		return false
	}
	if s.Provider == AIProviderOllama {
		return true
	}
	return s.APIKey != ""
}

// GenerationSettings configures the answer synthesis backend.
type GenerationSettings struct {
	Provider    AIProvider `json:"provider" yaml:"provider"`
	APIKey      string     `json:"api_key,omitempty" yaml:"api_key"`
	Model       string     `json:"model" yaml:"model"`
	BaseURL     string     `json:"base_url,omitempty" yaml:"base_url"`
	Temperature float64    `json:"temperature" yaml:"temperature"`
	MaxTokens   int        `json:"max_tokens" yaml:"max_tokens"`
}

// IsConfigured reports whether the settings name a usable backend.
func (s *GenerationSettings) IsConfigured() bool {
	if s == nil || s.Provider == "" {
		return false
	}
	if s.Provider == AIProviderOllama {
		return true
	}
	return s.APIKey != ""
}
