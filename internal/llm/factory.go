package llm

import (
	"fmt"
	"os"
)

// Options selects and configures a provider.
type Options struct {
	Provider string
	Model    string
	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways,
	// a remote Ollama). Empty uses the provider default.
	BaseURL string
}

// NewProvider creates a new LLM provider based on the given options.
// Supported provider types: "openai", "google", "ollama".
func NewProvider(opts Options) (Provider, error) {
	switch opts.Provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, opts.Model, opts.BaseURL), nil

	case "google":
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		p, err := NewGoogleProvider(apiKey, opts.Model, opts.BaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil

	case "ollama":
		host := opts.BaseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, opts.Model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", opts.Provider)
	}
}
