package config

import "time"

// DefaultModels maps each provider to the model used when none is configured.
var DefaultModels = map[ProviderType]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderGoogle: "gemini-2.0-flash",
	ProviderOllama: "llama3",
}

// DefaultMarkers are the substrings that disqualify a line from being a bar.
var DefaultMarkers = []string{"Verse", "Chorus", ":"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderOpenAI,
		Model:          DefaultModels[ProviderOpenAI],
		Temperature:    0.7,
		MaxTokens:      200,
		RateLimitRPM:   60,
		DefaultPersona: "Harry Mack",
		DataDir:        ".freestyler",
		Server: ServerConfig{
			Port:           8080,
			RequestTimeout: 2 * time.Minute,
		},
		Bars: BarsConfig{
			Max:      8,
			MinWords: 3,
			Markers:  append([]string(nil), DefaultMarkers...),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ModelFor returns the default model for a provider, falling back to the
// OpenAI default for unknown providers.
func ModelFor(provider ProviderType) string {
	if m, ok := DefaultModels[provider]; ok {
		return m
	}
	return DefaultModels[ProviderOpenAI]
}
