package history

import "time"

// Status records how a generation ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Generation is one streamed freestyle and the bars cut from it.
type Generation struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Persona      string    `json:"persona,omitempty"`
	Topic        string    `json:"topic,omitempty"`
	Prompt       string    `json:"prompt"`
	Provider     string    `json:"provider,omitempty"`
	Model        string    `json:"model,omitempty"`
	Output       string    `json:"output"`
	Bars         []string  `json:"bars"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	DurationMS   int64     `json:"duration_ms"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
}
