// Package freestyle runs a generation end to end: it builds the prompt,
// streams the model output to the caller, cuts the bars and records the
// result.
package freestyle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/freestyler/internal/bars"
	"github.com/ziadkadry99/freestyler/internal/history"
	"github.com/ziadkadry99/freestyler/internal/llm"
	"github.com/ziadkadry99/freestyler/internal/persona"
)

// ErrNoPrompt is returned when a request carries neither a prompt nor a topic.
var ErrNoPrompt = errors.New("no prompt in the request")

// ErrUnknownPersona is returned for a persona outside the catalog.
var ErrUnknownPersona = persona.ErrUnknown

// Request describes one generation. A non-empty Prompt is sent verbatim;
// otherwise the prompt is built from Topic and Persona.
type Request struct {
	Prompt  string `json:"prompt,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Persona string `json:"persona,omitempty"`
}

// Result is the outcome of a finished generation.
type Result struct {
	ID       string
	Persona  string
	Text     string
	Bars     []string
	Response *llm.CompletionResponse
	Duration time.Duration
}

// Options are the generation parameters passed to the provider.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Recorder persists finished generations. *history.Store satisfies it.
type Recorder interface {
	Save(ctx context.Context, g history.Generation) (string, error)
}

// Service streams freestyles from a provider.
type Service struct {
	provider llm.Provider
	catalog  *persona.Catalog
	filter   bars.Filter
	opts     Options
	recorder Recorder
	logger   *zap.Logger
}

// New creates a Service. recorder may be nil to skip persistence.
func New(provider llm.Provider, catalog *persona.Catalog, filter bars.Filter, opts Options, recorder Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider: provider,
		catalog:  catalog,
		filter:   filter,
		opts:     opts,
		recorder: recorder,
		logger:   logger,
	}
}

// Catalog returns the persona catalog used to build prompts.
func (s *Service) Catalog() *persona.Catalog { return s.catalog }

// Filter returns the bar filter.
func (s *Service) Filter() bars.Filter { return s.filter }

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string { return s.provider.Name() }

// Prepared is a validated request ready to stream.
type Prepared struct {
	Prompt  string
	Topic   string
	Persona string
}

// Prepare validates req and resolves its prompt.
func (s *Service) Prepare(req Request) (Prepared, error) {
	if p := strings.TrimSpace(req.Prompt); p != "" {
		return Prepared{Prompt: req.Prompt, Topic: req.Topic, Persona: req.Persona}, nil
	}
	if strings.TrimSpace(req.Topic) == "" && strings.TrimSpace(req.Persona) == "" {
		return Prepared{}, ErrNoPrompt
	}
	p, err := s.catalog.Resolve(req.Persona)
	if err != nil {
		return Prepared{}, err
	}
	return Prepared{
		Prompt:  persona.BuildPrompt(req.Topic, p),
		Topic:   strings.TrimSpace(req.Topic),
		Persona: p.Name,
	}, nil
}

// StreamOptions customizes a single Stream call.
type StreamOptions struct {
	// ID is the generation ID to record; empty generates one.
	ID string
	// OnChunk, when set, is called after every chunk has been written
	// to w and added to the accumulator.
	OnChunk func(chunk string, acc *bars.Accumulator) error
}

// Stream runs a prepared request, writing every chunk to w as it arrives.
// The generation is recorded whether or not it succeeds.
func (s *Service) Stream(ctx context.Context, p Prepared, w io.Writer, so StreamOptions) (*Result, error) {
	acc := bars.NewAccumulator(s.filter)
	start := time.Now()

	resp, err := s.provider.Stream(ctx, llm.CompletionRequest{
		Model:       s.opts.Model,
		Messages:    llm.UserPrompt(p.Prompt),
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	}, func(chunk string) error {
		acc.WriteString(chunk)
		if w != nil {
			if _, err := io.WriteString(w, chunk); err != nil {
				return fmt.Errorf("writing chunk: %w", err)
			}
		}
		if so.OnChunk != nil {
			return so.OnChunk(chunk, acc)
		}
		return nil
	})

	result := &Result{
		ID:       so.ID,
		Persona:  p.Persona,
		Text:     acc.Text(),
		Bars:     acc.Bars(),
		Response: resp,
		Duration: time.Since(start),
	}

	result.ID = s.record(p, result, err)

	if err != nil {
		s.logger.Warn("generation failed",
			zap.String("id", result.ID),
			zap.String("provider", s.provider.Name()),
			zap.Int("bytes", acc.Len()),
			zap.Error(err),
		)
		return result, err
	}

	s.logger.Info("generation completed",
		zap.String("id", result.ID),
		zap.String("persona", p.Persona),
		zap.String("provider", s.provider.Name()),
		zap.Int("bars", len(result.Bars)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// Generate prepares and streams req in one call.
func (s *Service) Generate(ctx context.Context, req Request, w io.Writer) (*Result, error) {
	p, err := s.Prepare(req)
	if err != nil {
		return nil, err
	}
	return s.Stream(ctx, p, w, StreamOptions{})
}

func (s *Service) record(p Prepared, r *Result, streamErr error) string {
	if s.recorder == nil {
		return r.ID
	}

	g := history.Generation{
		ID:         r.ID,
		Persona:    p.Persona,
		Topic:      p.Topic,
		Prompt:     p.Prompt,
		Provider:   s.provider.Name(),
		Model:      s.opts.Model,
		Output:     r.Text,
		Bars:       r.Bars,
		DurationMS: r.Duration.Milliseconds(),
		Status:     history.StatusCompleted,
	}
	if r.Response != nil {
		if r.Response.Model != "" {
			g.Model = r.Response.Model
		}
		g.InputTokens = r.Response.InputTokens
		g.OutputTokens = r.Response.OutputTokens
	}
	if streamErr != nil {
		g.Status = history.StatusFailed
		g.Error = streamErr.Error()
	}

	// The caller's context may already be cancelled; the record should
	// still land.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := s.recorder.Save(ctx, g)
	if err != nil {
		s.logger.Error("recording generation", zap.Error(err))
		return r.ID
	}
	return id
}
