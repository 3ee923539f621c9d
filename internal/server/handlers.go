package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/freestyler/internal/freestyle"
	"github.com/ziadkadry99/freestyler/internal/llm"
	"github.com/ziadkadry99/freestyler/internal/persona"
)

// GenerationIDHeader carries the ID under which a streamed generation is recorded.
const GenerationIDHeader = "X-Generation-ID"

const maxBodyBytes = 1 << 20

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type freestyleRequest struct {
	Topic   string `json:"topic"`
	Persona string `json:"persona"`
}

type barsRequest struct {
	Text string `json:"text"`
}

type barsResponse struct {
	Bars []string `json:"bars"`
}

type personasResponse struct {
	Default  string            `json:"default"`
	Personas []persona.Persona `json:"personas"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "No prompt in the request")
		return
	}
	s.stream(w, r, freestyle.Request{Prompt: req.Prompt})
}

func (s *Server) handleFreestyle(w http.ResponseWriter, r *http.Request) {
	var req freestyleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Persona) == "" {
		req.Persona = s.svc.Catalog().Default().Name
	}
	s.stream(w, r, freestyle.Request{Topic: req.Topic, Persona: req.Persona})
}

func (s *Server) handleBars(w http.ResponseWriter, r *http.Request) {
	var req barsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out := s.svc.Filter().Apply(req.Text)
	if out == nil {
		out = []string{}
	}
	writeJSON(w, http.StatusOK, barsResponse{Bars: out})
}

func (s *Server) handlePersonas(w http.ResponseWriter, r *http.Request) {
	c := s.svc.Catalog()
	writeJSON(w, http.StatusOK, personasResponse{
		Default:  c.Default().Name,
		Personas: c.All(),
	})
}

// stream runs req and copies the model output to the response as it
// arrives. Failures before the first byte get a JSON error. After that the
// connection is aborted without the terminating chunk, so readers see an
// unexpected EOF rather than a complete body.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, req freestyle.Request) {
	p, err := s.svc.Prepare(req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	id := uuid.New().String()
	sw := newStreamWriter(w, id)

	_, err = s.svc.Stream(ctx, p, sw, freestyle.StreamOptions{ID: id})
	if err == nil {
		sw.finish()
		return
	}

	if sw.started {
		s.logger.Warn("stream interrupted",
			zap.String("id", id),
			zap.Int("bytes", sw.written),
			zap.Error(err),
		)
		panic(http.ErrAbortHandler)
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	w.Header().Set(GenerationIDHeader, id)
	writeError(w, statusFor(err), err.Error())
}

// streamWriter writes response headers on the first chunk and flushes
// after every write.
type streamWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	id      string
	started bool
	written int
}

func newStreamWriter(w http.ResponseWriter, id string) *streamWriter {
	return &streamWriter{w: w, rc: http.NewResponseController(w), id: id}
}

func (sw *streamWriter) start() {
	if sw.started {
		return
	}
	sw.started = true
	h := sw.w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set(GenerationIDHeader, sw.id)
	sw.w.WriteHeader(http.StatusOK)
}

func (sw *streamWriter) Write(p []byte) (int, error) {
	sw.start()
	n, err := sw.w.Write(p)
	sw.written += n
	if err != nil {
		return n, err
	}
	if err := sw.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return n, err
	}
	return n, nil
}

// finish sends headers for a stream that produced no text.
func (sw *streamWriter) finish() {
	sw.start()
}

func statusFor(err error) int {
	var upErr *llm.UpstreamError
	switch {
	case errors.Is(err, freestyle.ErrNoPrompt), errors.Is(err, freestyle.ErrUnknownPersona):
		return http.StatusBadRequest
	case errors.As(err, &upErr):
		if upErr.StatusCode == http.StatusTooManyRequests {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
