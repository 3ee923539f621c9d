// Package client talks to a running freestyler server the way the browser
// page does: it posts a prompt and reads the streamed text back.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// StatusError is returned for a non-OK response.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string // the server's "error" field, when present
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %s", e.Status)
	}
	return fmt.Sprintf("server returned %s: %s", e.Status, e.Message)
}

// ChunkFunc receives streamed text as it is read.
type ChunkFunc func(chunk string) error

// Result is a finished streamed generation.
type Result struct {
	GenerationID string
	Text         string
}

// Client is an HTTP client for the freestyler API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Generate posts a raw prompt to /api/generate.
func (c *Client) Generate(ctx context.Context, prompt string, onChunk ChunkFunc) (*Result, error) {
	return c.stream(ctx, "/api/generate", map[string]string{"prompt": prompt}, onChunk)
}

// Freestyle posts a topic and persona to /api/freestyle.
func (c *Client) Freestyle(ctx context.Context, topic, persona string, onChunk ChunkFunc) (*Result, error) {
	return c.stream(ctx, "/api/freestyle", map[string]string{"topic": topic, "persona": persona}, onChunk)
}

func (c *Client) stream(ctx context.Context, path string, body any, onChunk ChunkFunc) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	res := &Result{GenerationID: resp.Header.Get("X-Generation-ID")}
	var text strings.Builder
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			text.WriteString(chunk)
			if onChunk != nil {
				if err := onChunk(chunk); err != nil {
					res.Text = text.String()
					return res, err
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			res.Text = text.String()
			return res, fmt.Errorf("reading stream: %w", readErr)
		}
	}
	res.Text = text.String()
	return res, nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	se := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	if gjson.ValidBytes(data) {
		se.Message = gjson.GetBytes(data, "error").String()
	}
	return se
}
