package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/freestyler/internal/llm"
	"github.com/ziadkadry99/freestyler/internal/llm/llmtest"
)

func collect(t *testing.T, p llm.Provider, prompt string) ([]string, *llm.CompletionResponse, error) {
	t.Helper()
	var chunks []string
	resp, err := p.Stream(context.Background(), llm.CompletionRequest{
		Messages:    llm.UserPrompt(prompt),
		MaxTokens:   200,
		Temperature: 0.7,
	}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	return chunks, resp, err
}

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	for _, p := range []string{"openai", "google"} {
		_, err := llm.NewProvider(llm.Options{Provider: p, Model: "some-model"})
		if err == nil {
			t.Errorf("expected error for provider %q with missing API key", p)
		}
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	_, err := llm.NewProvider(llm.Options{Provider: "unknown", Model: "some-model"})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryCreatesProviders(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("OLLAMA_HOST", "")

	for _, name := range []string{"openai", "google", "ollama"} {
		provider, err := llm.NewProvider(llm.Options{Provider: name, Model: "m"})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if provider.Name() != name {
			t.Errorf("expected name %q, got %q", name, provider.Name())
		}
	}
}

func TestOpenAIStream(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"Yo ", "it's ", "Harry\n"} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"model\":\"gpt-test\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", piece)
		}
		fmt.Fprint(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"model\":\"gpt-test\",\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"model\":\"gpt-test\",\"choices\":[],\"usage\":{\"prompt_tokens\":12,\"completion_tokens\":3,\"total_tokens\":15}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := llm.NewOpenAIProvider("sk-test", "gpt-test", srv.URL+"/v1")
	chunks, resp, err := collect(t, p, "drop some bars")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if strings.Join(chunks, "|") != "Yo |it's |Harry\n" {
		t.Errorf("chunks = %q", chunks)
	}
	if resp.Content != "Yo it's Harry\n" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("finish reason = %q", resp.FinishReason)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 3 {
		t.Errorf("usage = %d/%d", resp.InputTokens, resp.OutputTokens)
	}
	if gotBody["stream"] != true {
		t.Errorf("request stream flag = %v", gotBody["stream"])
	}
	if gotBody["model"] != "gpt-test" {
		t.Errorf("request model = %v", gotBody["model"])
	}
}

func TestOpenAIStreamUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := llm.NewOpenAIProvider("sk-bad", "gpt-test", srv.URL+"/v1")
	_, _, err := collect(t, p, "hello")

	var upErr *llm.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if upErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", upErr.StatusCode)
	}
	if upErr.Provider != "openai" {
		t.Errorf("provider = %q", upErr.Provider)
	}
}

func TestGoogleStream(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:streamGenerateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("alt") != "sse" {
			t.Errorf("alt = %q", r.URL.Query().Get("alt"))
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("x-goog-api-key = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"Mic ", "check\n"} {
			fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":%q}]}}],\"modelVersion\":\"gemini-test-001\"}\n\n", piece)
		}
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"\"}]},\"finishReason\":\"STOP\"}],\"usageMetadata\":{\"promptTokenCount\":9,\"candidatesTokenCount\":2},\"modelVersion\":\"gemini-test-001\"}\n\n")
	}))
	defer srv.Close()

	p, err := llm.NewGoogleProvider("test-key", "gemini-test", srv.URL)
	if err != nil {
		t.Fatalf("NewGoogleProvider: %v", err)
	}
	chunks, resp, err := collect(t, p, "drop some bars")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if strings.Join(chunks, "|") != "Mic |check\n" {
		t.Errorf("chunks = %q", chunks)
	}
	if resp.Content != "Mic check\n" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Model != "gemini-test-001" {
		t.Errorf("model = %q", resp.Model)
	}
	if resp.FinishReason != "STOP" {
		t.Errorf("finish reason = %q", resp.FinishReason)
	}
	if resp.InputTokens != 9 || resp.OutputTokens != 2 {
		t.Errorf("usage = %d/%d", resp.InputTokens, resp.OutputTokens)
	}
	if _, ok := gotBody["contents"]; !ok {
		t.Errorf("request has no contents: %v", gotBody)
	}
}

func TestGoogleStreamUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"bad key","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	p, err := llm.NewGoogleProvider("bad-key", "gemini-test", srv.URL)
	if err != nil {
		t.Fatalf("NewGoogleProvider: %v", err)
	}
	_, _, err = collect(t, p, "hello")

	var upErr *llm.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if upErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d", upErr.StatusCode)
	}
	if upErr.Provider != "google" {
		t.Errorf("provider = %q", upErr.Provider)
	}
}

func TestNewGoogleProviderRequiresKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	p, err := llm.NewGoogleProvider("", "gemini-test", "")
	if err == nil {
		t.Fatal("expected an error without an API key")
	}
	if p != nil {
		t.Errorf("expected no provider, got %v", p)
	}
}

func TestOllamaStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["stream"] != true {
			t.Errorf("stream flag = %v", req["stream"])
		}
		io.WriteString(w, `{"model":"llama3","message":{"role":"assistant","content":"mic "},"done":false}`+"\n")
		io.WriteString(w, `{"model":"llama3","message":{"role":"assistant","content":"check"},"done":false}`+"\n")
		io.WriteString(w, `{"model":"llama3","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","prompt_eval_count":7,"eval_count":2}`+"\n")
	}))
	defer srv.Close()

	p := llm.NewOllamaProvider(srv.URL+"/", "llama3")
	chunks, resp, err := collect(t, p, "hello")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(chunks) != 2 || resp.Content != "mic check" {
		t.Errorf("chunks = %q content = %q", chunks, resp.Content)
	}
	if resp.FinishReason != "stop" || resp.InputTokens != 7 || resp.OutputTokens != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestOllamaNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := collect(t, llm.NewOllamaProvider(srv.URL, "missing"), "hello")
	var upErr *llm.UpstreamError
	if !errors.As(err, &upErr) || upErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 UpstreamError, got %v", err)
	}
}

func TestOllamaStreamErrorLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"model":"llama3","message":{"role":"assistant","content":"half "},"done":false}`+"\n")
		io.WriteString(w, `{"error":"out of memory"}`+"\n")
	}))
	defer srv.Close()

	_, resp, err := collect(t, llm.NewOllamaProvider(srv.URL, "llama3"), "hello")
	if err == nil || !strings.Contains(err.Error(), "out of memory") {
		t.Fatalf("expected stream error, got %v", err)
	}
	if resp == nil || resp.Content != "half " {
		t.Errorf("partial content should be kept, got %+v", resp)
	}
}

func TestChunkErrorAbortsStream(t *testing.T) {
	mock := llmtest.NewMockProvider("test", "a", "b", "c")
	stop := errors.New("client went away")
	n := 0
	_, err := mock.Stream(context.Background(), llm.CompletionRequest{}, func(string) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected onChunk error, got %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 chunks before abort, got %d", n)
	}
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := llmtest.NewMockProvider("test", "mock ", "response")
	rl := llm.NewRateLimitedProvider(mock, 60)

	resp, err := rl.Complete(context.Background(), llm.CompletionRequest{Messages: llm.UserPrompt("hello")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}
	if rl.Name() != "test" {
		t.Errorf("expected name 'test', got %q", rl.Name())
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	mock := llmtest.NewMockProvider("test")
	if llm.NewRateLimitedProvider(mock, 0) != llm.Provider(mock) {
		t.Error("rpm 0 should return the provider unwrapped")
	}
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := llmtest.NewMockProvider("test", "x")
	// Allow only 2 requests per minute.
	rl := llm.NewRateLimitedProvider(mock, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	noop := func(string) error { return nil }
	for i := 0; i < 2; i++ {
		if _, err := rl.Stream(ctx, llm.CompletionRequest{}, noop); err != nil {
			t.Fatalf("request %d should succeed: %v", i+1, err)
		}
	}

	// The third has to wait ~30s for a token and the context expires first.
	if _, err := rl.Stream(ctx, llm.CompletionRequest{}, noop); err == nil {
		t.Fatal("expected third request to be rate limited")
	}
	if mock.CallCount() != 2 {
		t.Errorf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestUpstreamErrorMessage(t *testing.T) {
	err := &llm.UpstreamError{Provider: "openai", StatusCode: 429, Message: "slow down"}
	if err.Error() != "openai returned status 429: slow down" {
		t.Errorf("Error() = %q", err.Error())
	}
	err = &llm.UpstreamError{Provider: "google", Message: "boom"}
	if err.Error() != "google: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}
