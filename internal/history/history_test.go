package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/freestyler/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func sampleGeneration() Generation {
	return Generation{
		Persona:      "Harry Mack",
		Topic:        "New York City",
		Prompt:       "Act as a rapper.",
		Provider:     "openai",
		Model:        "gpt-4o-mini",
		Output:       "Verse 1\nConcrete jungle where the dreams are made\n",
		Bars:         []string{"Concrete jungle where the dreams are made"},
		InputTokens:  40,
		OutputTokens: 12,
		DurationMS:   850,
	}
}

func TestSaveAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	g := sampleGeneration()
	g.ID = "gen-1"
	id, err := store.Save(ctx, g)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != "gen-1" {
		t.Errorf("id = %q, want gen-1", id)
	}

	got, err := store.GetByID(ctx, "gen-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Persona != "Harry Mack" {
		t.Errorf("Persona = %q", got.Persona)
	}
	if got.Topic != "New York City" {
		t.Errorf("Topic = %q", got.Topic)
	}
	if got.Output != g.Output {
		t.Errorf("Output = %q", got.Output)
	}
	if len(got.Bars) != 1 || got.Bars[0] != g.Bars[0] {
		t.Errorf("Bars = %v", got.Bars)
	}
	if got.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if got.InputTokens != 40 || got.OutputTokens != 12 || got.DurationMS != 850 {
		t.Errorf("metrics = %d/%d/%d", got.InputTokens, got.OutputTokens, got.DurationMS)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestSaveGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	id, err := store.Save(context.Background(), sampleGeneration())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("expected a UUID, got %q", id)
	}
}

func TestSaveFailedGeneration(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	g := sampleGeneration()
	g.Bars = nil
	g.Status = StatusFailed
	g.Error = "openai returned status 429: slow down"
	id, err := store.Save(ctx, g)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusFailed || got.Error != g.Error {
		t.Errorf("got status %q error %q", got.Status, got.Error)
	}
	if got.Bars == nil || len(got.Bars) != 0 {
		t.Errorf("Bars should decode to an empty list, got %#v", got.Bars)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersAndOrder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, persona := range []string{"Nas", "Eminem", "Nas"} {
		g := sampleGeneration()
		g.Persona = persona
		if _, err := store.Save(ctx, g); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	failed := sampleGeneration()
	failed.Status = StatusFailed
	if _, err := store.Save(ctx, failed); err != nil {
		t.Fatalf("Save: %v", err)
	}

	all, err := store.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 generations, got %d", len(all))
	}
	if all[0].Status != StatusFailed {
		t.Errorf("expected newest first, got %+v", all[0])
	}

	nas, err := store.List(ctx, ListFilter{Persona: "nas"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(nas) != 2 {
		t.Errorf("expected 2 Nas generations, got %d", len(nas))
	}

	failedOnly, err := store.List(ctx, ListFilter{Status: StatusFailed})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(failedOnly) != 1 {
		t.Errorf("expected 1 failed generation, got %d", len(failedOnly))
	}

	page, err := store.List(ctx, ListFilter{Limit: 2, Offset: 3})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 1 {
		t.Errorf("expected 1 generation on the last page, got %d", len(page))
	}

	skipped, err := store.List(ctx, ListFilter{Offset: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(skipped) != 3 {
		t.Errorf("expected 3 generations after offset, got %d", len(skipped))
	}
}

func TestCountAndDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	old := sampleGeneration()
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	if _, err := store.Save(ctx, old); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Save(ctx, sampleGeneration()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	deleted, err := store.DeleteBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	n, _ = store.Count(ctx)
	if n != 1 {
		t.Errorf("expected 1 remaining, got %d", n)
	}
}

func TestMarkdown(t *testing.T) {
	g := sampleGeneration()
	g.Bars = append(g.Bars, "Spit it *loud* for the [crowd]")
	out := Markdown(&g)

	if !strings.HasPrefix(out, "# Yo listen, it's Harry Mack off the top Freestyle!\n") {
		t.Errorf("unexpected heading:\n%s", out)
	}
	if !strings.Contains(out, "_Topic: New York City_") {
		t.Errorf("missing topic:\n%s", out)
	}
	if !strings.Contains(out, `- Spit it \*loud\* for the \[crowd\]`) {
		t.Errorf("bar not escaped:\n%s", out)
	}
}

func TestMarkdownNoBars(t *testing.T) {
	g := Generation{Prompt: "p"}
	out := Markdown(&g)
	if !strings.Contains(out, "the AI off the top") || !strings.Contains(out, "No bars survived the cut.") {
		t.Errorf("unexpected markdown:\n%s", out)
	}
}

func TestHTML(t *testing.T) {
	g := sampleGeneration()
	out, err := HTML(&g)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(out, "<h1>") || !strings.Contains(out, "<li>Concrete jungle where the dreams are made</li>") {
		t.Errorf("unexpected html:\n%s", out)
	}
}

// --- HTTP handler tests ---

func setupRouter(t *testing.T) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPGetByID(t *testing.T) {
	r, store := setupRouter(t)
	g := sampleGeneration()
	g.ID = "http-1"
	if _, err := store.Save(context.Background(), g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/generations/http-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got Generation
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "http-1" || got.Persona != "Harry Mack" {
		t.Errorf("got %+v", got)
	}
}

func TestHTTPGetByIDNotFound(t *testing.T) {
	r, _ := setupRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/generations/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHTTPList(t *testing.T) {
	r, store := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/generations", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list should encode as [], got %s", rec.Body.String())
	}

	for i := 0; i < 3; i++ {
		store.Save(context.Background(), sampleGeneration())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/generations?limit=2&persona=Harry+Mack", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var got []Generation
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 generations, got %d", len(got))
	}
}

func TestHTTPExport(t *testing.T) {
	r, store := setupRouter(t)
	g := sampleGeneration()
	g.ID = "exp-1"
	store.Save(context.Background(), g)

	tests := []struct {
		query       string
		status      int
		contentType string
		contains    string
	}{
		{"", http.StatusOK, "text/markdown; charset=utf-8", "- Concrete jungle"},
		{"?format=html", http.StatusOK, "text/html; charset=utf-8", "<li>Concrete jungle"},
		{"?format=pdf", http.StatusBadRequest, "application/json", "format must be"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/generations/exp-1/export"+tt.query, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != tt.status {
			t.Errorf("%q: status = %d, want %d", tt.query, rec.Code, tt.status)
		}
		if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
			t.Errorf("%q: content type = %q", tt.query, ct)
		}
		if !strings.Contains(rec.Body.String(), tt.contains) {
			t.Errorf("%q: body missing %q:\n%s", tt.query, tt.contains, rec.Body.String())
		}
	}
}
