package history

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts generation history endpoints under /api/generations.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/generations", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Get("/{id}", handleGetByID(store))
		r.Get("/{id}/export", handleExport(store))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := ListFilter{
			Persona: q.Get("persona"),
			Limit:   50,
		}
		if v := q.Get("status"); v != "" {
			filter.Status = Status(v)
		}
		if v := q.Get("since"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				filter.Since = &t
			}
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		gens, err := store.List(r.Context(), filter)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if gens == nil {
			gens = []Generation{}
		}

		writeJSON(w, http.StatusOK, gens)
	}
}

func handleGetByID(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ok := lookup(w, r, store)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func handleExport(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ok := lookup(w, r, store)
		if !ok {
			return
		}

		switch r.URL.Query().Get("format") {
		case "", "md", "markdown":
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			w.Write([]byte(Markdown(g)))
		case "html":
			out, err := HTML(g)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(out))
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be md or html"})
		}
	}
}

func lookup(w http.ResponseWriter, r *http.Request, store *Store) (*Generation, bool) {
	id := chi.URLParam(r, "id")
	g, err := store.GetByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	return g, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
