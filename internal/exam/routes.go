package exam

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/examdesk/internal/overlay"
	"github.com/ziadkadry99/examdesk/internal/passage"
)

// RegisterRoutes mounts the test authoring and rendering API routes.
func RegisterRoutes(r chi.Router, store *Store, renderer *passage.Renderer) {
	r.Route("/api/tests", func(r chi.Router) {
		r.Get("/", handleListTests(store))
		r.Post("/", handleCreateTest(store))
		r.Get("/{id}", handleGetTest(store))
		r.Get("/{id}/questions", handleListQuestions(store))
		r.Get("/{id}/passages", handleListPassages(store))
	})
	r.Route("/api/passages", func(r chi.Router) {
		r.Post("/", handleCreatePassage(store))
		r.Get("/{id}", handleGetPassage(store))
		r.Get("/{id}/render", handleRenderPassage(store, renderer))
	})
	r.Route("/api/questions", func(r chi.Router) {
		r.Post("/", handleCreateQuestion(store))
		r.Get("/{id}", handleGetQuestion(store))
		r.Get("/{id}/render", handleRenderQuestion(store, renderer))
	})
}

func handleListTests(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tests, err := store.ListTests(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if tests == nil {
			tests = []Test{}
		}
		writeJSON(w, http.StatusOK, tests)
	}
}

func handleCreateTest(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t Test
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if t.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		created, err := store.CreateTest(r.Context(), t)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleGetTest(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetTest(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if t == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func handleListQuestions(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, err := store.ListQuestions(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if questions == nil {
			questions = []Question{}
		}
		writeJSON(w, http.StatusOK, questions)
	}
}

func handleListPassages(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		passages, err := store.ListPassages(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if passages == nil {
			passages = []Passage{}
		}
		writeJSON(w, http.StatusOK, passages)
	}
}

func handleCreatePassage(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Passage
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if p.Content == "" {
			writeError(w, http.StatusBadRequest, "content is required")
			return
		}
		if _, err := passage.ParseFormat(string(p.Format)); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		created, err := store.CreatePassage(r.Context(), p)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleGetPassage(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetPassage(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if p == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleRenderPassage(store *Store, renderer *passage.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetPassage(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if p == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, renderer.Render(p.Content, nil, ModeFromRequest(r)))
	}
}

func handleCreateQuestion(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		created, err := store.CreateQuestion(r.Context(), q)
		if errors.Is(err, ErrInvalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleGetQuestion(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuestion(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if q == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// handleRenderQuestion renders a question for review: its passage carries
// the highlights of the question's sentence references.
func handleRenderQuestion(store *Store, renderer *passage.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuestion(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if q == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		qv, err := store.RenderQuestion(r.Context(), renderer, *q, overlay.State{}, ModeFromRequest(r), true)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, qv)
	}
}

// ModeFromRequest reads the display mode from the query string.
// Highlighting is on unless highlighting=false is passed.
func ModeFromRequest(r *http.Request) passage.Mode {
	return passage.Mode{Highlighting: r.URL.Query().Get("highlighting") != "false"}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
