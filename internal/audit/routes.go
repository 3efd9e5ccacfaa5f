package audit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts audit endpoints under /api/audit on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/audit", func(r chi.Router) {
		r.Get("/", handleQuery(store))
		r.Get("/attempts/{id}", handleAttemptTimeline(store))
		r.Get("/{id}", handleGetByID(store))
	})
}

// filterFromQuery reads a QueryFilter from actor, scope, scope_id, action,
// since, until (RFC 3339), limit and offset.
func filterFromQuery(q url.Values) (QueryFilter, error) {
	filter := QueryFilter{
		ActorID: q.Get("actor"),
		Scope:   Scope(q.Get("scope")),
		ScopeID: q.Get("scope_id"),
		Action:  Action(q.Get("action")),
	}
	for key, dst := range map[string]**time.Time{"since": &filter.Since, "until": &filter.Until} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return QueryFilter{}, fmt.Errorf("%s must be an RFC 3339 timestamp", key)
		}
		*dst = &t
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return QueryFilter{}, fmt.Errorf("%s must be a non-negative integer", key)
		}
		*dst = n
	}
	return filter, nil
}

func handleQuery(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := filterFromQuery(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeEntries(w, r, store, filter)
	}
}

// handleAttemptTimeline lists everything recorded against one attempt.
func handleAttemptTimeline(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := filterFromQuery(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Scope = ScopeAttempt
		filter.ScopeID = chi.URLParam(r, "id")
		writeEntries(w, r, store, filter)
	}
}

func writeEntries(w http.ResponseWriter, r *http.Request, store *Store, filter QueryFilter) {
	entries, err := store.Query(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func handleGetByID(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if entry == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
