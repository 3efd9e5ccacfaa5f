package attempt

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/examdesk/internal/exam"
	"github.com/ziadkadry99/examdesk/internal/highlight"
	"github.com/ziadkadry99/examdesk/internal/overlay"
)

// RegisterRoutes mounts the attempt API and the auto-save websocket.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/attempts", func(r chi.Router) {
		r.Post("/", handleStart(svc))
		r.Get("/resume", handleResume(svc))
		r.Get("/{id}", handleGet(svc))
		r.Put("/{id}/progress", handleSaveProgress(svc))
		r.Post("/{id}/submit", handleSubmit(svc))
		r.Get("/{id}/passages/{pid}", handleRenderPassage(svc))
		r.Post("/{id}/passages/{pid}/highlights", handleAddHighlight(svc))
		r.Delete("/{id}/passages/{pid}/highlights/{hid}", handleRemoveHighlight(svc))
		r.Get("/{id}/questions/{qid}", handleRenderQuestion(svc))
		r.Post("/{id}/questions/{qid}/overlay", handleUpdateOverlay(svc))
	})
	r.Get("/ws/attempts/{id}", handleAutosave(svc))
}

type startRequest struct {
	TestID  string `json:"test_id"`
	TakerID string `json:"taker_id"`
}

func handleStart(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		a, err := svc.Start(r.Context(), req.TestID, req.TakerID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func handleResume(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		a, err := svc.Resume(r.Context(), q.Get("test_id"), q.Get("taker_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleGet(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleSaveProgress(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Progress
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		a, err := svc.SaveProgress(r.Context(), chi.URLParam(r, "id"), p)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleSubmit(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Submit(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleRenderPassage(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.RenderPassage(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "pid"), exam.ModeFromRequest(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

type highlightRequest struct {
	Start int             `json:"start"`
	End   int             `json:"end"`
	Color highlight.Color `json:"color"`
}

func handleAddHighlight(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req highlightRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rec, err := svc.AddHighlight(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "pid"), req.Start, req.End, req.Color)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func handleRemoveHighlight(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.RemoveHighlight(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "pid"), chi.URLParam(r, "hid"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRenderQuestion(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv, err := svc.RenderQuestion(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "qid"), exam.ModeFromRequest(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, qv)
	}
}

type overlayRequest struct {
	Action overlay.Action `json:"action"`
	Option string         `json:"option"`
}

func handleUpdateOverlay(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req overlayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		st, err := svc.UpdateOverlay(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "qid"), req.Action, req.Option)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSubmitted):
		return http.StatusConflict
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, StatusFor(err), err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
