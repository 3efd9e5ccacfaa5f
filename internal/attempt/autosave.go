package attempt

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// autosaveRequest is the incoming websocket frame.
type autosaveRequest struct {
	Type     string   `json:"type"` // "autosave" or "ping"
	Seq      int      `json:"seq,omitempty"`
	Progress Progress `json:"progress"`
}

// autosaveResponse is the outgoing websocket frame.
type autosaveResponse struct {
	Type      string `json:"type"` // "saved", "pong" or "error"
	Seq       int    `json:"seq,omitempty"`
	AttemptID string `json:"attempt_id"`
	Status    Status `json:"status,omitempty"`
	Answered  int    `json:"answered"`
	Error     string `json:"error,omitempty"`
}

// handleAutosave keeps a websocket open for one attempt and applies each
// autosave frame with SaveProgress. Every frame gets exactly one reply.
func handleAutosave(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := svc.Get(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			svc.log.Warn("websocket upgrade failed", "attempt", id, "error", err)
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					svc.log.Warn("websocket read failed", "attempt", id, "error", err)
				}
				return
			}

			var req autosaveRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				svc.send(conn, autosaveResponse{Type: "error", AttemptID: id, Error: "invalid message format"})
				continue
			}

			switch req.Type {
			case "autosave":
				a, err := svc.SaveProgress(r.Context(), id, req.Progress)
				if err != nil {
					svc.send(conn, autosaveResponse{Type: "error", Seq: req.Seq, AttemptID: id, Error: err.Error()})
					continue
				}
				svc.send(conn, autosaveResponse{Type: "saved", Seq: req.Seq, AttemptID: id, Status: a.Status, Answered: len(a.Answers)})
			case "ping":
				svc.send(conn, autosaveResponse{Type: "pong", Seq: req.Seq, AttemptID: id})
			default:
				svc.send(conn, autosaveResponse{Type: "error", Seq: req.Seq, AttemptID: id, Error: "unknown message type: " + req.Type})
			}
		}
	}
}

func (s *Service) send(conn *websocket.Conn, resp autosaveResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.log.Warn("websocket write failed", "attempt", resp.AttemptID, "error", err)
	}
}
