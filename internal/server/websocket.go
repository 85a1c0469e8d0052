package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced at the HTTP layer; the upgrade accepts any origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleBatchWebSocket streams batch record snapshots until the batch
// reaches a terminal status or the client disconnects.
// GET /batch/{id}/ws
func (s *Server) handleBatchWebSocket(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")
	if _, ok := s.coordinator.Status(batchID); !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "batch_id", batchID, "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ticker := time.NewTicker(s.progressInterval)
	defer ticker.Stop()

	for {
		rec, ok := s.coordinator.Status(batchID)
		if !ok {
			return
		}

		if err := conn.WriteJSON(rec); err != nil {
			slog.Debug("websocket client gone", "batch_id", batchID, "error", err)
			return
		}

		if rec.Finished() {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(rec.Status)))
			return
		}

		select {
		case <-ticker.C:
		case <-r.Context().Done():
			return
		}
	}
}
