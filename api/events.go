package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream carries job status only; no cross-origin state to protect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// JobEvents streams status updates over a websocket: one JSON message per
// poll tick until the job reaches a terminal state or the client goes away.
// Cleanup is never triggered from this stream.
func (s *Server) JobEvents(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, Error{Error: err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %s", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		status, err := s.runner.CheckStatus(r.Context(), job, false)
		if err != nil {
			conn.WriteJSON(Error{Error: err.Error()})
			return
		}
		if err := conn.WriteJSON(StatusResponse{JobID: job.JobID, Status: status.String()}); err != nil {
			return
		}
		if status.IsTerminal() {
			if err := s.store.Save(job); err != nil {
				log.Errorf("could not store job %s: %s", job.JobID, err)
			}
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
