package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"

	"github.com/comet-hpc/comet/remote"
)

// Health verifies the cluster is reachable end to end.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.runner.Verify(ctx); err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error{Error: err.Error()})
		log.Errorf("health failed: %s", err)
		return
	}
	render.JSON(w, r, OK{Data: "ok"})
}

func remoteNotFound(err error) bool {
	return remote.IsNotFoundError(err)
}
