package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"

	"github.com/comet-hpc/comet/slurm"
)

// SubmitJob delegates one procedure call to the cluster and stores the
// returned descriptor.
func (s *Server) SubmitJob(w http.ResponseWriter, r *http.Request) {
	// UseNumber keeps integer arguments integral through the payload schema.
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body SubmitBody
	if err := dec.Decode(&body); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, Error{Error: err.Error()})
		return
	}

	start := time.Now()
	job, err := s.runner.Run(r.Context(), body.toRequest())
	if err != nil {
		status := http.StatusInternalServerError
		if slurm.IsTemplateError(err) {
			status = http.StatusBadRequest
		}
		render.Status(r, status)
		render.JSON(w, r, Error{Error: err.Error()})
		log.Errorf("submit failed: %s", err)
		submitFailures.Inc(1)
		return
	}
	submitTimer.UpdateSince(start)

	if err := s.store.Save(job); err != nil {
		log.Errorf("could not store job %s: %s", job.JobID, err)
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, job)
}

// ListJobs returns every descriptor in the local registry.
func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.List()
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error{Error: err.Error()})
		log.Errorf("list failed: %s", err)
		return
	}
	render.JSON(w, r, jobs)
}

// GetJob returns one stored descriptor.
func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, Error{Error: err.Error()})
		return
	}
	render.JSON(w, r, job)
}

// JobStatus polls the scheduler. ?cleanup=false suppresses removal of the
// remote job directory on terminal states.
func (s *Server) JobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, Error{Error: err.Error()})
		return
	}

	cleanup := true
	if v := r.URL.Query().Get("cleanup"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cleanup = parsed
		}
	}

	status, err := s.runner.CheckStatus(r.Context(), job, cleanup)
	if err != nil {
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, Error{Error: err.Error()})
		log.Errorf("status poll failed: %s", err)
		return
	}
	statusPolls.Inc(1)

	if err := s.store.Save(job); err != nil {
		log.Errorf("could not store job %s: %s", job.JobID, err)
	}
	render.JSON(w, r, StatusResponse{JobID: job.JobID, Status: status.String()})
}

// JobLogs downloads both output streams. Logs that do not exist yet answer
// 404; the job is likely still pending.
func (s *Server) JobLogs(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, Error{Error: err.Error()})
		return
	}

	stdout, stderr, err := s.runner.FetchLogs(r.Context(), job)
	if err != nil {
		status := http.StatusBadGateway
		if remoteNotFound(err) {
			status = http.StatusNotFound
		}
		render.Status(r, status)
		render.JSON(w, r, Error{Error: err.Error()})
		return
	}

	log.Debugf("job %s: fetched %s of logs", job.JobID,
		humanize.Bytes(uint64(len(stdout)+len(stderr))))
	render.JSON(w, r, LogsResponse{Stdout: string(stdout), Stderr: string(stderr)})
}

// CancelJob issues scancel. An already finished job answers OK as well.
func (s *Server) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, Error{Error: err.Error()})
		return
	}

	if err := s.runner.Cancel(r.Context(), job); err != nil {
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, Error{Error: err.Error()})
		log.Errorf("cancel failed: %s", err)
		return
	}
	cancels.Inc(1)
	render.JSON(w, r, OK{Data: "job " + job.JobID + " cancelled"})
}
