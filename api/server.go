// Package api exposes the job lifecycle over HTTP: submission, listing,
// status polls, log retrieval, cancellation, a websocket event stream and a
// metrics dump.
package api

import (
	"context"
	"time"

	"github.com/comet-hpc/comet/runner"
	"github.com/comet-hpc/comet/slurm"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Runner is the slice of runner.Client the handlers need; tests substitute
// a stub.
type Runner interface {
	Verify(ctx context.Context) error
	Run(ctx context.Context, req *runner.Request) (*runner.Job, error)
	CheckStatus(ctx context.Context, job *runner.Job, deleteFiles bool) (slurm.Status, error)
	FetchLogs(ctx context.Context, job *runner.Job) (stdout, stderr []byte, err error)
	Cancel(ctx context.Context, job *runner.Job) error
}

// Registry is the slice of store.Store the handlers need.
type Registry interface {
	Save(job *runner.Job) error
	Get(jobID string) (*runner.Job, error)
	List() ([]*runner.Job, error)
}

type Server struct {
	runner Runner
	store  Registry

	// PollInterval drives the websocket event stream.
	PollInterval time.Duration
}

func NewServer(r Runner, reg Registry) *Server {
	return &Server{
		runner:       r,
		store:        reg,
		PollInterval: 5 * time.Second,
	}
}

// Router assembles the HTTP surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)

	r.Get("/health", s.Health)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/jobs", func(r chi.Router) {
		r.Post("/", s.SubmitJob)
		r.Get("/", s.ListJobs)
		r.Route("/{jobID}", func(r chi.Router) {
			r.Get("/", s.GetJob)
			r.Get("/status", s.JobStatus)
			r.Get("/logs", s.JobLogs)
			r.Get("/events", s.JobEvents)
			r.Delete("/", s.CancelJob)
		})
	})

	return r
}
