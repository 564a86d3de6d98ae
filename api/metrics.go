package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rcrowley/go-metrics"
)

var (
	submitTimer    = metrics.NewRegisteredTimer("api.submit.latency", metrics.DefaultRegistry)
	submitFailures = metrics.NewRegisteredCounter("api.submit.failures", metrics.DefaultRegistry)
	statusPolls    = metrics.NewRegisteredCounter("api.status.polls", metrics.DefaultRegistry)
	cancels        = metrics.NewRegisteredCounter("api.cancels", metrics.DefaultRegistry)
)

// Metrics dumps the registry as JSON.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	snapshot := make(map[string]any)
	metrics.DefaultRegistry.Each(func(name string, metric any) {
		switch m := metric.(type) {
		case metrics.Counter:
			snapshot[name] = m.Count()
		case metrics.Timer:
			t := m.Snapshot()
			snapshot[name] = map[string]any{
				"count":   t.Count(),
				"mean_ms": t.Mean() / 1e6,
				"p99_ms":  t.Percentile(0.99) / 1e6,
			}
		case metrics.Gauge:
			snapshot[name] = m.Value()
		}
	})

	data, err := json.Marshal(snapshot)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
