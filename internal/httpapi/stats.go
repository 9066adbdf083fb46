package httpapi

import (
	"net/http"

	"github.com/jamesaphoenix/tx/internal/types"
)

// statsResponse aggregates task/worker/claim counts for GET /api/stats
// (spec §6 "Aggregates").
type statsResponse struct {
	TasksByStatus map[string]int `json:"tasksByStatus"`
	ReadyCount    int            `json:"readyCount"`
	WorkersByStatus map[string]int `json:"workersByStatus"`
	ActiveClaims  int            `json:"activeClaims"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tasks, err := s.Tasks.List(ctx, types.TaskFilter{})
	if err != nil {
		writeError(w, err)
		return
	}
	byStatus := map[string]int{}
	for _, t := range tasks {
		byStatus[string(t.Status)]++
	}

	ready, err := s.Ready.List(ctx, -1)
	if err != nil {
		writeError(w, err)
		return
	}

	workers, err := s.Workers.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	workersByStatus := map[string]int{}
	activeClaims := 0
	for _, wk := range workers {
		workersByStatus[string(wk.Status)]++
		if wk.CurrentTaskID != nil {
			activeClaims++
		}
	}

	writeOK(w, http.StatusOK, statsResponse{
		TasksByStatus:   byStatus,
		ReadyCount:      len(ready),
		WorkersByStatus: workersByStatus,
		ActiveClaims:    activeClaims,
	})
}
