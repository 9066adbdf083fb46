package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/jamesaphoenix/tx/internal/types"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// ralphStatus is the orchestrator liveness projection for GET /api/ralph
// (spec §6). currentTask is best-effort and there is no iteration field:
// the core has no iteration counter of its own, so it reports the busy
// worker pool's current task(s) as "recent activity" instead of
// fabricating a counter.
type ralphStatus struct {
	Running         bool     `json:"running"`
	PID             int      `json:"pid"`
	CurrentTask     string   `json:"currentTask,omitempty"`
	RecentActivity  []string `json:"recentActivity"`
	LastReconcileAt *string  `json:"lastReconcileAt,omitempty"`
}

func (s *Server) buildRalphStatus(ctx context.Context) (ralphStatus, error) {
	st, err := s.Orchestrator.Status(ctx)
	if err != nil {
		return ralphStatus{}, err
	}
	workers, err := s.Workers.List(ctx)
	if err != nil {
		return ralphStatus{}, err
	}
	out := ralphStatus{
		Running: st.Status == types.OrchestratorRunning,
		PID:     st.PID,
	}
	for _, w := range workers {
		if w.Status == types.WorkerBusy && w.CurrentTaskID != nil {
			out.RecentActivity = append(out.RecentActivity, w.ID+":"+*w.CurrentTaskID)
			if out.CurrentTask == "" {
				out.CurrentTask = *w.CurrentTaskID
			}
		}
	}
	if st.LastReconcileAt != nil {
		ts := st.LastReconcileAt.Format(time.RFC3339)
		out.LastReconcileAt = &ts
	}
	return out, nil
}

func (s *Server) handleRalph(w http.ResponseWriter, r *http.Request) {
	status, err := s.buildRalphStatus(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, status)
}

// handleRalphStream upgrades to a websocket and pushes the orchestrator
// status on a fixed tick, a live variant of /api/ralph (SPEC_FULL.md §6
// [ADDED]) — the teacher's dependency tree already carries
// nhooyr.io/websocket for the dashboard's live terminal views.
func (s *Server) handleRalphStream(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		status, err := s.buildRalphStatus(ctx)
		if err != nil {
			s.logError(r, "ralph stream status failed", err)
			_ = c.Close(websocket.StatusInternalError, "status unavailable")
			return
		}
		if err := wsjson.Write(ctx, c, status); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			_ = c.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
		}
	}
}
