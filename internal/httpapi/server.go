// Package httpapi implements the HTTP read/write surface consumed by
// the dashboard (spec §6), using stdlib net/http's 1.22+ method+pattern
// routing instead of a router dependency — matching the teacher's
// preference for small, explicit handler funcs over a web framework.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jamesaphoenix/tx/internal/claim"
	"github.com/jamesaphoenix/tx/internal/hierarchy"
	"github.com/jamesaphoenix/tx/internal/label"
	"github.com/jamesaphoenix/tx/internal/learning"
	"github.com/jamesaphoenix/tx/internal/orchestrator"
	"github.com/jamesaphoenix/tx/internal/ready"
	"github.com/jamesaphoenix/tx/internal/task"
	"github.com/jamesaphoenix/tx/internal/worker"
)

// Server wires every service the HTTP surface fronts. It holds no state
// of its own beyond those collaborators.
type Server struct {
	Tasks        *task.Service
	Ready        *ready.Service
	Hierarchy    *hierarchy.Service
	Labels       *label.Service
	Claims       *claim.Service
	Workers      *worker.Service
	Orchestrator *orchestrator.Service
	Learning     *learning.Service
	Logger       *slog.Logger

	// PathRoots bounds transcript-path and docs-path query inputs (spec
	// §9); handleRunsStub and handleDocsStub validate against it via
	// internal/pathsafe before reporting peripheral-not-implemented.
	PathRoots []string
}

// NewMux builds the routed handler. Docs rendering and dashboard static
// assets are unimplemented stubs (spec §6: "peripheral; treat as opaque
// to the core").
func (s *Server) NewMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("GET /api/tasks/ready", s.handleReadyTasks)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)

	mux.HandleFunc("GET /api/labels", s.handleListLabels)
	mux.HandleFunc("POST /api/labels", s.handleUpsertLabel)
	mux.HandleFunc("POST /api/tasks/{id}/labels", s.handleAttachLabel)
	mux.HandleFunc("DELETE /api/tasks/{id}/labels/{labelId}", s.handleDetachLabel)

	mux.HandleFunc("GET /api/ralph", s.handleRalph)
	mux.HandleFunc("GET /api/ralph/stream", s.handleRalphStream)

	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /api/runs", s.handleRunsStub)
	mux.HandleFunc("GET /api/runs/{id}", s.handleRunsStub)
	mux.HandleFunc("GET /api/docs", s.handleDocsStub)
	mux.HandleFunc("POST /api/docs", s.handleDocsStub)
	mux.HandleFunc("DELETE /api/docs", s.handleDocsStub)

	return mux
}

// envelope is the JSON shape every handler responds with, mirroring the
// teacher's {success, data, error} response envelope.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, envelope{Success: false, Error: err.Error()})
}

func (s *Server) logError(r *http.Request, msg string, err error) {
	if s.Logger == nil {
		return
	}
	s.Logger.Error(msg, "path", r.URL.Path, "error", err)
}
