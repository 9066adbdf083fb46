package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/jamesaphoenix/tx/internal/task"
	"github.com/jamesaphoenix/tx/internal/types"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// taskEnvelope decorates a task with the dep/hierarchy projections the
// dashboard renders (spec §6 "enriched tasks with dep projections").
type taskEnvelope struct {
	*types.TaskWithDeps
}

// tasksPage is the paginated list response for GET /api/tasks.
type tasksPage struct {
	Tasks      []*types.TaskWithDeps `json:"tasks"`
	NextCursor string                `json:"nextCursor,omitempty"`
	HasMore    bool                  `json:"hasMore"`
	Total      int                   `json:"total"`
	ByStatus   map[string]int        `json:"byStatus"`
}

// decodeCursor splits a "score:id" cursor at its last colon, matching
// spec §6's cursor format.
func decodeCursor(raw string) (score int, id string, ok bool) {
	if raw == "" {
		return 0, "", false
	}
	i := strings.LastIndex(raw, ":")
	if i < 0 {
		return 0, "", false
	}
	n, err := strconv.Atoi(raw[:i])
	if err != nil {
		return 0, "", false
	}
	return n, raw[i+1:], true
}

func encodeCursor(score int, id string) string {
	return strconv.Itoa(score) + ":" + id
}

// afterCursor reports whether t sorts strictly after the cursor position
// under the list's score-DESC,id-ASC ordering.
func afterCursor(t *types.Task, cScore int, cID string) bool {
	if t.Score != cScore {
		return t.Score < cScore
	}
	return t.ID > cID
}

func parseCSV(v string) []types.TaskStatus {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]types.TaskStatus, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, types.TaskStatus(p))
		}
	}
	return out
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := types.TaskFilter{
		Status: parseCSV(q.Get("status")),
		Search: q.Get("search"),
	}

	limit := defaultPageLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeErr(w, http.StatusBadRequest, errInvalidLimit)
			return
		}
		limit = n
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	all, err := s.Tasks.List(ctx, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	byStatus := map[string]int{}
	for _, t := range all {
		byStatus[string(t.Status)]++
	}

	start := 0
	if cScore, cID, ok := decodeCursor(q.Get("cursor")); ok {
		for i, t := range all {
			if afterCursor(t, cScore, cID) {
				start = i
				break
			}
			start = i + 1
		}
	}
	window := all[start:]
	hasMore := len(window) > limit
	if hasMore {
		window = window[:limit]
	}

	ids := make([]string, len(window))
	for i, t := range window {
		ids[i] = t.ID
	}
	enriched, err := s.Tasks.GetWithDepsBatch(ctx, ids)
	if err != nil {
		writeError(w, err)
		return
	}

	page := tasksPage{
		Tasks:    enriched,
		HasMore:  hasMore,
		Total:    len(all),
		ByStatus: byStatus,
	}
	if hasMore && len(window) > 0 {
		last := window[len(window)-1]
		page.NextCursor = encodeCursor(last.Score, last.ID)
	}
	writeOK(w, http.StatusOK, page)
}

func (s *Server) handleReadyTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.Ready.List(ctx, -1)
	if err != nil {
		writeError(w, err)
		return
	}
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	enriched, err := s.Tasks.GetWithDepsBatch(ctx, ids)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, enriched)
}

// taskDetail is the GET /api/tasks/:id response: the task plus fully
// hydrated blockedBy/blocks/children task lists (spec §6).
type taskDetail struct {
	*types.Task
	BlockedByTasks []*types.Task `json:"blockedByTasks"`
	BlocksTasks    []*types.Task `json:"blocksTasks"`
	ChildTasks     []*types.Task `json:"childTasks"`
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	twd, err := s.Tasks.GetWithDeps(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	detail := taskDetail{Task: &twd.Task}
	for _, bid := range twd.BlockedBy {
		if t, err := s.Tasks.Get(ctx, bid); err == nil {
			detail.BlockedByTasks = append(detail.BlockedByTasks, t)
		}
	}
	for _, bid := range twd.Blocks {
		if t, err := s.Tasks.Get(ctx, bid); err == nil {
			detail.BlocksTasks = append(detail.BlocksTasks, t)
		}
	}
	for _, cid := range twd.Children {
		if t, err := s.Tasks.Get(ctx, cid); err == nil {
			detail.ChildTasks = append(detail.ChildTasks, t)
		}
	}
	writeOK(w, http.StatusOK, detail)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in task.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	t, err := s.Tasks.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, t)
}

// taskPatch is the wire shape for PATCH /api/tasks/:id. ParentID is a
// double-pointer so "field absent", "field explicitly null" and "field
// set" are each distinguishable, matching task.UpdateInput's contract.
type taskPatch struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Status      *types.TaskStatus `json:"status"`
	ParentID    **string          `json:"parentId"`
	Score       *int              `json:"score"`
	Metadata    map[string]string `json:"metadata"`
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	raw := map[string]json.RawMessage{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	in := task.UpdateInput{}
	if v, ok := raw["title"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		in.Title = &s
	}
	if v, ok := raw["description"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		in.Description = &s
	}
	if v, ok := raw["status"]; ok {
		var st types.TaskStatus
		if err := json.Unmarshal(v, &st); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		in.Status = &st
	}
	if v, ok := raw["score"]; ok {
		var sc int
		if err := json.Unmarshal(v, &sc); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		in.Score = &sc
	}
	if v, ok := raw["metadata"]; ok {
		var m map[string]string
		if err := json.Unmarshal(v, &m); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		in.Metadata = m
	}
	if v, ok := raw["parentId"]; ok {
		var p *string
		if err := json.Unmarshal(v, &p); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		in.ParentID = &p
	}

	t, err := s.Tasks.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.Tasks.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}
