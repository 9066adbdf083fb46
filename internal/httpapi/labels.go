package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func (s *Server) handleListLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := s.Labels.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, labels)
}

type upsertLabelRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleUpsertLabel(w http.ResponseWriter, r *http.Request) {
	var in upsertLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	l, err := s.Labels.Upsert(r.Context(), in.Name, in.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, l)
}

type attachLabelRequest struct {
	LabelID int64 `json:"labelId"`
}

func (s *Server) handleAttachLabel(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	var in attachLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Labels.Attach(r.Context(), taskID, in.LabelID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (s *Server) handleDetachLabel(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	labelID, err := strconv.ParseInt(r.PathValue("labelId"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Labels.Detach(r.Context(), taskID, labelID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}
