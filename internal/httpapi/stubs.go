package httpapi

import (
	"net/http"

	"github.com/jamesaphoenix/tx/internal/pathsafe"
)

// handleRunsStub and handleDocsStub cover the run-transcript and docs
// endpoints of spec §6, both explicitly peripheral to the core ("treat
// as opaque to the core"). Runs belong to the worker-runtime transcript
// format and docs rendering to the dashboard's static-asset pipeline;
// neither has a data model in this engine, so they report "not
// implemented" rather than fabricate one — but any path query argument
// still goes through the same pathsafe validator a real reader would
// use, per §9's "single reusable primitive, centralize it".
func (s *Server) handleRunsStub(w http.ResponseWriter, r *http.Request) {
	s.stubPeripheral(w, r)
}

func (s *Server) handleDocsStub(w http.ResponseWriter, r *http.Request) {
	s.stubPeripheral(w, r)
}

func (s *Server) stubPeripheral(w http.ResponseWriter, r *http.Request) {
	if p := r.URL.Query().Get("path"); p != "" {
		if _, err := pathsafe.Resolve(s.PathRoots, p); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
	}
	writeErr(w, http.StatusNotImplemented, errPeripheralEndpoint)
}
