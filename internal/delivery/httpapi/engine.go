package httpapi

import (
	"net/http"
)

func (h *Handler) handleEngineStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

// handleEngineRun forces an immediate evaluation cycle, mainly for testing
// and operations. The call is dropped if a cycle is already in flight.
func (h *Handler) handleEngineRun(w http.ResponseWriter, r *http.Request) {
	h.engine.RunOnce(r.Context())
	writeJSON(w, http.StatusOK, h.engine.Stats())
}
