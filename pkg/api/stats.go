package api

import (
	"encoding/json"
	"net/http"
)

// HandleStats handles GET requests for engine-level statistics
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.store.Stats())
}
