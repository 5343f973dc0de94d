package api

import (
	"encoding/json"
	"net/http"
)

// HandleHealth handles GET requests for health checks
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
